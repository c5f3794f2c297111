package generate

import (
	"testing"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

const sampleArray = `[
  {"question": "What is 2+2?", "type": "multiple_choice", "options": ["3","4"], "correct_answer": "4", "explanation": "basic addition"},
  {"question": "The sky is blue.", "type": "true_false", "options": ["True","False"], "correct_answer": "True"}
]`

func TestExtractFencedWithProse(t *testing.T) {
	text := "Sure! Here are your questions:\n```json\n" + sampleArray + "\n```\nLet me know if you need more."
	qs, err := ExtractQuestions(text)
	if err != nil {
		t.Fatalf("ExtractQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	if qs[0].Text != "What is 2+2?" || qs[0].Type != quiz.TypeMultipleChoice {
		t.Fatalf("first question mapped wrong: %+v", qs[0])
	}
	if qs[1].Type != quiz.TypeTrueFalse {
		t.Fatalf("true_false not mapped: %+v", qs[1])
	}
	if len(qs[0].CorrectAnswers) != 1 || qs[0].CorrectAnswers[0] != "4" {
		t.Fatalf("singular correct_answer not mapped: %+v", qs[0].CorrectAnswers)
	}
}

func TestExtractObjectEqualsBareArray(t *testing.T) {
	fromArray, err := ExtractQuestions(sampleArray)
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	fromObject, err := ExtractQuestions(`{"questions": ` + sampleArray + `}`)
	if err != nil {
		t.Fatalf("object wrapper: %v", err)
	}
	if len(fromArray) != len(fromObject) {
		t.Fatalf("array gave %d, object gave %d", len(fromArray), len(fromObject))
	}
	for i := range fromArray {
		if fromArray[i].Text != fromObject[i].Text || fromArray[i].Type != fromObject[i].Type {
			t.Fatalf("question %d differs: %+v vs %+v", i, fromArray[i], fromObject[i])
		}
	}
}

func TestExtractNestedBracesInStrings(t *testing.T) {
	text := `Here you go: {"questions": [{"question": "Explain {x} vs [y]", "type": "short_answer", "correct_answer": "scope"}]} hope that helps`
	qs, err := ExtractQuestions(text)
	if err != nil {
		t.Fatalf("ExtractQuestions: %v", err)
	}
	if len(qs) != 1 || qs[0].Text != "Explain {x} vs [y]" {
		t.Fatalf("balanced scan failed: %+v", qs)
	}
}

func TestExtractDropsEmptyPrompts(t *testing.T) {
	text := `[
	  {"question": "", "type": "short_answer", "correct_answer": "x"},
	  {"question": "Real one?", "type": "short answer", "correct_answer": "yes"}
	]`
	qs, err := ExtractQuestions(text)
	if err != nil {
		t.Fatalf("ExtractQuestions: %v", err)
	}
	if len(qs) != 1 || qs[0].Text != "Real one?" {
		t.Fatalf("empty prompt not dropped: %+v", qs)
	}
	if qs[0].Type != quiz.TypeShortAnswer {
		t.Fatalf("spaced type string not mapped: %v", qs[0].Type)
	}
}

func TestExtractTypeMapping(t *testing.T) {
	cases := map[string]quiz.QuestionType{
		"true_false":      quiz.TypeTrueFalse,
		"TRUE/FALSE":      quiz.TypeTrueFalse,
		"short_answer":    quiz.TypeShortAnswer,
		"Short Answer":    quiz.TypeShortAnswer,
		"multiple_choice": quiz.TypeMultipleChoice,
		"anything":        quiz.TypeMultipleChoice,
		"":                quiz.TypeMultipleChoice,
	}
	for in, want := range cases {
		if got := mapQuestionType(in); got != want {
			t.Fatalf("mapQuestionType(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExtractFailures(t *testing.T) {
	for name, text := range map[string]string{
		"no json":         "I could not generate questions for that topic.",
		"unbalanced":      `[{"question": "oops"`,
		"empty array":     `[]`,
		"all empty items": `[{"question": ""}]`,
		"object no array": `{"message": "try again"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ExtractQuestions(text); err == nil {
				t.Fatalf("expected extraction error")
			}
		})
	}
}
