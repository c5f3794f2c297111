package generate

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

// rawQuestion is the loosely-typed shape of a question as the model emits it.
// Several key spellings are accepted because the reply carries no schema
// guarantee.
type rawQuestion struct {
	Question       string   `json:"question"`
	Text           string   `json:"text"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correct_answer"`
	CorrectAnswers []string `json:"correct_answers"`
	Explanation    string   `json:"explanation"`
}

// ExtractQuestions pulls a question list out of arbitrary model output. The
// reply may be wrapped in fenced code blocks and surrounded by prose, and may
// be either a bare JSON array or an object holding a "questions" array.
//
// A balanced brace/bracket scan finds the exact JSON span; indexOf/lastIndexOf
// pairing breaks on nested structures, so the scan tracks depth and string
// literals.
func ExtractQuestions(text string) ([]quiz.Question, error) {
	cleaned := stripFences(text)

	start, opener := firstBracket(cleaned)
	if start < 0 {
		return nil, &ExtractionError{Reason: "no JSON object or array in reply"}
	}
	span, ok := balancedSlice(cleaned, start)
	if !ok {
		return nil, &ExtractionError{Reason: "unbalanced JSON in reply"}
	}

	arr := span
	if opener == '{' {
		var wrapper struct {
			Questions json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal([]byte(span), &wrapper); err != nil {
			return nil, &ExtractionError{Reason: "malformed JSON object", Err: err}
		}
		if len(wrapper.Questions) == 0 {
			return nil, &ExtractionError{Reason: "object has no questions array"}
		}
		arr = string(wrapper.Questions)
	}

	var raws []rawQuestion
	if err := json.Unmarshal([]byte(arr), &raws); err != nil {
		return nil, &ExtractionError{Reason: "malformed questions array", Err: err}
	}

	out := make([]quiz.Question, 0, len(raws))
	for _, r := range raws {
		text := r.Question
		if text == "" {
			text = r.Text
		}
		if strings.TrimSpace(text) == "" {
			// Items without a prompt are dropped, not fatal to the batch.
			continue
		}
		answers := r.CorrectAnswers
		if len(answers) == 0 && r.CorrectAnswer != "" {
			answers = []string{r.CorrectAnswer}
		}
		out = append(out, quiz.Question{
			ID:             uuid.NewString(),
			Text:           text,
			Type:           mapQuestionType(r.Type),
			Options:        r.Options,
			CorrectAnswers: answers,
			Explanation:    r.Explanation,
			AIGenerated:    true,
		})
	}
	if len(out) == 0 {
		return nil, &ExtractionError{Reason: "reply contained no usable questions"}
	}
	return out, nil
}

// mapQuestionType tolerantly maps model type strings onto the model. Anything
// unrecognized is treated as multiple choice.
func mapQuestionType(s string) quiz.QuestionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true_false", "true/false":
		return quiz.TypeTrueFalse
	case "short_answer", "short answer":
		return quiz.TypeShortAnswer
	default:
		return quiz.TypeMultipleChoice
	}
}

// stripFences removes markdown code-fence markers so they cannot interfere
// with bracket scanning.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// firstBracket returns the index and kind of the earliest '{' or '['.
func firstBracket(s string) (int, byte) {
	obj := strings.IndexByte(s, '{')
	arr := strings.IndexByte(s, '[')
	switch {
	case obj < 0 && arr < 0:
		return -1, 0
	case obj < 0:
		return arr, '['
	case arr < 0 || obj < arr:
		return obj, '{'
	default:
		return arr, '['
	}
}

// balancedSlice scans forward from start counting matching braces and
// brackets, skipping string literals and escapes, and returns the exact
// substring of the complete JSON value.
func balancedSlice(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
