package grading

import (
	"testing"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

func testQuiz(passing int, questions ...quiz.Question) *quiz.Quiz {
	z, err := quiz.NewQuiz("z1", "T", "", "c1", "a1", questions)
	if err != nil {
		panic(err)
	}
	z.PassingScore = passing
	return z
}

func mcq(id, correct string) quiz.Question {
	return quiz.Question{
		ID: id, Text: "pick one", Type: quiz.TypeMultipleChoice,
		Options: []string{"A", "B", "C", "D"}, CorrectAnswers: []string{correct},
		Points: 1, Difficulty: quiz.DifficultyEasy,
	}
}

func short(id string, accepted ...string) quiz.Question {
	return quiz.Question{
		ID: id, Text: "explain", Type: quiz.TypeShortAnswer,
		CorrectAnswers: accepted, Points: 2, Difficulty: quiz.DifficultyMedium,
	}
}

func TestExactMatchIsCaseSensitive(t *testing.T) {
	e := NewEngine()
	z := testQuiz(50, mcq("q1", "B"))

	res := e.Score(z, map[string][]string{"q1": {"B"}})
	if !res.PerQuestion["q1"] || res.CorrectCount != 1 {
		t.Fatalf("exact match failed: %+v", res)
	}

	res = e.Score(z, map[string][]string{"q1": {"b"}})
	if res.PerQuestion["q1"] {
		t.Fatalf("case-mismatched answer marked correct")
	}
}

func TestContainmentMatchForShortAnswer(t *testing.T) {
	e := NewEngine()
	z := testQuiz(50, short("q1", "mitochondria"))

	res := e.Score(z, map[string][]string{"q1": {"I think it's the Mitochondria of the cell"}})
	if !res.PerQuestion["q1"] {
		t.Fatalf("containment match failed: %+v", res)
	}

	res = e.Score(z, map[string][]string{"q1": {"the nucleus"}})
	if res.PerQuestion["q1"] {
		t.Fatalf("wrong free-text answer marked correct")
	}
}

func TestUnansweredCountsInDenominator(t *testing.T) {
	e := NewEngine()
	z := testQuiz(50, mcq("q1", "A"), mcq("q2", "B"))

	res := e.Score(z, map[string][]string{"q1": {"A"}})
	if res.TotalPoints != 2 || res.EarnedPoints != 1 {
		t.Fatalf("unanswered question skipped: %+v", res)
	}
	if res.Percentage != 50 {
		t.Fatalf("Percentage = %v, want 50", res.Percentage)
	}
	if !res.Passed {
		t.Fatalf("50%% should pass with threshold 50")
	}
}

func TestZeroTotalPointsScoresZeroPercent(t *testing.T) {
	e := NewEngine()
	z := &quiz.Quiz{ID: "z1", PassingScore: 70}
	res := e.Score(z, nil)
	if res.Percentage != 0 {
		t.Fatalf("Percentage = %v, want 0", res.Percentage)
	}
	if res.Passed {
		t.Fatalf("empty quiz passed a 70%% threshold")
	}
}

func TestPassThreshold(t *testing.T) {
	e := NewEngine()
	z := testQuiz(70, mcq("q1", "A"), mcq("q2", "B"), mcq("q3", "C"))

	// 2 of 3 is about 66.7%, just under the threshold.
	res := e.Score(z, map[string][]string{"q1": {"A"}, "q2": {"B"}, "q3": {"D"}})
	if res.Passed {
		t.Fatalf("66.7%% should not pass at 70")
	}

	res = e.Score(z, map[string][]string{"q1": {"A"}, "q2": {"B"}, "q3": {"C"}})
	if !res.Passed || res.Percentage != 100 {
		t.Fatalf("full marks should pass: %+v", res)
	}
}

func TestPointsWeighting(t *testing.T) {
	e := NewEngine()
	z := testQuiz(50, mcq("q1", "A"), short("q2", "gravity"))

	res := e.Score(z, map[string][]string{"q2": {"because of gravity"}})
	if res.EarnedPoints != 2 || res.TotalPoints != 3 {
		t.Fatalf("weighting wrong: %+v", res)
	}
	if res.CorrectCount != 1 {
		t.Fatalf("CorrectCount = %d, want 1", res.CorrectCount)
	}
}
