package grading

import (
	"strings"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

// Result is the single source of truth for an attempt's score. It is written
// once into the attempt record; the UI reads the same tuple.
type Result struct {
	CorrectCount int             `json:"correct_count"`
	TotalPoints  int             `json:"total_points"`
	EarnedPoints int             `json:"earned_points"`
	Percentage   float64         `json:"percentage"`
	Passed       bool            `json:"passed"`
	PerQuestion  map[string]bool `json:"per_question"`
}

// Strategy decides correctness for a single question type.
type Strategy interface {
	Correct(q quiz.Question, answer []string) bool
}

// Engine routes each question to the strategy for its type.
type Engine struct {
	strategies map[quiz.QuestionType]Strategy
}

func NewEngine() *Engine {
	return &Engine{
		strategies: map[quiz.QuestionType]Strategy{
			quiz.TypeMultipleChoice: exactMatchStrategy{},
			quiz.TypeTrueFalse:      exactMatchStrategy{},
			quiz.TypeShortAnswer:    containmentStrategy{},
		},
	}
}

// Score grades every question in the quiz against the submitted answers.
// Unanswered questions count as incorrect, never skipped from the
// denominator.
func (e *Engine) Score(z *quiz.Quiz, answers map[string][]string) Result {
	res := Result{PerQuestion: make(map[string]bool, len(z.Questions))}
	for _, q := range z.Questions {
		res.TotalPoints += q.Points
		answer, answered := answers[q.ID]
		correct := false
		if answered {
			if s, ok := e.strategies[q.Type]; ok {
				correct = s.Correct(q, answer)
			}
		}
		res.PerQuestion[q.ID] = correct
		if correct {
			res.CorrectCount++
			res.EarnedPoints += q.Points
		}
	}
	if res.TotalPoints > 0 {
		res.Percentage = float64(res.EarnedPoints) / float64(res.TotalPoints) * 100
	}
	res.Passed = res.Percentage >= float64(z.PassingScore)
	return res
}

// exactMatchStrategy: the single submitted string must equal the first
// accepted answer exactly, case included.
type exactMatchStrategy struct{}

func (exactMatchStrategy) Correct(q quiz.Question, answer []string) bool {
	if len(answer) == 0 || len(q.CorrectAnswers) == 0 {
		return false
	}
	return answer[0] == q.CorrectAnswers[0]
}

// containmentStrategy: free text is accepted when its lower-cased form
// contains any accepted answer as a substring. Deliberately lenient so
// "I think it's the Mitochondria" matches "mitochondria".
type containmentStrategy struct{}

func (containmentStrategy) Correct(q quiz.Question, answer []string) bool {
	if len(answer) == 0 {
		return false
	}
	given := strings.ToLower(strings.Join(answer, " "))
	for _, accepted := range q.CorrectAnswers {
		accepted = strings.ToLower(strings.TrimSpace(accepted))
		if accepted != "" && strings.Contains(given, accepted) {
			return true
		}
	}
	return false
}
