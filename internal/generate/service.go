package generate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

const (
	defaultAITimeout    = 90 * time.Second
	defaultMaxAttempts  = 3
	defaultPassingScore = 70
)

// Service coordinates AI generation with the deterministic fallback. It
// always produces a usable draft quiz unless count is non-positive.
type Service struct {
	ai       Completer // nil disables the AI path entirely
	fallback *Fallback
	timeout  time.Duration
}

type Option func(*Service)

// WithTimeout overrides the overall AI generation deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(ai Completer, opts ...Option) *Service {
	s := &Service{
		ai:       ai,
		fallback: NewFallback(),
		timeout:  defaultAITimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GenerateQuiz builds an unpublished draft. The AI call runs under the
// service deadline; on timeout, transport failure, or an unusable reply the
// template generator takes over. The draft is held in memory only; the
// author may discard or edit it before publishing.
func (s *Service) GenerateQuiz(ctx context.Context, req GenerateRequest) (*quiz.Quiz, error) {
	if req.Count <= 0 {
		return nil, &GenerationError{Op: "request", Err: fmt.Errorf("question count must be positive, got %d", req.Count)}
	}
	if req.Difficulty == "" {
		req.Difficulty = quiz.DifficultyMedium
	}

	questions, aiGenerated := s.tryAI(ctx, req)
	if !aiGenerated {
		questions = s.fallback.Generate(req.Topic, req.Count, req.Difficulty)
	}
	if len(questions) == 0 {
		return nil, &GenerationError{Op: "fallback", Err: fmt.Errorf("no questions produced for topic %q", req.Topic)}
	}

	title := fmt.Sprintf("%s Quiz", req.Topic)
	description := fmt.Sprintf("An AI-generated quiz covering %s.", req.Topic)
	if !aiGenerated {
		title = fmt.Sprintf("%s Practice Quiz", req.Topic)
		description = fmt.Sprintf("A practice quiz on %s built from the offline question bank.", req.Topic)
	}

	z, err := quiz.NewQuiz(uuid.NewString(), title, description, req.CourseID, req.AuthorID, questions)
	if err != nil {
		return nil, err
	}
	z.TimeLimitMinutes = req.Count * 2
	z.MaxAttempts = defaultMaxAttempts
	z.PassingScore = defaultPassingScore
	z.Difficulty = req.Difficulty
	z.AIGenerated = aiGenerated
	z.CreatedAt = time.Now().Unix()
	return z, nil
}

// tryAI runs the adapter + extractor under the deadline. Any failure is
// logged and answered with (nil, false); the caller falls back. If the
// deadline elapses the in-flight call is abandoned, not awaited.
func (s *Service) tryAI(ctx context.Context, req GenerateRequest) ([]quiz.Question, bool) {
	if s.ai == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.ai.Complete(ctx, buildPrompt(req))
	if err != nil {
		log.Printf("ai generation failed for topic %q, using fallback: %v", req.Topic, err)
		return nil, false
	}
	questions, err := ExtractQuestions(raw)
	if err != nil {
		log.Printf("ai reply unusable for topic %q, using fallback: %v", req.Topic, err)
		return nil, false
	}

	points := quiz.PointsFor(req.Difficulty)
	usable := questions[:0]
	for _, q := range questions {
		q.Points = points
		q.Difficulty = req.Difficulty
		if err := q.Validate(); err != nil {
			log.Printf("dropping invalid ai question: %v", err)
			continue
		}
		usable = append(usable, q)
	}
	if len(usable) == 0 {
		return nil, false
	}
	if len(usable) > req.Count {
		usable = usable[:req.Count]
	}
	return usable, true
}
