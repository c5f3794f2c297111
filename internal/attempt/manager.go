package attempt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/quiz"
)

// Persistence is what the manager needs from the persistence gateway.
type Persistence interface {
	GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error)
	GetAttempt(ctx context.Context, id string) (*quiz.Attempt, error)
	SaveAttempt(ctx context.Context, a *quiz.Attempt) error
	CountAttempts(ctx context.Context, quizID, learnerID string) (int, error)
}

// Manager owns the live attempt sessions. A session exists from start until
// the process ends; the durable record is written only at finalization.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gw     Persistence
	engine *grading.Engine
	now    Clock
	tick   time.Duration
}

type ManagerOption func(*Manager)

// WithClock and WithTick shrink timing in tests.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) { m.now = c }
}

func WithTick(d time.Duration) ManagerOption {
	return func(m *Manager) { m.tick = d }
}

func NewManager(gw Persistence, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: map[string]*Session{},
		gw:       gw,
		engine:   grading.NewEngine(),
		now:      time.Now,
		tick:     time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start loads the quiz, enforces the attempt limit, and opens a live session.
// The returned attempt id is the handle for all subsequent calls.
func (m *Manager) Start(ctx context.Context, quizID, learnerID string) (*Session, error) {
	z, err := m.gw.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	// Revalidate on load: a stored quiz that lost its invariants (no
	// questions, broken point sum) must fail here, not inside the session.
	if err := z.Validate(); err != nil {
		return nil, err
	}
	if !z.Published {
		return nil, &quiz.StateError{Op: "start", Reason: "quiz is not published"}
	}
	if z.MaxAttempts > 0 {
		n, err := m.gw.CountAttempts(ctx, quizID, learnerID)
		if err != nil {
			return nil, err
		}
		if n >= z.MaxAttempts {
			return nil, &quiz.StateError{Op: "start", Reason: fmt.Sprintf("attempt limit of %d reached", z.MaxAttempts)}
		}
	}

	att := quiz.Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		LearnerID: learnerID,
	}
	s := newSession(z, att, m.engine, m.now, m.tick, m.persistExpired)
	if err := s.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[att.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Session returns the live session for an attempt id.
func (m *Manager) Session(attemptID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[attemptID]
	if !ok {
		return nil, &quiz.StateError{Op: "lookup", Reason: "no live session for attempt " + attemptID}
	}
	return s, nil
}

// FinalizeOutcome carries the score plus any persistence warning; a failed
// save degrades to "saved with warnings", never to a lost score.
type FinalizeOutcome struct {
	Attempt        quiz.Attempt   `json:"attempt"`
	Result         grading.Result `json:"result"`
	PersistWarning string         `json:"persist_warning,omitempty"`
}

// Finalize submits the attempt, scores it, and persists the record. Once the
// record is durable the live session is retired; repeat calls serve the
// stored result.
func (m *Manager) Finalize(ctx context.Context, attemptID string) (FinalizeOutcome, error) {
	s, err := m.Session(attemptID)
	if err != nil {
		// The session may already be retired; answer from the durable record.
		if a, gerr := m.gw.GetAttempt(ctx, attemptID); gerr == nil && a.Finalized() {
			return FinalizeOutcome{Attempt: *a, Result: resultFromAttempt(a)}, nil
		}
		return FinalizeOutcome{}, err
	}
	res, att, err := s.Finalize()
	if err != nil {
		// Already finalized (e.g. the countdown won): hand back the recorded
		// score rather than corrupting or re-scoring the attempt.
		if prev, ok := s.Result(); ok {
			return FinalizeOutcome{Attempt: s.Attempt(), Result: prev}, nil
		}
		return FinalizeOutcome{}, err
	}
	out := FinalizeOutcome{Attempt: att, Result: res}
	if err := m.gw.SaveAttempt(ctx, &att); err != nil {
		// Keep the session alive so a retry can still persist the score.
		log.Printf("attempt %s scored but not durable: %v", att.ID, err)
		out.PersistWarning = err.Error()
		return out, nil
	}
	m.retire(attemptID)
	return out, nil
}

// persistExpired stores an auto-submitted attempt from the countdown path.
func (m *Manager) persistExpired(att quiz.Attempt, _ grading.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.gw.SaveAttempt(ctx, &att); err != nil {
		log.Printf("timed-out attempt %s scored but not durable: %v", att.ID, err)
		return
	}
	m.retire(att.ID)
}

func (m *Manager) retire(attemptID string) {
	m.mu.Lock()
	delete(m.sessions, attemptID)
	m.mu.Unlock()
}

// resultFromAttempt rebuilds the score tuple from a stored record. The
// per-question breakdown is not persisted, so it is absent here.
func resultFromAttempt(a *quiz.Attempt) grading.Result {
	return grading.Result{
		CorrectCount: a.CorrectCount,
		TotalPoints:  a.TotalPoints,
		EarnedPoints: a.EarnedPoints,
		Percentage:   a.Percentage,
		Passed:       a.Passed,
	}
}
