package attempt

import (
	"strings"
	"sync"
	"time"

	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/quiz"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
	StateTimedOut   State = "timed_out"
)

type Direction string

const (
	DirNext     Direction = "next"
	DirPrevious Direction = "previous"
)

// Clock is injectable time for tests.
type Clock func() time.Time

// Session drives one learner through one quiz attempt. All transitions,
// user-initiated and timer-initiated alike, are serialized behind a single
// mutex so a manual submit and an expiry can never both score the attempt.
type Session struct {
	mu        sync.Mutex
	quiz      *quiz.Quiz
	attempt   quiz.Attempt
	state     State
	idx       int
	deadline  time.Time // zero when the quiz is untimed
	countdown *countdown
	engine    *grading.Engine
	now       Clock
	tick      time.Duration
	onExpired func(quiz.Attempt, grading.Result)
	result    *grading.Result
}

func newSession(z *quiz.Quiz, att quiz.Attempt, engine *grading.Engine, now Clock, tick time.Duration, onExpired func(quiz.Attempt, grading.Result)) *Session {
	if now == nil {
		now = time.Now
	}
	if tick <= 0 {
		tick = time.Second
	}
	att.Answers = map[string][]string{}
	return &Session{
		quiz:      z,
		attempt:   att,
		state:     StateNotStarted,
		engine:    engine,
		now:       now,
		tick:      tick,
		onExpired: onExpired,
	}
}

// Start transitions NotStarted -> InProgress, records the start timestamp,
// and begins the countdown when the quiz is timed.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNotStarted {
		return &quiz.StateError{Op: "start", Reason: "attempt already started"}
	}
	s.state = StateInProgress
	s.attempt.Status = quiz.AttemptInProgress
	s.attempt.StartedAt = s.now().Unix()
	if s.quiz.TimeLimitMinutes > 0 {
		s.deadline = s.now().Add(time.Duration(s.quiz.TimeLimitMinutes) * time.Minute)
		s.countdown = startCountdown(s.tick, s.remaining, s.expire)
	}
	return nil
}

// CurrentQuestion returns the learner-safe question under the cursor plus
// any previously captured answer so the UI can restore it.
func (s *Session) CurrentQuestion() (quiz.Question, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return quiz.Question{}, nil, &quiz.StateError{Op: "current", Reason: "attempt not in progress"}
	}
	q := s.quiz.Questions[s.idx]
	q.CorrectAnswers = nil
	q.Explanation = ""
	return q, s.attempt.Answers[q.ID], nil
}

// SubmitAnswer captures the answer for the question under the cursor.
// Answers are checked only for non-emptiness here; an all-blank submission
// is not recorded and the question stays unanswered.
func (s *Session) SubmitAnswer(answer []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return &quiz.StateError{Op: "answer", Reason: "attempt not in progress"}
	}
	trimmed := make([]string, 0, len(answer))
	for _, a := range answer {
		if strings.TrimSpace(a) != "" {
			trimmed = append(trimmed, a)
		}
	}
	if len(trimmed) == 0 {
		return nil
	}
	s.attempt.Answers[s.quiz.Questions[s.idx].ID] = trimmed
	return nil
}

// Advance moves the cursor. previous at index 0 is a no-op; next at the last
// index is refused; submission is offered there instead.
func (s *Session) Advance(dir Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return &quiz.StateError{Op: "advance", Reason: "attempt not in progress"}
	}
	switch dir {
	case DirPrevious:
		if s.idx > 0 {
			s.idx--
		}
		return nil
	case DirNext:
		if s.idx >= len(s.quiz.Questions)-1 {
			return &quiz.StateError{Op: "advance", Reason: "already at last question"}
		}
		s.idx++
		return nil
	default:
		return &quiz.StateError{Op: "advance", Reason: "unknown direction " + string(dir)}
	}
}

// Finalize is the explicit submission path: it stops the countdown, scores
// the attempt, and transitions to Submitted. Scoring happens at most once;
// finalizing a terminal attempt is a StateError.
func (s *Session) Finalize() (grading.Result, quiz.Attempt, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return grading.Result{}, quiz.Attempt{}, &quiz.StateError{Op: "submit", Reason: "attempt already finalized"}
	}
	res, att := s.finalizeLocked(quiz.AttemptSubmitted)
	s.mu.Unlock()
	return res, att, nil
}

// expire is the countdown's terminal callback: an unconditional auto-submit.
// If a manual submit won the race, this is a no-op.
func (s *Session) expire() {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	res, att := s.finalizeLocked(quiz.AttemptTimedOut)
	onExpired := s.onExpired
	s.mu.Unlock()
	if onExpired != nil {
		onExpired(att, res)
	}
}

func (s *Session) finalizeLocked(status quiz.AttemptStatus) (grading.Result, quiz.Attempt) {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	if status == quiz.AttemptTimedOut {
		s.state = StateTimedOut
	} else {
		s.state = StateSubmitted
	}
	res := s.engine.Score(s.quiz, s.attempt.Answers)
	s.attempt.Status = status
	s.attempt.CompletedAt = s.now().Unix()
	s.attempt.CorrectCount = res.CorrectCount
	s.attempt.EarnedPoints = res.EarnedPoints
	s.attempt.TotalPoints = res.TotalPoints
	s.attempt.Percentage = res.Percentage
	s.attempt.Passed = res.Passed
	s.result = &res
	return res, s.snapshotLocked()
}

func (s *Session) snapshotLocked() quiz.Attempt {
	att := s.attempt
	att.Answers = make(map[string][]string, len(s.attempt.Answers))
	for k, v := range s.attempt.Answers {
		att.Answers[k] = append([]string(nil), v...)
	}
	return att
}

// RemainingSeconds reports the countdown. Untimed quizzes return -1; expired
// or finalized attempts return 0.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deadline.IsZero() {
		return -1
	}
	if s.state != StateInProgress {
		return 0
	}
	left := s.remaining()
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (s *Session) remaining() time.Duration {
	return s.deadline.Sub(s.now())
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the score once the attempt is terminal.
func (s *Session) Result() (grading.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return grading.Result{}, false
	}
	return *s.result, true
}

// Attempt returns a snapshot of the attempt record.
func (s *Session) Attempt() quiz.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// countdown is a cancellable scheduled task: it checks the remaining time on
// every tick and fires onExpire exactly once when it reaches zero. Stop makes
// any pending fire a no-op from the session's perspective because expiry is
// re-checked under the session lock.
type countdown struct {
	stopCh chan struct{}
	once   sync.Once
}

func startCountdown(interval time.Duration, remaining func() time.Duration, onExpire func()) *countdown {
	c := &countdown{stopCh: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if remaining() <= 0 {
					onExpire()
					return
				}
			case <-c.stopCh:
				return
			}
		}
	}()
	return c
}

func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}
