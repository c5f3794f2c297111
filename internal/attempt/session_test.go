package attempt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/quiz"
)

func threeQuestionQuiz(t *testing.T, timeLimitMinutes int) *quiz.Quiz {
	t.Helper()
	z, err := quiz.NewQuiz("z1", "T", "", "c1", "a1", []quiz.Question{
		{ID: "q1", Text: "pick", Type: quiz.TypeMultipleChoice, Options: []string{"A", "B"},
			CorrectAnswers: []string{"A"}, Points: 1, Difficulty: quiz.DifficultyEasy},
		{ID: "q2", Text: "t or f", Type: quiz.TypeTrueFalse, Options: []string{"True", "False"},
			CorrectAnswers: []string{"True"}, Points: 1, Difficulty: quiz.DifficultyEasy},
		{ID: "q3", Text: "explain", Type: quiz.TypeShortAnswer,
			CorrectAnswers: []string{"gravity"}, Points: 1, Difficulty: quiz.DifficultyEasy},
	})
	if err != nil {
		t.Fatalf("NewQuiz: %v", err)
	}
	z.Published = true
	z.PassingScore = 60
	z.MaxAttempts = 3
	z.TimeLimitMinutes = timeLimitMinutes
	return z
}

func newTestSession(t *testing.T, z *quiz.Quiz, tick time.Duration, onExpired func(quiz.Attempt, grading.Result)) *Session {
	t.Helper()
	s := newSession(z, quiz.Attempt{ID: "a1", QuizID: z.ID, LearnerID: "alice"},
		grading.NewEngine(), time.Now, tick, onExpired)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestNavigationBoundsAndCapture(t *testing.T) {
	s := newTestSession(t, threeQuestionQuiz(t, 0), 0, nil)

	// previous at index 0 is a no-op
	if err := s.Advance(DirPrevious); err != nil {
		t.Fatalf("previous at 0 should be a no-op: %v", err)
	}

	if err := s.SubmitAnswer([]string{"A"}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.Advance(DirNext); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := s.Advance(DirNext); err != nil {
		t.Fatalf("next: %v", err)
	}
	// next at last index is refused
	if err := s.Advance(DirNext); err == nil {
		t.Fatalf("next at last index must be refused")
	}

	// revisiting restores the captured answer
	if err := s.Advance(DirPrevious); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if err := s.Advance(DirPrevious); err != nil {
		t.Fatalf("previous: %v", err)
	}
	q, saved, err := s.CurrentQuestion()
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}
	if q.ID != "q1" {
		t.Fatalf("cursor at %s, want q1", q.ID)
	}
	if len(saved) != 1 || saved[0] != "A" {
		t.Fatalf("saved answer not restored: %v", saved)
	}
	if q.CorrectAnswers != nil {
		t.Fatalf("answer key leaked to learner view")
	}
}

func TestEmptyAnswersAreNotRecorded(t *testing.T) {
	s := newTestSession(t, threeQuestionQuiz(t, 0), 0, nil)

	if err := s.SubmitAnswer([]string{"  ", ""}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	att := s.Attempt()
	if len(att.Answers) != 0 {
		t.Fatalf("blank answer was recorded: %+v", att.Answers)
	}
}

func TestFinalizeScoresOnce(t *testing.T) {
	s := newTestSession(t, threeQuestionQuiz(t, 0), 0, nil)

	_ = s.SubmitAnswer([]string{"A"})
	_ = s.Advance(DirNext)
	_ = s.SubmitAnswer([]string{"True"})

	res, att, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if att.Status != quiz.AttemptSubmitted {
		t.Fatalf("Status = %s, want submitted", att.Status)
	}
	if res.EarnedPoints != 2 || res.TotalPoints != 3 {
		t.Fatalf("score wrong: %+v", res)
	}
	if !res.Passed { // 66.7 >= 60
		t.Fatalf("should pass at 60%% threshold")
	}

	if _, _, err := s.Finalize(); err == nil {
		t.Fatalf("second finalize must be a StateError")
	}
	var serr *quiz.StateError
	_, _, err = s.Finalize()
	if !errors.As(err, &serr) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestCountdownAutoSubmitsExactlyOnce(t *testing.T) {
	z := threeQuestionQuiz(t, 5)

	var mu sync.Mutex
	expired := 0
	done := make(chan struct{})
	onExpired := func(att quiz.Attempt, res grading.Result) {
		mu.Lock()
		expired++
		mu.Unlock()
		close(done)
	}

	// Clock that runs far ahead on the second read so the first tick sees the
	// deadline already passed.
	start := time.Now()
	reads := 0
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		reads++
		if reads <= 2 { // Start() reads twice: timestamp + deadline base
			return start
		}
		return start.Add(10 * time.Minute)
	}

	s := newSession(z, quiz.Attempt{ID: "a1", QuizID: z.ID, LearnerID: "alice"},
		grading.NewEngine(), clock, 5*time.Millisecond, onExpired)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("countdown never expired")
	}

	if s.State() != StateTimedOut {
		t.Fatalf("State = %s, want timed_out", s.State())
	}
	att := s.Attempt()
	if att.Status != quiz.AttemptTimedOut {
		t.Fatalf("attempt status = %s, want timed_out", att.Status)
	}
	// the scored result exists even though nothing was answered
	if res, ok := s.Result(); !ok || res.TotalPoints != 3 || res.EarnedPoints != 0 {
		t.Fatalf("timed-out attempt not scored: %+v ok=%v", res, ok)
	}

	// a late manual submit is rejected, not double-scored
	if _, _, err := s.Finalize(); err == nil {
		t.Fatalf("manual submit after timeout must fail")
	}
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if expired != 1 {
		t.Fatalf("expiry fired %d times, want 1", expired)
	}
}

func TestManualSubmitStopsCountdown(t *testing.T) {
	z := threeQuestionQuiz(t, 5)
	expired := make(chan struct{}, 1)
	s := newSession(z, quiz.Attempt{ID: "a1", QuizID: z.ID, LearnerID: "alice"},
		grading.NewEngine(), time.Now, time.Millisecond,
		func(quiz.Attempt, grading.Result) { expired <- struct{}{} })
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	select {
	case <-expired:
		t.Fatalf("countdown expired after manual submit")
	case <-time.After(20 * time.Millisecond):
	}
	if s.RemainingSeconds() != 0 {
		t.Fatalf("finalized timed attempt should report 0 remaining")
	}
}

func TestRemainingSecondsUnlimited(t *testing.T) {
	s := newTestSession(t, threeQuestionQuiz(t, 0), 0, nil)
	if s.RemainingSeconds() != -1 {
		t.Fatalf("untimed quiz should report -1")
	}
}

// fakePersistence implements Persistence over maps.
type fakePersistence struct {
	mu       sync.Mutex
	quizzes  map[string]*quiz.Quiz
	attempts map[string]quiz.Attempt
	saves    int
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{
		quizzes:  map[string]*quiz.Quiz{},
		attempts: map[string]quiz.Attempt{},
	}
}

func (f *fakePersistence) GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	z, ok := f.quizzes[id]
	if !ok {
		return nil, errors.New("quiz not found")
	}
	return z, nil
}

func (f *fakePersistence) GetAttempt(ctx context.Context, id string) (*quiz.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, errors.New("attempt not found")
	}
	return &a, nil
}

func (f *fakePersistence) SaveAttempt(ctx context.Context, a *quiz.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.attempts[a.ID] = *a
	return nil
}

func (f *fakePersistence) CountAttempts(ctx context.Context, quizID, learnerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.attempts {
		if a.QuizID == quizID && a.LearnerID == learnerID {
			n++
		}
	}
	return n, nil
}

func TestManagerStartEnforcesPublishAndLimit(t *testing.T) {
	fp := newFakePersistence()
	z := threeQuestionQuiz(t, 0)
	z.Published = false
	fp.quizzes["z1"] = z
	m := NewManager(fp)

	if _, err := m.Start(context.Background(), "z1", "alice"); err == nil {
		t.Fatalf("unpublished quiz must not be administrable")
	}

	z.Published = true
	z.MaxAttempts = 1
	fp.attempts["prev"] = quiz.Attempt{ID: "prev", QuizID: "z1", LearnerID: "alice", Status: quiz.AttemptSubmitted}
	if _, err := m.Start(context.Background(), "z1", "alice"); err == nil {
		t.Fatalf("attempt limit not enforced")
	}
	if _, err := m.Start(context.Background(), "z1", "bob"); err != nil {
		t.Fatalf("limit must be per learner: %v", err)
	}
}

func TestManagerStartRejectsQuizWithoutQuestions(t *testing.T) {
	fp := newFakePersistence()
	// A stored document that lost its questions must fail at start, before a
	// session cursor could ever point at it.
	fp.quizzes["z1"] = &quiz.Quiz{ID: "z1", Title: "T", CourseID: "c1", AuthorID: "a1", Published: true}
	m := NewManager(fp)

	_, err := m.Start(context.Background(), "z1", "alice")
	var verr *quiz.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for empty quiz, got %v", err)
	}
}

func TestManagerFinalizePersistsAttempt(t *testing.T) {
	fp := newFakePersistence()
	fp.quizzes["z1"] = threeQuestionQuiz(t, 0)
	m := NewManager(fp)

	s, err := m.Start(context.Background(), "z1", "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	attemptID := s.Attempt().ID
	_ = s.SubmitAnswer([]string{"A"})

	out, err := m.Finalize(context.Background(), attemptID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if out.Result.EarnedPoints != 1 {
		t.Fatalf("score wrong: %+v", out.Result)
	}
	if out.PersistWarning != "" {
		t.Fatalf("unexpected warning: %s", out.PersistWarning)
	}
	if fp.saves != 1 {
		t.Fatalf("attempt persisted %d times, want 1", fp.saves)
	}

	// the durable attempt no longer needs a live session
	if _, err := m.Session(attemptID); err == nil {
		t.Fatalf("finalized session still registered")
	}

	// finalizing again serves the stored record, no re-scoring, no re-save
	again, err := m.Finalize(context.Background(), attemptID)
	if err != nil {
		t.Fatalf("repeat finalize: %v", err)
	}
	if again.Result.EarnedPoints != out.Result.EarnedPoints || !again.Attempt.Finalized() {
		t.Fatalf("repeat finalize did not serve the stored record: %+v", again)
	}
	if fp.saves != 1 {
		t.Fatalf("repeat finalize re-saved the attempt")
	}
}
