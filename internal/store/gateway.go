package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/studyhall/studyhall-lms/internal/quiz"
	syncx "github.com/studyhall/studyhall-lms/internal/sync"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second

	// Watchdogs force forward progress in dependent writes even while a
	// retry loop is still running.
	quizSaveWatchdog    = 15 * time.Second
	contentSaveWatchdog = 20 * time.Second
)

// PersistenceError reports a write that exhausted its retries. Callers treat
// it as a non-fatal warning; sibling writes are not rolled back.
type PersistenceError struct {
	Collection string
	ID         string
	Attempts   int
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s/%s failed after %d attempts: %v", e.Collection, e.ID, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Gateway is the persistence façade for the quiz lifecycle: bounded
// exponential-backoff retry around the document store, watchdog-timed publish
// of dependent documents, and an event-log trail.
type Gateway struct {
	store  DocStore
	cache  *QuizCache      // optional read cache for published quizzes
	events *syncx.EventRepo // optional

	maxRetries      int
	baseDelay       time.Duration
	quizWatchdog    time.Duration
	contentWatchdog time.Duration
}

type GatewayOption func(*Gateway)

func WithQuizCache(c *QuizCache) GatewayOption {
	return func(g *Gateway) { g.cache = c }
}

func WithEventLog(r *syncx.EventRepo) GatewayOption {
	return func(g *Gateway) { g.events = r }
}

// WithBaseDelay shortens the backoff unit in tests.
func WithBaseDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.baseDelay = d }
}

// WithWatchdogs overrides the publish watchdog windows.
func WithWatchdogs(quizSave, contentSave time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.quizWatchdog = quizSave
		g.contentWatchdog = contentSave
	}
}

func NewGateway(store DocStore, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:           store,
		maxRetries:      defaultMaxRetries,
		baseDelay:       defaultBaseDelay,
		quizWatchdog:    quizSaveWatchdog,
		contentWatchdog: contentSaveWatchdog,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// SaveWithRetry writes a document, retrying up to maxRetries times with
// delays of baseDelay * 2^attempt between attempts. maxRetries <= 0 uses the
// gateway default.
func (g *Gateway) SaveWithRetry(ctx context.Context, collection, id string, doc any, maxRetries int) error {
	if maxRetries <= 0 {
		maxRetries = g.maxRetries
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.baseDelay << (attempt - 1) // 1s, 2s, 4s...
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &PersistenceError{Collection: collection, ID: id, Attempts: attempt, Err: ctx.Err()}
			}
		}
		if lastErr = g.store.Put(ctx, collection, id, doc); lastErr == nil {
			return nil
		}
		log.Printf("save %s/%s attempt %d failed: %v", collection, id, attempt+1, lastErr)
	}
	return &PersistenceError{Collection: collection, ID: id, Attempts: maxRetries + 1, Err: lastErr}
}

// saveGuarded runs SaveWithRetry but gives up waiting after the watchdog
// window and lets the caller proceed with dependent work. The first of
// {retry outcome, watchdog} to fire is authoritative; the loser is only
// logged. pending means the watchdog fired while the retry loop was still
// running. The retry runs detached from the caller's cancellation so a
// post-watchdog success still lands even after the request context ends.
func (g *Gateway) saveGuarded(ctx context.Context, collection, id string, doc any, watchdog time.Duration) (pending bool, err error) {
	done := make(chan error, 1)
	go func() {
		done <- g.SaveWithRetry(context.WithoutCancel(ctx), collection, id, doc, g.maxRetries)
	}()
	select {
	case err := <-done:
		return false, err
	case <-time.After(watchdog):
		go func() {
			if err := <-done; err != nil {
				log.Printf("background save %s/%s settled with error after watchdog: %v", collection, id, err)
			} else {
				log.Printf("background save %s/%s settled ok after watchdog", collection, id)
			}
		}()
		return true, nil
	}
}

// CourseContent is the parent document that references published quizzes by id.
type CourseContent struct {
	CourseID  string   `json:"course_id"`
	QuizIDs   []string `json:"quiz_ids"`
	UpdatedAt int64    `json:"updated_at"`
}

// PublishResult surfaces partial success instead of hiding it: the publish
// action completes even if a sub-write is still retrying in the background.
type PublishResult struct {
	QuizID        string   `json:"quiz_id"`
	QuizSaved     bool     `json:"quiz_saved"`
	ContentSaved  bool     `json:"content_saved"`
	Warnings      []string `json:"warnings,omitempty"`
}

// PublishQuiz makes a draft durable: the quiz document first, then the course
// content document that references it. Each write runs under its own
// watchdog; if the quiz write is still pending when its watchdog fires, the
// content write proceeds anyway, accepting eventual consistency over
// blocking the author.
func (g *Gateway) PublishQuiz(ctx context.Context, z *quiz.Quiz) (PublishResult, error) {
	if err := z.Validate(); err != nil {
		return PublishResult{}, err
	}
	z.Published = true

	res := PublishResult{QuizID: z.ID, QuizSaved: true, ContentSaved: true}

	pending, err := g.saveGuarded(ctx, CollectionQuizzes, z.ID, z, g.quizWatchdog)
	switch {
	case pending:
		res.QuizSaved = false
		res.Warnings = append(res.Warnings, "quiz save still pending; continuing with course content")
	case err != nil:
		res.QuizSaved = false
		res.Warnings = append(res.Warnings, err.Error())
	}

	content := g.loadCourseContent(ctx, z.CourseID)
	content.QuizIDs = appendUnique(content.QuizIDs, z.ID)
	content.UpdatedAt = time.Now().Unix()

	pending, err = g.saveGuarded(ctx, CollectionCourseContent, z.CourseID, content, g.contentWatchdog)
	switch {
	case pending:
		res.ContentSaved = false
		res.Warnings = append(res.Warnings, "course content save still pending")
	case err != nil:
		res.ContentSaved = false
		res.Warnings = append(res.Warnings, err.Error())
	}

	if g.cache != nil && res.QuizSaved {
		if err := g.cache.Set(ctx, z); err != nil {
			log.Printf("quiz cache set %s: %v", z.ID, err)
		}
	}
	if g.events != nil {
		if err := g.events.Append(ctx, syncx.EventQuizPublished, z.ID, map[string]any{
			"course_id": z.CourseID,
			"author_id": z.AuthorID,
			"warnings":  res.Warnings,
		}); err != nil {
			log.Printf("event log append: %v", err)
		}
	}
	return res, nil
}

func (g *Gateway) loadCourseContent(ctx context.Context, courseID string) CourseContent {
	var content CourseContent
	if err := g.store.Get(ctx, CollectionCourseContent, courseID, &content); err != nil {
		content = CourseContent{CourseID: courseID}
	}
	return content
}

// GetQuiz reads a published quiz, consulting the cache first when configured.
func (g *Gateway) GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	if g.cache != nil {
		if z, err := g.cache.Get(ctx, id); err == nil {
			return z, nil
		}
	}
	var z quiz.Quiz
	if err := g.store.Get(ctx, CollectionQuizzes, id, &z); err != nil {
		return nil, err
	}
	if g.cache != nil {
		if err := g.cache.Set(ctx, &z); err != nil {
			log.Printf("quiz cache set %s: %v", id, err)
		}
	}
	return &z, nil
}

// SaveAttempt persists a finalized attempt record with retry and logs the
// submission event.
func (g *Gateway) SaveAttempt(ctx context.Context, a *quiz.Attempt) error {
	err := g.SaveWithRetry(ctx, CollectionAttempts, a.ID, a, g.maxRetries)
	if g.events != nil && a.Finalized() {
		if evErr := g.events.Append(ctx, syncx.EventAttemptSubmitted, a.ID, map[string]any{
			"quiz_id":    a.QuizID,
			"learner_id": a.LearnerID,
			"percentage": a.Percentage,
			"passed":     a.Passed,
		}); evErr != nil {
			log.Printf("event log append: %v", evErr)
		}
	}
	return err
}

func (g *Gateway) GetAttempt(ctx context.Context, id string) (*quiz.Attempt, error) {
	var a quiz.Attempt
	if err := g.store.Get(ctx, CollectionAttempts, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CountAttempts returns how many finalized attempts the learner has recorded
// for the quiz. Used to enforce MaxAttempts at start time.
func (g *Gateway) CountAttempts(ctx context.Context, quizID, learnerID string) (int, error) {
	attempts, err := g.listAttempts(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range attempts {
		if a.QuizID == quizID && a.LearnerID == learnerID {
			n++
		}
	}
	return n, nil
}

// ListAttemptsByLearner returns the learner's finalized attempts, newest first.
func (g *Gateway) ListAttemptsByLearner(ctx context.Context, learnerID string) ([]quiz.Attempt, error) {
	attempts, err := g.listAttempts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]quiz.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.LearnerID == learnerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (g *Gateway) listAttempts(ctx context.Context) ([]quiz.Attempt, error) {
	raws, err := g.store.List(ctx, CollectionAttempts)
	if err != nil {
		return nil, err
	}
	out := make([]quiz.Attempt, 0, len(raws))
	for _, raw := range raws {
		var a quiz.Attempt
		if err := json.Unmarshal(raw, &a); err != nil {
			log.Printf("skipping malformed attempt document: %v", err)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
