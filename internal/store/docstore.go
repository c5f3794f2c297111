package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collections used by the quiz lifecycle.
const (
	CollectionQuizzes       = "quizzes"
	CollectionAttempts      = "quiz_attempts"
	CollectionCourseContent = "course_content"
)

// ErrNotFound reports a missing document.
type ErrNotFound struct {
	Collection string
	ID         string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s/%s not found", e.Collection, e.ID)
}

// DocStore is the durable document store boundary: upsert-by-id and
// get-by-id over (collection, id), JSON documents. The engine treats it as
// opaque with its own consistency guarantees.
type DocStore interface {
	Put(ctx context.Context, collection, id string, doc any) error
	Get(ctx context.Context, collection, id string, out any) error
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
}
