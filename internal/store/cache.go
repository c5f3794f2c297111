package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

const quizCacheTTL = 24 * time.Hour

// QuizCache keeps published quizzes in Redis so attempt starts do not hit the
// document store on every read.
type QuizCache struct {
	client *redis.Client
}

func NewQuizCache(addr string) *QuizCache {
	return &QuizCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (c *QuizCache) Set(ctx context.Context, z *quiz.Quiz) error {
	data, err := json.Marshal(z)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "quiz:"+z.ID, data, quizCacheTTL).Err()
}

func (c *QuizCache) Get(ctx context.Context, id string) (*quiz.Quiz, error) {
	data, err := c.client.Get(ctx, "quiz:"+id).Bytes()
	if err != nil {
		return nil, err
	}
	var z quiz.Quiz
	if err := json.Unmarshal(data, &z); err != nil {
		return nil, err
	}
	return &z, nil
}
