package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

// AnswerKeyCache caches answer keys in Redis and falls back to a loader on miss.
// Each quiz is one hash: HSET quiz:{quizID}:answer_key {questionID} {question JSON}
type AnswerKeyCache struct {
	client *redis.Client
	loader app.AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, loader app.AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) GetAnswerKey(ctx context.Context, quizID string) ([]domain.Question, error) {
	if questions, ok := c.lookup(ctx, quizID); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if questions, ok := c.lookup(ctx, quizID); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if err := c.fill(ctx, quizID, questions); err != nil {
			logger.WithContext(ctx).WithError(err).WithField("quiz_id", quizID).Warn("answer key cache fill failed")
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate removes the cached hash of a quiz.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, quizID string) error {
	if err := c.client.Del(ctx, answerKeyKey(quizID)).Err(); err != nil {
		return fmt.Errorf("invalidate answer key: %w", err)
	}
	return nil
}

// lookup treats any Redis or decode failure as a miss.
func (c *AnswerKeyCache) lookup(ctx context.Context, quizID string) ([]domain.Question, bool) {
	fields, err := c.client.HGetAll(ctx, answerKeyKey(quizID)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	questions := make([]domain.Question, 0, len(fields))
	for _, raw := range fields {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
			return questions[i].CreatedAt.Before(questions[j].CreatedAt)
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, true
}

func (c *AnswerKeyCache) fill(ctx context.Context, quizID string, questions []domain.Question) error {
	if len(questions) == 0 || c.ttl <= 0 {
		return nil
	}

	key := answerKeyKey(quizID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		pipe.HSet(ctx, key, q.ID, raw)
	}
	pipe.Expire(ctx, key, c.ttlWithJitter())
	_, err := pipe.Exec(ctx)
	return err
}

func answerKeyKey(quizID string) string {
	return "quiz:" + quizID + ":answer_key"
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
