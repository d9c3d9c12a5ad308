package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// AnswerKeyCache caches the question set of each quiz with a TTL to avoid
// repeated store hits while a quiz is being taken.
type AnswerKeyCache struct {
	loader app.AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedKey
}

type cachedKey struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewAnswerKeyCache(loader app.AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedKey),
	}
}

func (c *AnswerKeyCache) GetAnswerKey(ctx context.Context, quizID string) ([]domain.Question, error) {
	if questions, ok := c.lookup(quizID); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if questions, ok := c.lookup(quizID); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if c.ttl <= 0 {
			return questions, nil
		}

		c.mu.Lock()
		c.cache[quizID] = cachedKey{
			questions: questions,
			expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuestions(result.([]domain.Question)), nil
}

// Invalidate drops the cached entry so the next read goes to the store.
func (c *AnswerKeyCache) Invalidate(_ context.Context, quizID string) error {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.mu.Unlock()
	return nil
}

func (c *AnswerKeyCache) lookup(quizID string) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return copyQuestions(entry.questions), true
}

func (c *AnswerKeyCache) ttlWithJitterLocked() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StoreLoader reads answer keys straight from an app.QuestionStore.
type StoreLoader struct {
	questions app.QuestionStore
}

func NewStoreLoader(questions app.QuestionStore) *StoreLoader {
	return &StoreLoader{questions: questions}
}

func (l *StoreLoader) LoadAnswerKey(ctx context.Context, quizID string) ([]domain.Question, error) {
	return l.questions.ListQuestions(ctx, quizID)
}

func copyQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Choices = append([]domain.Choice(nil), q.Choices...)
		out[i] = q
	}
	return out
}
