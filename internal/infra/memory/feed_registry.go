package memory

import (
	"context"
	"sync"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// FeedRegistry is a single-process app.FeedRepository. Subscribing and the
// removal of an emptied feed happen under one lock, so a feed is never
// dropped while a watcher is being added to it.
type FeedRegistry struct {
	mu    sync.Mutex
	feeds map[string]*app.Feed
}

func NewFeedRegistry() *FeedRegistry {
	return &FeedRegistry{
		feeds: make(map[string]*app.Feed),
	}
}

func (r *FeedRegistry) Subscribe(_ context.Context, quizID string, initial domain.Stats) (<-chan domain.Stats, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	feed, ok := r.feeds[quizID]
	if !ok {
		feed = app.NewFeed(quizID)
		r.feeds[quizID] = feed
	}
	ch, unsubscribe := feed.Subscribe(initial)

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		unsubscribe()
		if feed.IsEmpty() && r.feeds[quizID] == feed {
			delete(r.feeds, quizID)
		}
	}
	return ch, cancel, nil
}

func (r *FeedRegistry) Publish(_ context.Context, quizID string, stats domain.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feed, ok := r.feeds[quizID]; ok {
		feed.Publish(stats)
	}
	return nil
}

func (r *FeedRegistry) Watched(_ context.Context, quizID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[quizID]
	return ok && !feed.IsEmpty(), nil
}
