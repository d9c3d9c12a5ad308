package app

import (
	"sync"
	"time"

	"quizhub-service/internal/domain"
)

// Feed fans out results snapshots of one quiz to the watchers connected to
// this process. FeedRepository implementations own the feeds.
type Feed struct {
	quizID      string
	mu          sync.Mutex
	latest      domain.Stats
	subscribers map[chan domain.Stats]struct{}
}

func NewFeed(quizID string) *Feed {
	return &Feed{
		quizID:      quizID,
		subscribers: make(map[chan domain.Stats]struct{}),
	}
}

// IsEmpty reports whether nobody is watching.
func (f *Feed) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}

// Latest returns the most recently published snapshot.
func (f *Feed) Latest() domain.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Publish stamps stats and pushes them to every watcher.
func (f *Feed) Publish(stats domain.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = f.stampLocked(stats)
	f.broadcastLocked(f.latest)
}

// Subscribe adds a watcher whose channel already holds initial. The cancel
// function closes the channel and is safe to call twice.
func (f *Feed) Subscribe(initial domain.Stats) (<-chan domain.Stats, func()) {
	ch := make(chan domain.Stats, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	ch <- f.stampLocked(initial)
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) stampLocked(stats domain.Stats) domain.Stats {
	stats.QuizID = f.quizID
	if stats.UpdatedAt.IsZero() {
		stats.UpdatedAt = time.Now()
	}
	return stats
}

func (f *Feed) broadcastLocked(stats domain.Stats) {
	for ch := range f.subscribers {
		select {
		case ch <- stats:
		default:
			// slow watcher: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
}
