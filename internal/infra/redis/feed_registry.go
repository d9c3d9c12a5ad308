package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// FeedRegistry is an app.FeedRepository shared by every instance on the same
// Redis. Snapshots are published on quiz:results_feed:{id}; each instance
// holds one subscription per watched quiz and fans messages out to its local
// watchers.
type FeedRegistry struct {
	client *redis.Client

	mu    sync.Mutex
	feeds map[string]*feedSubscription
}

type feedSubscription struct {
	feed   *app.Feed
	pubsub *redis.PubSub
}

func NewFeedRegistry(client *redis.Client) *FeedRegistry {
	return &FeedRegistry{
		client: client,
		feeds:  make(map[string]*feedSubscription),
	}
}

func (r *FeedRegistry) Subscribe(ctx context.Context, quizID string, initial domain.Stats) (<-chan domain.Stats, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.feeds[quizID]
	if !ok {
		pubsub := r.client.Subscribe(context.WithoutCancel(ctx), feedChannel(quizID))
		// wait for the confirmation so no publish after this call is missed
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, nil, fmt.Errorf("subscribe results feed: %w", err)
		}
		sub = &feedSubscription{feed: app.NewFeed(quizID), pubsub: pubsub}
		r.feeds[quizID] = sub
		go relay(quizID, sub.feed, pubsub.Channel())
	}
	ch, unsubscribe := sub.feed.Subscribe(initial)

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		unsubscribe()
		if sub.feed.IsEmpty() && r.feeds[quizID] == sub {
			delete(r.feeds, quizID)
			_ = sub.pubsub.Close()
		}
	}
	return ch, cancel, nil
}

func (r *FeedRegistry) Publish(ctx context.Context, quizID string, stats domain.Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := r.client.Publish(ctx, feedChannel(quizID), payload).Err(); err != nil {
		return fmt.Errorf("publish stats: %w", err)
	}
	return nil
}

// Watched counts subscribers across all instances.
func (r *FeedRegistry) Watched(ctx context.Context, quizID string) (bool, error) {
	channel := feedChannel(quizID)
	counts, err := r.client.PubSubNumSub(ctx, channel).Result()
	if err != nil {
		return false, fmt.Errorf("count feed subscribers: %w", err)
	}
	return counts[channel] > 0, nil
}

// relay runs until the subscription is closed.
func relay(quizID string, feed *app.Feed, messages <-chan *redis.Message) {
	for msg := range messages {
		var stats domain.Stats
		if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
			logrus.WithError(err).WithField("quiz_id", quizID).Warn("dropping malformed results snapshot")
			continue
		}
		feed.Publish(stats)
	}
}

func feedChannel(quizID string) string {
	return "quiz:results_feed:" + quizID
}
