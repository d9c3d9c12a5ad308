package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quizhub-service/internal/domain"
)

func TestFeedRegistryFansOutAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	watching := NewFeedRegistry(newClient(mr))
	publishing := NewFeedRegistry(newClient(mr))

	if watched, err := publishing.Watched(ctx, "quiz-1"); err != nil || watched {
		t.Fatalf("expected no watchers yet: %v, %v", watched, err)
	}

	updates, cancel, err := watching.Subscribe(ctx, "quiz-1", domain.Stats{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if first := nextStats(t, updates); first.QuizID != "quiz-1" {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}

	if watched, err := publishing.Watched(ctx, "quiz-1"); err != nil || !watched {
		t.Fatalf("other instance should see the watcher: %v, %v", watched, err)
	}
	if err := publishing.Publish(ctx, "quiz-1", domain.Stats{Count: 2, HighestScore: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := nextStats(t, updates); got.Count != 2 || got.HighestScore != 7 {
		t.Fatalf("expected relayed snapshot, got %+v", got)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for {
		watched, err := publishing.Watched(ctx, "quiz-1")
		if err != nil {
			t.Fatalf("watched: %v", err)
		}
		if !watched {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription should close with the last watcher")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFeedRegistryIgnoresOtherQuizzes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	registry := NewFeedRegistry(newClient(mr))
	updates, cancel, err := registry.Subscribe(ctx, "quiz-1", domain.Stats{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	nextStats(t, updates)

	if err := registry.Publish(ctx, "quiz-2", domain.Stats{Count: 9}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := registry.Publish(ctx, "quiz-1", domain.Stats{Count: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := nextStats(t, updates); got.Count != 1 {
		t.Fatalf("expected only quiz-1 snapshots, got %+v", got)
	}
}

func nextStats(t *testing.T, ch <-chan domain.Stats) domain.Stats {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for stats")
		return domain.Stats{}
	}
}
