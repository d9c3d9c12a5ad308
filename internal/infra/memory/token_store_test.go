package memory

import (
	"context"
	"testing"
	"time"
)

func TestTokenStoreRefreshAndBlacklist(t *testing.T) {
	store := NewTokenStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }
	ctx := context.Background()

	if err := store.StoreRefreshToken(ctx, "u1", "r1", time.Hour); err != nil {
		t.Fatalf("store refresh: %v", err)
	}
	if ok, _ := store.ValidateRefreshToken(ctx, "u1", "r1"); !ok {
		t.Fatalf("expected stored refresh token to validate")
	}
	if ok, _ := store.ValidateRefreshToken(ctx, "u1", "other"); ok {
		t.Fatalf("expected mismatching refresh token to fail")
	}

	now = now.Add(2 * time.Hour)
	if ok, _ := store.ValidateRefreshToken(ctx, "u1", "r1"); ok {
		t.Fatalf("expected expired refresh token to fail")
	}

	_ = store.BlacklistToken(ctx, "access", time.Minute)
	if revoked, _ := store.IsTokenBlacklisted(ctx, "access"); !revoked {
		t.Fatalf("expected token blacklisted")
	}
	now = now.Add(time.Minute)
	if revoked, _ := store.IsTokenBlacklisted(ctx, "access"); revoked {
		t.Fatalf("expected blacklist entry to expire")
	}
}
