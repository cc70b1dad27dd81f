package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestSessionStrategy runs a miniredis instance for the test and returns
// a SessionStrategy backed by it. miniredis.RunT ties the instance's
// lifetime to the test, and FastForward lets us expire sessions without
// sleeping.
func newTestSessionStrategy(t *testing.T, ttl time.Duration) (*SessionStrategy, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s, err := NewSessionStrategy(client, ttl)
	if err != nil {
		t.Fatalf("NewSessionStrategy: %v", err)
	}
	return s, mr
}

func TestSessionIssue_UniqueIDs(t *testing.T) {
	s, _ := newTestSessionStrategy(t, time.Hour)
	ctx := context.Background()

	id1, err := s.Issue(ctx, "user-a")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	id2, err := s.Issue(ctx, "user-a")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if id1 == "" || id1 == id2 {
		t.Errorf("Issue() ids must be distinct and non-empty: %q, %q", id1, id2)
	}
}

func TestSessionVerify_RoundTrip(t *testing.T) {
	s, _ := newTestSessionStrategy(t, time.Hour)
	ctx := context.Background()

	id, err := s.Issue(ctx, "user-abc")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := s.Verify(ctx, id)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "user-abc" {
		t.Errorf("Verify() UserID = %q, want %q", claims.UserID, "user-abc")
	}
}

func TestSessionVerify_UnknownID(t *testing.T) {
	s, _ := newTestSessionStrategy(t, time.Hour)

	_, err := s.Verify(context.Background(), "no-such-session")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify() on unknown id = %v, want ErrTokenInvalid", err)
	}
}

func TestSessionVerify_AfterTTL(t *testing.T) {
	s, mr := newTestSessionStrategy(t, time.Minute)
	ctx := context.Background()

	id, err := s.Issue(ctx, "user-abc")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Redis evicts the entry once its TTL passes; the session then looks
	// exactly like one that never existed.
	mr.FastForward(2 * time.Minute)

	_, err = s.Verify(ctx, id)
	if !errors.Is(err, ErrTokenInvalid) && !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify() after TTL = %v, want a token verification failure", err)
	}
}

func TestSessionRevoke_InvalidatesImmediately(t *testing.T) {
	s, _ := newTestSessionStrategy(t, time.Hour)
	ctx := context.Background()

	id, err := s.Issue(ctx, "user-abc")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := s.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	// Unlike the JWT strategy, revocation is real: the id stops verifying
	// even though its TTL is nowhere near over.
	if _, err := s.Verify(ctx, id); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify() after Revoke() = %v, want ErrTokenInvalid", err)
	}
}

func TestSessionRevoke_Idempotent(t *testing.T) {
	s, _ := newTestSessionStrategy(t, time.Hour)
	ctx := context.Background()

	id, _ := s.Issue(ctx, "user-abc")

	if err := s.Revoke(ctx, id); err != nil {
		t.Fatalf("first Revoke() error = %v", err)
	}
	if err := s.Revoke(ctx, id); err != nil {
		t.Fatalf("second Revoke() error = %v (logout must be idempotent)", err)
	}
	if err := s.Revoke(ctx, "never-existed"); err != nil {
		t.Fatalf("Revoke() on unknown id error = %v (must be a no-op)", err)
	}
}
