package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces session entries so the Redis instance can be
// shared with other data without key collisions.
const sessionKeyPrefix = "session:"

// SessionStrategy implements TokenStrategy with server-side sessions in
// Redis.
//
// The assertion handed to the client is a random, unguessable session id
// carrying no information at all — all state lives in Redis, keyed by the
// id, with a TTL matching the validity window. Because the state is server
// side, Revoke actually works: deleting the Redis entry invalidates the
// session immediately, no matter what the client still holds.
//
// The cost is that Redis becomes a hard dependency of every request's auth
// check. A deployment that can't afford that uses JWTStrategy instead.
type SessionStrategy struct {
	client *redis.Client
	ttl    time.Duration
}

var _ TokenStrategy = (*SessionStrategy)(nil)

// sessionRecord is what we store in Redis, as JSON. ExpiresAt is stored
// redundantly with the Redis TTL so Verify can tell a just-expired entry
// (clock-edge reads before Redis evicts it) from an unknown id.
type sessionRecord struct {
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSessionStrategy creates a SessionStrategy storing sessions in the given
// Redis client with the given fixed validity window.
func NewSessionStrategy(client *redis.Client, ttl time.Duration) (*SessionStrategy, error) {
	if client == nil {
		return nil, errors.New("auth: session strategy requires a redis client")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &SessionStrategy{client: client, ttl: ttl}, nil
}

// Issue creates a new session for userID and returns its id.
//
// SESSION ID ENTROPY:
// 32 bytes from crypto/rand, base64url-encoded — 256 bits. Guessing a live
// session id is not a realistic attack; the id itself carries nothing, so
// there is no signature to verify.
func (s *SessionStrategy) Issue(ctx context.Context, userID string) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("auth: generating session id: %w", err)
	}

	now := time.Now()
	rec := sessionRecord{
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("auth: encoding session: %w", err)
	}

	// SET with EX — Redis deletes the entry itself once the TTL passes, so
	// abandoned sessions never need garbage collection.
	if err := s.client.Set(ctx, sessionKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: storing session: %w", err)
	}

	return id, nil
}

// Verify looks the session id up in Redis.
//
// An unknown id yields ErrTokenInvalid — after Redis evicts an expired
// entry, an expired session is indistinguishable from one that never
// existed, and that is fine: both are "not authenticated". Only the narrow
// window where the entry still exists but its recorded expiry has passed
// reports ErrTokenExpired.
func (s *SessionStrategy) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenInvalid
		}
		// Redis unreachable is NOT an auth failure — let it surface as a
		// server-side error rather than silently logging the user out.
		return nil, fmt.Errorf("auth: reading session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt session record", ErrTokenInvalid)
	}
	if rec.UserID == "" {
		return nil, ErrTokenInvalid
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return &Claims{
		UserID:    rec.UserID,
		IssuedAt:  rec.IssuedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Revoke deletes the session entry. This is real revocation: the id stops
// verifying immediately, even if the client keeps sending it. Deleting an
// id that does not exist is not an error — logout is idempotent.
func (s *SessionStrategy) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: deleting session: %w", err)
	}
	return nil
}

// TTL returns the fixed session validity window.
func (s *SessionStrategy) TTL() time.Duration {
	return s.ttl
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
