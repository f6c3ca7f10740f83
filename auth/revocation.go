package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationPrefix = "revoked:"

// RevocationList is a redis-backed denylist of logged-out tokens. Entries
// expire with the token itself, so the set stays bounded.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList builds a denylist on the given redis connection.
func NewRevocationList(addr, password string) *RevocationList {
	return &RevocationList{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// NewRevocationListWithClient wires an existing client, used by tests.
func NewRevocationListWithClient(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks the token invalid for ttl.
func (l *RevocationList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return l.client.Set(ctx, revocationPrefix+token, "1", ttl).Err()
}

// IsRevoked reports whether the token has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err := l.client.Get(ctx, revocationPrefix+token).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
