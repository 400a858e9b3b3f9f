package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/lotbid/internal/config"
)

const keyInvitationStatus = "invitation:status:%s"

// PublicStatusLimiter throttles the buyer-facing invitation status read per
// client. A nil limiter allows everything.
type PublicStatusLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewPublicStatusLimiter returns nil when Redis is not configured or the
// limit is switched off.
func NewPublicStatusLimiter(client *redis.Client, cfg config.Config) *PublicStatusLimiter {
	if client == nil || cfg.PublicStatusRate <= 0 || cfg.PublicStatusBurst <= 0 {
		return nil
	}
	return &PublicStatusLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.PublicStatusRate,
		burst:  cfg.PublicStatusBurst,
	}
}

func (l *PublicStatusLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *PublicStatusLimiter) Allow(ctx context.Context, clientKey string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyInvitationStatus, strings.TrimSpace(clientKey))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
