package service

import "context"

// LoginLimiter throttles login attempts per key (the normalized email).
// Allow returns domain.ErrRateLimited once the window is exhausted; any other
// error means the limiter itself is unavailable.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
