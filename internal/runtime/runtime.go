package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"ctrdash/config"
)

// Limits captures the concurrency guardrails configured for the service.
// Each ingestion event owns its own tables and summary, so isolation between
// concurrent users only needs capacity bounds, never shared caches.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests   int
	MaxConcurrentIngestions int

	// Upload bound
	MaxUploadBytes int64

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxConcurrentIngestions int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxConcurrentIngestions <= 0 {
		maxConcurrentIngestions = config.DefaultMaxConcurrentIngestions
	}

	return Limits{
		MaxConcurrentRequests:   maxConcurrentRequests,
		MaxConcurrentIngestions: maxConcurrentIngestions,
		MaxUploadBytes:          config.DefaultMaxUploadBytes,
		OperationTimeout:        config.DefaultOperationTimeout,
		AcquireRequestTimeout:   config.DefaultAcquireRequestTimeout,
	}
}

// Controller coordinates runtime semaphores for request and ingestion
// guardrails.
type Controller struct {
	limits             Limits
	requestSemaphore   *semaphore.Weighted
	ingestionSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:             limits,
		requestSemaphore:   semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		ingestionSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentIngestions)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireIngestion reserves a pipeline-pass slot.
func (c *Controller) AcquireIngestion(ctx context.Context) error {
	return c.ingestionSemaphore.Acquire(ctx, 1)
}

// ReleaseIngestion frees a pipeline-pass slot.
func (c *Controller) ReleaseIngestion() {
	c.ingestionSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and the
// health endpoint.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
