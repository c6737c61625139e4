package worker

import (
	"context"

	"github.com/routebeta/cotations/internal/model"
)

// RouteProcessor defines the interface for classifying one route. The
// pipeline implements it; ProviderName keys the shared rate limiter.
type RouteProcessor interface {
	ProcessRoute(ctx context.Context, route model.Route) (model.Result, error)
	ProviderName() string
}

// RouteJob classifies one route, waiting for rate-limit clearance first
type RouteJob struct {
	Route     model.Route
	Processor RouteProcessor
	Limiter   *Limiter
	Key       string
}

// Execute executes the route job
func (j *RouteJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Key); err != nil {
			return &RouteResult{RouteID: j.Route.ID, Err: err}
		}
	}

	result, err := j.Processor.ProcessRoute(ctx, j.Route)
	return &RouteResult{
		RouteID: j.Route.ID,
		Result:  result,
		Err:     err,
	}
}

// RouteResult represents the result of a route job
type RouteResult struct {
	RouteID int64
	Result  model.Result
	Err     error
}

// GetError returns the error from the route result
func (r *RouteResult) GetError() error {
	return r.Err
}

// BatchProcessor classifies multiple routes concurrently
type BatchProcessor struct {
	processor   RouteProcessor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A requestsPerSecond of
// zero or less disables rate limiting.
func NewBatchProcessor(processor RouteProcessor, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}

	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessRoutes classifies the given routes concurrently
func (b *BatchProcessor) ProcessRoutes(ctx context.Context, routes []model.Route) []*RouteResult {
	if len(routes) == 0 {
		return []*RouteResult{}
	}

	// Create worker pool, sized so every result fits without blocking
	pool := NewPoolWithCapacity(b.concurrency, len(routes))
	pool.Start()

	// Submit jobs
	key := b.processor.ProviderName()
	for _, route := range routes {
		job := &RouteJob{
			Route:     route,
			Processor: b.processor,
			Limiter:   b.limiter,
			Key:       key,
		}
		pool.Submit(job)
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	// Convert to RouteResults
	routeResults := make([]*RouteResult, len(results))
	for i, result := range results {
		routeResults[i] = result.(*RouteResult)
	}

	return routeResults
}
