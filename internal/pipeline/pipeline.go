// Package pipeline orchestrates cotation extraction: routes come from the
// store or from CSV files, descriptions go through the classifier, and the
// recovered grades are persisted or written back out as CSV.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/routebeta/cotations/internal/cache"
	"github.com/routebeta/cotations/internal/extract"
	"github.com/routebeta/cotations/internal/filter"
	"github.com/routebeta/cotations/internal/grade"
	"github.com/routebeta/cotations/internal/llm"
	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/store"
	"github.com/routebeta/cotations/internal/worker"
)

// classifier is the slice of llm.Classifier the pipeline needs; tests
// substitute a fake.
type classifier interface {
	IsEnabled() bool
	ProviderName() string
	Classify(ctx context.Context, description string) (string, error)
}

// Options control a single pipeline invocation.
type Options struct {
	// Skip leaves routes alone when they already carry grade data (bulk
	// operations only).
	Skip bool

	// Limit caps the number of rows examined; 0 means no limit. Skipped
	// rows count against the limit, matching the operator expectation
	// that --limit 100 reads 100 rows, not 100 updates.
	Limit int

	// DryRun prints planned updates without writing anything.
	DryRun bool

	// Verbose prints raw classifier replies and normalization notes.
	Verbose bool

	// Concurrency overrides the configured worker count when > 0.
	Concurrency int
}

// Pipeline wires the store, the activity gate and the classifier together.
type Pipeline struct {
	store      store.Interface
	classifier classifier
	gate       *filter.ActivityGate
	config     *model.Config
	out        io.Writer
}

// NewPipeline creates a pipeline from the runtime configuration. A
// classifier that cannot be initialized leaves the LLM paths disabled
// instead of failing commands that never call it.
func NewPipeline(cfg *model.Config, st store.Interface) *Pipeline {
	replies := cache.NewReplyCacheFromConfig(cfg.Cache)

	clf, err := llm.NewClassifier(llm.ConfigFromModel(cfg.LLM), replies)
	if err != nil {
		fmt.Printf("Warning: failed to initialize LLM provider: %v\n", err)
		clf, _ = llm.NewClassifier(llm.Config{}, replies)
	}

	return &Pipeline{
		store:      st,
		classifier: clf,
		gate:       filter.NewActivityGate(cfg.Filter.Activities),
		config:     cfg,
		out:        &syncWriter{w: os.Stdout},
	}
}

// BulkSummary reports what a bulk run did.
type BulkSummary struct {
	Processed       int // rows examined, the limit applies here
	Selected        int // routes handed to the classifier
	Updated         int
	Failed          int
	SkippedActivity int
	SkippedExisting int
	SkippedEmpty    int
}

// ProcessRoute classifies a single route and persists the result. No
// activity gate applies here: the operator asked for this exact id.
func (p *Pipeline) ProcessRoute(ctx context.Context, id int64, opts Options) error {
	if err := p.requireClassifier(); err != nil {
		return err
	}

	route, err := p.store.GetRoute(ctx, id)
	if err != nil {
		return err
	}

	desc := extract.PickDescription(route.Description)
	if desc == "" {
		return fmt.Errorf("route %d: empty description", id)
	}

	result := p.classify(ctx, fmt.Sprintf("route %d", id), desc, opts)

	if opts.DryRun {
		fmt.Fprintf(p.out, "[dry-run] route %d → %s\n", id, formatResult(result))
		return nil
	}

	if err := p.store.SaveCotations(ctx, id, result); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "[route %d] ai_cotations updated: %s\n", id, formatResult(result))
	return nil
}

// ProcessBulk classifies every eligible live route: activity gate, optional
// skip of routes that already have data, empty descriptions dropped. The
// selected routes run on the worker pool; one failing route never aborts
// the batch.
func (p *Pipeline) ProcessBulk(ctx context.Context, opts Options) (*BulkSummary, error) {
	if err := p.requireClassifier(); err != nil {
		return nil, err
	}

	routes, err := p.store.ListLive(ctx)
	if err != nil {
		return nil, err
	}

	summary := &BulkSummary{}
	var selected []model.Route

	for _, route := range routes {
		if opts.Limit > 0 && summary.Processed >= opts.Limit {
			break
		}
		summary.Processed++

		if !p.gate.AllowRaw(route.Activities) {
			summary.SkippedActivity++
			continue
		}
		if opts.Skip && route.HasGradeData() {
			summary.SkippedExisting++
			continue
		}
		if extract.PickDescription(route.Description) == "" {
			summary.SkippedEmpty++
			continue
		}
		selected = append(selected, route)
	}
	summary.Selected = len(selected)

	if len(selected) > 0 {
		batch := worker.NewBatchProcessor(
			&routeProcessor{pipeline: p, opts: opts},
			p.workers(opts),
			p.config.RateLimiting.RequestsPerSecond,
			p.config.RateLimiting.BurstSize,
		)
		for _, res := range batch.ProcessRoutes(ctx, selected) {
			if res.Err != nil {
				summary.Failed++
				fmt.Fprintf(p.out, "[route %d] %v\n", res.RouteID, res.Err)
				continue
			}
			if !opts.DryRun {
				summary.Updated++
			}
		}
	}

	if opts.DryRun {
		fmt.Fprintf(p.out, "[bulk] dry-run — %d routes would be updated\n", summary.Selected-summary.Failed)
	} else {
		fmt.Fprintf(p.out, "[bulk] processed %d — updated %d\n", summary.Processed, summary.Updated)
	}
	return summary, nil
}

// classify runs one description through the classifier and recovers a
// result. Every failure mode degrades to the inconclusive result: the
// route stays retriable and the caller keeps going.
func (p *Pipeline) classify(ctx context.Context, label, description string, opts Options) model.Result {
	text := extract.StripMarkup(description)

	raw, err := p.classifier.Classify(ctx, text)
	if err != nil {
		fmt.Fprintf(p.out, "[%s] classifier error: %v\n", label, err)
		return model.Inconclusive()
	}
	if opts.Verbose {
		fmt.Fprintf(p.out, "[%s] raw reply:\n%s\n", label, raw)
	}

	answer, ok := extract.FindAnswer(raw)
	if !ok {
		fmt.Fprintf(p.out, "[%s] no answer block in reply, marking ambiguous\n", label)
		return model.Inconclusive()
	}

	cotations, stats := grade.NormalizeCounts(answer.Difficulties)
	if opts.Verbose && (stats.Dropped > 0 || stats.Coerced > 0) {
		fmt.Fprintf(p.out, "[%s] normalize: dropped %d unknown grades, coerced %d counts\n",
			label, stats.Dropped, stats.Coerced)
	}

	return model.Result{
		Ambiguous: answer.Ambiguous,
		Cotations: grade.SortCotations(cotations),
	}
}

func (p *Pipeline) requireClassifier() error {
	if !p.classifier.IsEnabled() {
		return fmt.Errorf("no LLM provider configured (set llm.provider or --llm-provider)")
	}
	return nil
}

func (p *Pipeline) workers(opts Options) int {
	if opts.Concurrency > 0 {
		return opts.Concurrency
	}
	return p.config.Concurrency.Workers
}

// routeProcessor adapts the pipeline to the worker pool: classify one
// route, persist unless this is a dry run.
type routeProcessor struct {
	pipeline *Pipeline
	opts     Options
}

func (rp *routeProcessor) ProcessRoute(ctx context.Context, route model.Route) (model.Result, error) {
	desc := extract.PickDescription(route.Description)
	result := rp.pipeline.classify(ctx, fmt.Sprintf("route %d", route.ID), desc, rp.opts)

	if rp.opts.DryRun {
		fmt.Fprintf(rp.pipeline.out, "[dry-run] route %d → %s\n", route.ID, formatResult(result))
		return result, nil
	}
	if err := rp.pipeline.store.SaveCotations(ctx, route.ID, result); err != nil {
		return result, err
	}
	return result, nil
}

func (rp *routeProcessor) ProviderName() string {
	return rp.pipeline.classifier.ProviderName()
}

// formatResult renders a result for operator-facing output.
func formatResult(result model.Result) string {
	encoded, err := json.Marshal(result.Cotations)
	if err != nil {
		return fmt.Sprintf("%v", result.Cotations)
	}
	if result.Ambiguous {
		return string(encoded) + " (ambiguous)"
	}
	return string(encoded)
}

// syncWriter serializes writes from concurrent jobs so log lines never
// interleave mid-line.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}
