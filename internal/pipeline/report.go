package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/routebeta/cotations/internal/extract"
	"github.com/routebeta/cotations/internal/filter"
	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/store"
)

// Cost and latency assumptions behind the stats estimates.
const (
	costPer1kTokens = 0.02 // EUR
	secsPer1kTokens = 1.5
)

// PendingReport lists the routes a bulk run would classify.
type PendingReport struct {
	IDs []int64
}

// Pending counts live routes that still need extraction: no grade data,
// wanted activity, and a description that mentions at least one grade.
func (p *Pipeline) Pending(ctx context.Context, verbose bool) (*PendingReport, error) {
	routes, err := p.store.ListLiveMissing(ctx)
	if err != nil {
		return nil, err
	}

	report := &PendingReport{}
	for _, route := range routes {
		if !p.gate.AllowRaw(route.Activities) {
			continue
		}
		desc := extract.PickDescription(route.Description)
		if desc == "" || !filter.MentionsGrade(desc) {
			continue
		}

		report.IDs = append(report.IDs, route.ID)
		if verbose {
			fmt.Fprintf(p.out, "  route %d: activities=%s\n", route.ID, route.Activities)
		}
	}

	fmt.Fprintf(p.out, "[pending] routes needing extraction: %d\n", len(report.IDs))
	if verbose && len(report.IDs) > 0 {
		ids := make([]string, len(report.IDs))
		for i, id := range report.IDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		fmt.Fprintf(p.out, "  ids: %s\n", strings.Join(ids, ", "))
	}
	return report, nil
}

// StatsReport aggregates extraction progress over the eligible routes.
type StatsReport struct {
	EligibleRoutes int // live, gated, description mentions a grade
	ReducedRoutes  int // of those, already carrying extraction output
	GradePairs     int
	AmbiguousCount int
	TotalTokens    int // whitespace-split token estimate over descriptions
}

// Stats walks the live routes and reports how far extraction has come,
// plus token, cost and time estimates for the eligible descriptions.
func (p *Pipeline) Stats(ctx context.Context) (*StatsReport, error) {
	routes, err := p.store.ListLive(ctx)
	if err != nil {
		return nil, err
	}

	report := &StatsReport{}
	for _, route := range routes {
		if !p.gate.AllowRaw(route.Activities) {
			continue
		}
		desc := extract.PickDescription(route.Description)
		if desc == "" || !filter.MentionsGrade(desc) {
			continue
		}

		report.EligibleRoutes++
		report.TotalTokens += len(strings.Fields(desc))

		pairs, ambiguous, ok := parseStoredCotations(route.AiCotations)
		if !ok {
			continue
		}
		report.ReducedRoutes++
		report.GradePairs += pairs
		if ambiguous {
			report.AmbiguousCount++
		}
	}

	cost := float64(report.TotalTokens) / 1000 * costPer1kTokens
	duration := float64(report.TotalTokens) / 1000 * secsPer1kTokens

	ambiguousPct := 0.0
	if report.ReducedRoutes > 0 {
		ambiguousPct = float64(report.AmbiguousCount) / float64(report.ReducedRoutes) * 100
	}
	avgTokens := 0.0
	avgTime := 0.0
	if report.EligibleRoutes > 0 {
		avgTokens = float64(report.TotalTokens) / float64(report.EligibleRoutes)
		avgTime = duration / float64(report.EligibleRoutes)
	}

	fmt.Fprintf(p.out, "1) %d routes passed from mapper to reducer\n", report.EligibleRoutes)
	fmt.Fprintf(p.out, "2) %d (grade, count) pairs extracted in total\n", report.GradePairs)
	fmt.Fprintf(p.out, "3) %.1f%% ambiguous replies (%d/%d)\n",
		ambiguousPct, report.AmbiguousCount, report.ReducedRoutes)
	fmt.Fprintf(p.out, "4) Token / cost / time estimates:\n")
	fmt.Fprintf(p.out, "   • total tokens: %d\n", report.TotalTokens)
	fmt.Fprintf(p.out, "   • total cost: €%.2f (@ €%.2f/1k tokens)\n", cost, costPer1kTokens)
	fmt.Fprintf(p.out, "   • total time: %.1fs (@ %.1fs/1k tokens)\n", duration, secsPer1kTokens)
	fmt.Fprintf(p.out, "   • per route: %.0f tokens, %.2fs\n", avgTokens, avgTime)

	return report, nil
}

// Schema prints the declared type of route.ai_cotations.
func (p *Pipeline) Schema(ctx context.Context) error {
	info, err := p.store.CotationsColumn(ctx)
	if errors.Is(err, store.ErrColumnNotFound) {
		fmt.Fprintln(p.out, "Column 'ai_cotations' not found in table 'route'.")
		return nil
	}
	if err != nil {
		return err
	}

	line := fmt.Sprintf("Column 'ai_cotations' type: %s", info.DataType)
	if info.UDTName != "" {
		line += fmt.Sprintf(" (internal type: %s)", info.UDTName)
	}
	if info.MaxLength > 0 {
		line += fmt.Sprintf(", max length: %d", info.MaxLength)
	}
	fmt.Fprintln(p.out, line)
	return nil
}

// parseStoredCotations reads any storage shape ai_cotations has carried
// over the years: the current object with a cotations array, the bare
// array, and the oldest grade→count mapping with an inline ambiguous flag.
// The empty-object and empty-string sentinels mean "never processed" and
// return ok=false.
func parseStoredCotations(blob []byte) (pairs int, ambiguous bool, ok bool) {
	raw := bytes.TrimSpace(blob)
	switch string(raw) {
	case "", "[]", "{}", "null", `""`:
		return 0, false, false
	}

	if raw[0] == '[' {
		var arr []model.Cotation
		if err := json.Unmarshal(raw, &arr); err != nil {
			return 0, false, false
		}
		return len(arr), false, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, false, false
	}

	if cotsRaw, hasCots := fields["cotations"]; hasCots {
		var cots []model.Cotation
		if err := json.Unmarshal(cotsRaw, &cots); err != nil {
			return 0, false, false
		}
		amb := false
		if ambRaw, hasAmb := fields["ambiguous"]; hasAmb {
			_ = json.Unmarshal(ambRaw, &amb)
		}
		return len(cots), amb, true
	}

	// Mapping form: every key except the flag is a grade.
	amb := false
	for key, val := range fields {
		if key == "ambiguous" {
			_ = json.Unmarshal(val, &amb)
			continue
		}
		pairs++
	}
	return pairs, amb, true
}
