package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/worker"
)

// mappedRow is one line of the mapper output. The id stays a string: it is
// copied verbatim into the result CSV.
type mappedRow struct {
	ID   string
	Text string
}

// ReduceRoutes classifies every row of a mapped CSV and writes the result
// CSV (id;cotations;ambiguous). Rows are classified concurrently but the
// output keeps the input order.
func (p *Pipeline) ReduceRoutes(ctx context.Context, inPath, outPath string, opts Options) error {
	if err := p.requireClassifier(); err != nil {
		return err
	}

	rows, err := readMappedCSV(inPath)
	if err != nil {
		return err
	}

	results := make([]model.Result, len(rows))
	for i := range results {
		results[i] = model.Inconclusive()
	}

	if len(rows) > 0 {
		var limiter *worker.Limiter
		if p.config.RateLimiting.RequestsPerSecond > 0 {
			limiter = worker.NewLimiter(
				p.config.RateLimiting.RequestsPerSecond,
				p.config.RateLimiting.BurstSize,
			)
		}

		pool := worker.NewPoolWithCapacity(p.workers(opts), len(rows))
		pool.Start()

		key := p.classifier.ProviderName()
		for i, row := range rows {
			pool.Submit(&reduceJob{
				index:    i,
				row:      row,
				pipeline: p,
				opts:     opts,
				limiter:  limiter,
				key:      key,
			})
		}
		for _, res := range pool.Wait() {
			rr := res.(*reduceResult)
			results[rr.index] = rr.result
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	w.Comma = ';'
	if err := w.Write([]string{"id", "cotations", "ambiguous"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		encoded, err := json.Marshal(results[i].Cotations)
		if err != nil {
			return fmt.Errorf("encoding cotations for row %s: %w", row.ID, err)
		}
		record := []string{row.ID, string(encoded), strconv.FormatBool(results[i].Ambiguous)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row %s: %w", row.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", outPath, err)
	}

	fmt.Fprintf(p.out, "[reduce] classified %d rows → %s\n", len(rows), outPath)
	return nil
}

// reduceJob classifies one mapped row on the worker pool.
type reduceJob struct {
	index    int
	row      mappedRow
	pipeline *Pipeline
	opts     Options
	limiter  *worker.Limiter
	key      string
}

func (j *reduceJob) Execute(ctx context.Context) worker.Result {
	if j.limiter != nil {
		if err := j.limiter.Wait(ctx, j.key); err != nil {
			return &reduceResult{index: j.index, result: model.Inconclusive()}
		}
	}

	result := j.pipeline.classify(ctx, "row "+j.row.ID, j.row.Text, j.opts)
	return &reduceResult{index: j.index, result: result}
}

// reduceResult carries a classified row back out of the pool.
type reduceResult struct {
	index  int
	result model.Result
}

// GetError always returns nil: classification failures degrade to the
// inconclusive result instead of failing the row.
func (r *reduceResult) GetError() error { return nil }

// readMappedCSV loads the id;description rows of a mapper output file.
func readMappedCSV(path string) ([]mappedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := newCSVReader(f)
	cols, err := readHeader(r, "id", "description")
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rows []mappedRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if len(record) <= cols.max {
			continue
		}
		rows = append(rows, mappedRow{
			ID:   record[cols.idx["id"]],
			Text: record[cols.idx["description"]],
		})
	}
	return rows, nil
}
