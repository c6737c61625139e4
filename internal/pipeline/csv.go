package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/routebeta/cotations/internal/extract"
	"github.com/routebeta/cotations/internal/filter"
)

// ExportRoutes dumps the whole route table to a ;-separated CSV. NULL json
// columns come out as empty cells, the same way a database COPY would.
func (p *Pipeline) ExportRoutes(ctx context.Context, path string) error {
	routes, err := p.store.ListAll(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	if err := w.Write([]string{"id", "description", "activities", "status", "ai_cotations"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, route := range routes {
		record := []string{
			strconv.FormatInt(route.ID, 10),
			string(route.Description),
			string(route.Activities),
			route.Status,
			string(route.AiCotations),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing route %d: %w", route.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	fmt.Fprintf(p.out, "[export] %d routes → %s\n", len(routes), path)
	return nil
}

// MapRoutes filters a route CSV down to the rows worth sending to the
// classifier: wanted activity, live status, a non-empty picked description
// that mentions at least one grade. Output is id;description.
func (p *Pipeline) MapRoutes(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer in.Close()

	r := newCSVReader(in)
	cols, err := readHeader(r, "id", "description", "activities", "status")
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	w.Comma = ';'
	if err := w.Write([]string{"id", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	kept := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Mangled row: skip it and keep going.
			continue
		}
		if len(record) <= cols.max {
			continue
		}

		if !p.gate.AllowRaw([]byte(record[cols.idx["activities"]])) {
			continue
		}
		if record[cols.idx["status"]] != "1" {
			continue
		}

		desc := extract.PickDescription([]byte(record[cols.idx["description"]]))
		if desc == "" {
			continue
		}
		if !filter.MentionsGrade(desc) {
			continue
		}

		if err := w.Write([]string{record[cols.idx["id"]], desc}); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
		kept++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", outPath, err)
	}

	fmt.Fprintf(p.out, "[map] kept %d rows → %s\n", kept, outPath)
	return nil
}

// columnSet maps header names to indices. max is the highest required
// index, for cheap short-row checks.
type columnSet struct {
	idx map[string]int
	max int
}

// newCSVReader configures a reader for the ;-separated files this pipeline
// exchanges. Quoting oddities from spreadsheet round-trips are tolerated.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// readHeader consumes the header row and locates the required columns.
// A UTF-8 BOM on the first cell is stripped.
func readHeader(r *csv.Reader, required ...string) (*columnSet, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	cols := &columnSet{idx: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := cols.idx[name]; !seen {
			cols.idx[name] = i
		}
	}

	for _, name := range required {
		i, ok := cols.idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		if i > cols.max {
			cols.max = i
		}
	}
	return cols, nil
}
