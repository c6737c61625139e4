package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/routebeta/cotations/internal/grade"
	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/store"
)

// ImportRoute writes one route's cotations from a result CSV into the
// store. The row is matched on the id column; a malformed cotations cell
// is an error here, unlike the bulk path which skips and moves on.
func (p *Pipeline) ImportRoute(ctx context.Context, id int64, csvPath string, opts Options) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", csvPath, err)
	}
	defer f.Close()

	r := newCSVReader(f)
	cols, err := readHeader(r, "id", "cotations")
	if err != nil {
		return fmt.Errorf("reading %s: %w", csvPath, err)
	}

	target := strconv.FormatInt(id, 10)
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
		if strings.TrimSpace(record[cols.idx["id"]]) != target {
			continue
		}

		cotations, err := parseCotationsCell(record[cols.idx["cotations"]])
		if err != nil {
			return fmt.Errorf("route %d: bad cotations JSON: %w", id, err)
		}

		result := model.Result{
			Ambiguous: readAmbiguous(record, cols),
			Cotations: grade.SortCotations(cotations),
		}

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

	return fmt.Errorf("id %d not found in %s", id, csvPath)
}

// ImportSummary reports what a bulk import did.
type ImportSummary struct {
	Processed int
	Updated   int
}

// ImportBulk imports a whole result CSV into the store. Rows with a
// non-numeric id or an unparseable cotations cell are skipped, as are rows
// whose route already carries grade data when skipping is on. Rows naming
// a route id the table does not have count as processed but not updated.
func (p *Pipeline) ImportBulk(ctx context.Context, csvPath string, opts Options) (*ImportSummary, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", csvPath, err)
	}
	defer f.Close()

	r := newCSVReader(f)
	cols, err := readHeader(r, "id", "cotations")
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", csvPath, err)
	}

	type plannedUpdate struct {
		id     int64
		result model.Result
	}

	summary := &ImportSummary{}
	var plan []plannedUpdate

	for {
		if opts.Limit > 0 && summary.Processed >= opts.Limit {
			break
		}

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
		summary.Processed++

		unsigned, err := strconv.ParseUint(strings.TrimSpace(record[cols.idx["id"]]), 10, 63)
		if err != nil {
			continue
		}
		id := int64(unsigned)

		if opts.Skip {
			route, err := p.store.GetRoute(ctx, id)
			if err == nil && route.HasGradeData() {
				continue
			}
			if err != nil && !errors.Is(err, store.ErrRouteNotFound) {
				return summary, err
			}
		}

		cotations, err := parseCotationsCell(record[cols.idx["cotations"]])
		if err != nil {
			continue
		}

		result := model.Result{
			Ambiguous: readAmbiguous(record, cols),
			Cotations: grade.SortCotations(cotations),
		}

		if opts.DryRun {
			plan = append(plan, plannedUpdate{id: id, result: result})
			continue
		}

		if err := p.store.SaveCotations(ctx, id, result); err != nil {
			if errors.Is(err, store.ErrRouteNotFound) {
				continue
			}
			return summary, err
		}
		summary.Updated++
	}

	if opts.DryRun {
		fmt.Fprintf(p.out, "[bulk] dry-run — planned updates:\n")
		for _, pl := range plan {
			fmt.Fprintf(p.out, "  • id %d → %s\n", pl.id, formatResult(pl.result))
		}
	} else {
		fmt.Fprintf(p.out, "[bulk] processed %d rows — updated %d\n", summary.Processed, summary.Updated)
	}
	return summary, nil
}

// readAmbiguous reads the optional ambiguous column. Result CSVs written
// by older tooling lack it; those rows import as unambiguous.
func readAmbiguous(record []string, cols *columnSet) bool {
	i, ok := cols.idx["ambiguous"]
	if !ok || i >= len(record) {
		return false
	}
	ambiguous, err := strconv.ParseBool(strings.TrimSpace(record[i]))
	return err == nil && ambiguous
}

// parseCotationsCell decodes a cotations cell. Both shapes that have ever
// been written are accepted: the grade→count object form and the
// [{"grade","count"}] array form. An empty cell is an empty list. If the
// cell fails to parse as-is, one repair is tried: collapsing doubled
// quotes, which spreadsheet round-trips leave behind.
func parseCotationsCell(cell string) ([]model.Cotation, error) {
	raw := strings.TrimSpace(cell)
	if raw == "" {
		return nil, nil
	}

	cotations, err := decodeCotations(raw)
	if err != nil {
		repaired := strings.ReplaceAll(raw, `""`, `"`)
		if repaired == raw {
			return nil, err
		}
		cotations, err = decodeCotations(repaired)
		if err != nil {
			return nil, err
		}
	}
	return cotations, nil
}

func decodeCotations(raw string) ([]model.Cotation, error) {
	if strings.HasPrefix(raw, "[") {
		var arr []model.Cotation
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return decodeCountObject(raw)
}

// decodeCountObject walks a grade→count JSON object with the decoder so
// key order survives: unknown grades keep their relative position when the
// sorter appends them after the known ones. Duplicate keys keep their
// first position with the last value. Count values go through the same
// coercion as classifier output.
func decodeCountObject(raw string) ([]model.Cotation, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("cotations cell is neither an object nor an array")
	}

	var out []model.Cotation
	position := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		count, _ := grade.CoerceCount(value)

		if i, seen := position[key]; seen {
			out[i].Count = count
			continue
		}
		position[key] = len(out)
		out = append(out, model.Cotation{Grade: key, Count: count})
	}

	// Closing brace, then nothing.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after cotations object: %v", tok)
	}
	return out, nil
}
