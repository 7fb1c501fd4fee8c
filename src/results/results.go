// Package results reads and writes the simulator's comma separated results table.
//
// The file has a header row naming its columns. The plotter only needs event_rate,
// energy_saved and latency_increase; the simulator writes the full schema:
//
//	event_rate,fixed_latency,adaptive_latency,fixed_polls,adaptive_polls,energy_saved,latency_increase
//
// Column order is not significant when reading and unknown columns are ignored.
package results

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultResultsFile is the table both commands use when no path is given.
const DefaultResultsFile = "results.csv"

// Column names.
const (
	ColEventRate       = "event_rate"
	ColFixedLatency    = "fixed_latency"
	ColAdaptiveLatency = "adaptive_latency"
	ColFixedPolls      = "fixed_polls"
	ColAdaptivePolls   = "adaptive_polls"
	ColEnergySaved     = "energy_saved"
	ColLatencyIncrease = "latency_increase"
)

// RequiredColumns must be present in every table handed to the plotter.
var RequiredColumns = []string{ColEventRate, ColEnergySaved, ColLatencyIncrease}

// Header is the column order written by Write.
var Header = []string{
	ColEventRate, ColFixedLatency, ColAdaptiveLatency,
	ColFixedPolls, ColAdaptivePolls, ColEnergySaved, ColLatencyIncrease,
}

var (
	ErrEmptyInput    = errors.New("results: input has no header row")
	ErrMissingColumn = errors.New("results: missing required column")
	ErrNotNumeric    = errors.New("results: non-numeric value")
)

// Record is one row of the results table. The simulator-only fields are zero when the
// source table does not carry those columns.
type Record struct {
	EventRate       float64
	FixedLatency    float64
	AdaptiveLatency float64
	FixedPolls      int
	AdaptivePolls   int
	EnergySaved     float64
	LatencyIncrease float64
}

// Table is a loaded results file. Records keep file order.
type Table struct {
	Header  []string
	Records []Record
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the source header carried name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Column returns the values of a numeric column in row order.
func (t *Table) Column(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
	}
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		switch name {
		case ColEventRate:
			out[i] = r.EventRate
		case ColFixedLatency:
			out[i] = r.FixedLatency
		case ColAdaptiveLatency:
			out[i] = r.AdaptiveLatency
		case ColFixedPolls:
			out[i] = float64(r.FixedPolls)
		case ColAdaptivePolls:
			out[i] = float64(r.AdaptivePolls)
		case ColEnergySaved:
			out[i] = r.EnergySaved
		case ColLatencyIncrease:
			out[i] = r.LatencyIncrease
		default:
			return nil, fmt.Errorf("results: column %q is not numeric", name)
		}
	}
	return out, nil
}

// Load opens path and parses it as a results table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer func() { _ = f.Close() }()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a results table from r. Every required column must be present and every
// value in a known column must parse as a number.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}

	t := &Table{Header: header}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		rec, err := decodeRecord(record, index, line)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func decodeRecord(record []string, index map[string]int, line int) (Record, error) {
	var rec Record
	float := func(col string, dst *float64) error {
		i, ok := index[col]
		if !ok {
			return nil
		}
		v, err := parseFloat(record, i)
		if err != nil {
			return fmt.Errorf("%w in row %d column %q: %v", ErrNotNumeric, line, col, err)
		}
		*dst = v
		return nil
	}
	integer := func(col string, dst *int) error {
		var v float64
		if err := float(col, &v); err != nil {
			return err
		}
		*dst = int(v)
		return nil
	}
	for _, step := range []error{
		float(ColEventRate, &rec.EventRate),
		float(ColFixedLatency, &rec.FixedLatency),
		float(ColAdaptiveLatency, &rec.AdaptiveLatency),
		integer(ColFixedPolls, &rec.FixedPolls),
		integer(ColAdaptivePolls, &rec.AdaptivePolls),
		float(ColEnergySaved, &rec.EnergySaved),
		float(ColLatencyIncrease, &rec.LatencyIncrease),
	} {
		if step != nil {
			return Record{}, step
		}
	}
	return rec, nil
}

func parseFloat(record []string, i int) (float64, error) {
	if i >= len(record) {
		return 0, errors.New("field missing")
	}
	return strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
}

// Write emits the header followed by one line per record.
func Write(w io.Writer, recs []Record) error {
	if _, err := io.WriteString(w, strings.Join(Header, ",")+"\n"); err != nil {
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(w, "%.3f,%.3f,%.3f,%d,%d,%.2f,%.2f\n",
			r.EventRate, r.FixedLatency, r.AdaptiveLatency, r.FixedPolls, r.AdaptivePolls,
			r.EnergySaved, r.LatencyIncrease); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes recs to path, replacing any existing file.
func WriteFile(path string, recs []Record) error {
	var buf bytes.Buffer
	if err := Write(&buf, recs); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
