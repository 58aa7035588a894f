package metrics

import (
	"fmt"
	"log"

	"github.com/intel/streambench/internal/specs"
)

// Store is the named collection of Metrics declared by a configuration's
// top-level `metrics:` list (§3 "Metric", §6).
type Store struct {
	order   []string
	metrics map[string]*Metric
	logger  *log.Logger
}

// NewStore builds a Store from the declarative metric list.
func NewStore(cfgs []specs.MetricConfig, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{metrics: map[string]*Metric{}, logger: logger}
	for _, cfg := range cfgs {
		s.order = append(s.order, cfg.Name)
		s.metrics[cfg.Name] = NewMetric(cfg)
	}
	return s
}

// Update dispatches a parsed value to the named metric. An unknown
// metric name is warned, not fatal (§4.8 "UnknownMetric(name)"), since a
// parser's `metrics:` map may reference names from a sibling test case
// configuration that doesn't declare every metric.
func (s *Store) Update(name string, value interface{}) {
	m, ok := s.metrics[name]
	if !ok {
		s.logger.Printf("metrics: update for unknown metric %q ignored", name)
		return
	}
	m.Update(value)
}

// Reset clears every metric's timeseries (start of each iteration).
func (s *Store) Reset() {
	for _, name := range s.order {
		s.metrics[name].Reset()
	}
}

// Get returns the named metric, if declared.
func (s *Store) Get(name string) (*Metric, bool) {
	m, ok := s.metrics[name]
	return m, ok
}

// Column is one reduced value in a Results snapshot, carrying enough
// context (its source Metric) to format or re-aggregate it later.
type Column struct {
	Title  string
	Value  *float64 // nil represents "no data" (§8 Summarize None-handling)
	Metric *Metric
}

// Results is one full snapshot of every metric's aggregated values,
// taken at the end of an iteration (§4.6 "snapshot metrics.results()").
type Results struct {
	Columns []Column
}

// Results snapshots every declared metric through its aggregators, in
// declaration order.
func (s *Store) Results() *Results {
	r := &Results{}
	for _, name := range s.order {
		m := s.metrics[name]
		values := m.Values()
		titles := m.Titles()
		for i, v := range values {
			title := fmt.Sprintf("col%d", i)
			if i < len(titles) {
				title = titles[i]
			}
			vv := v
			r.Columns = append(r.Columns, Column{Title: title, Value: &vv, Metric: m})
		}
	}
	return r
}

// Render formats every column as a string, per each column's own
// Metric.Format, or "" for a nil (missing) value.
func (r *Results) Render(withUnits bool) []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		if c.Value == nil {
			out[i] = ""
			continue
		}
		out[i] = c.Metric.Format(*c.Value, withUnits)
	}
	return out
}

// Titles returns the column titles, in order.
func (r *Results) Titles() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Title
	}
	return out
}

// Summarize column-wise averages a set of same-shaped Results (one per
// iteration) into a single Results, per §4/§8's "Summarized numbers"
// section. A column's nil ("None") entries are dropped from its average
// rather than treated as 0 (Open Question resolution, see DESIGN.md):
// the average is taken over the count of non-nil entries, and a column
// that is nil in every iteration stays nil.
func Summarize(results []*Results) *Results {
	if len(results) == 0 {
		return &Results{}
	}
	width := len(results[0].Columns)
	out := &Results{Columns: make([]Column, width)}
	for col := 0; col < width; col++ {
		out.Columns[col] = Column{
			Title:  results[0].Columns[col].Title,
			Metric: results[0].Columns[col].Metric,
		}
		sum, count := 0.0, 0
		for _, r := range results {
			if col >= len(r.Columns) {
				continue
			}
			v := r.Columns[col].Value
			if v == nil {
				continue
			}
			sum += *v
			count++
		}
		if count > 0 {
			avg := sum / float64(count)
			out.Columns[col].Value = &avg
		}
	}
	return out
}
