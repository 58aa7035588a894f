/*
Package metrics implements the timeseries + aggregation + formatting
system described in spec.md §3 ("Metric") and §4.9 ("Metrics pipeline").
A parser (internal/parsers) calls Update on a named metric as it scrapes
matching output lines; the driver snapshots Results() at the end of each
iteration and Summarize()s across iterations for the final report.
*/
package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/intel/streambench/internal/specs"
)

// Metric accumulates a named timeseries and reduces it through one or
// more Aggregators. All methods are safe for concurrent use: multiple
// stream threads may update metrics from a shared Store concurrently
// (§5 "Concurrency model").
type Metric struct {
	Name        string
	Title       string
	Units       string
	Scale       float64
	Decimals    int
	Prefix      string
	ShowUnits   bool
	Initial     float64
	aggregators []Aggregator

	mu        sync.Mutex
	series    []sample
	resetTime time.Time
}

// NewMetric builds a Metric from its declarative configuration.
func NewMetric(cfg specs.MetricConfig) *Metric {
	title := cfg.Title
	if title == "" {
		title = cfg.Name
	}
	aggs := make([]Aggregator, 0, len(cfg.Aggregate))
	for _, a := range cfg.Aggregate {
		aggs = append(aggs, NewAggregator(a))
	}
	if len(aggs) == 0 {
		aggs = append(aggs, avgAggregator{})
	}
	return &Metric{
		Name:        cfg.Name,
		Title:       title,
		Units:       cfg.Units,
		Scale:       cfg.Scale,
		Decimals:    cfg.Dec,
		Prefix:      cfg.Prefix,
		ShowUnits:   cfg.ShowUnits,
		Initial:     cfg.Initial,
		aggregators: aggs,
		resetTime:   time.Now(),
	}
}

// Update appends value at the current time. Numeric parsing is forgiving
// (§4.8 "Parsers"): a value that doesn't parse as a number is recorded
// as 0.0 rather than rejected.
func (m *Metric) Update(value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = append(m.series, sample{
		t: time.Since(m.resetTime).Seconds(),
		v: toFloatForgiving(value),
	})
}

func toFloatForgiving(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Reset clears the timeseries and reseeds it with Initial, if any (§4.6
// "reset metrics" at the start of each iteration).
func (m *Metric) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = nil
	m.resetTime = time.Now()
	if m.Initial != 0 {
		m.series = append(m.series, sample{t: 0, v: m.Initial})
	}
}

// Titles returns one title per value Values() will produce, each
// combining the metric's own title with its aggregator's column suffix,
// except when there is exactly one aggregator contributing exactly one
// value, in which case the metric's bare title is used (§4.9 "single-
// aggregator single-title metrics use just the metric title").
func (m *Metric) Titles() []string {
	if len(m.aggregators) == 1 && len(m.aggregators[0].Titles()) == 1 {
		return []string{m.Title}
	}
	var out []string
	for _, a := range m.aggregators {
		for _, t := range a.Titles() {
			out = append(out, fmt.Sprintf("%s %s", m.Title, t))
		}
	}
	return out
}

// Values reduces the timeseries through each aggregator in turn,
// producing one value per Titles() entry.
func (m *Metric) Values() []float64 {
	m.mu.Lock()
	series := append([]sample(nil), m.series...)
	m.mu.Unlock()

	var out []float64
	for _, a := range m.aggregators {
		out = append(out, a.Collect(series)...)
	}
	return out
}

// Format renders v (one of Values()'s entries) per the metric's scale,
// decimal precision, prefix mode, and unit display configuration.
func (m *Metric) Format(v float64, withUnits bool) string {
	return Format(v*m.Scale, m.Decimals, m.Prefix, m.Units, withUnits, m.ShowUnits)
}
