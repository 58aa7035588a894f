package metrics

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/intel/streambench/internal/specs"
)

func TestAvgAggregator(t *testing.T) {
	m := NewMetric(specs.MetricConfig{Name: "x", Aggregate: []string{"avg"}})
	m.Update(1.0)
	m.Update(3.0)
	vals := m.Values()
	if len(vals) != 1 || vals[0] != 2 {
		t.Fatalf("avg = %v", vals)
	}
}

func TestBandwidthIncrementingNonNegative(t *testing.T) {
	agg := bandwidthAggregator{mode: "incrementing"}
	series := []sample{{t: 0, v: 0}, {t: 1, v: 100}, {t: 2, v: 300}}
	out := agg.Collect(series)
	if len(out) != 3 {
		t.Fatalf("expected 3 values, got %v", out)
	}
	for _, v := range out {
		if v < 0 {
			t.Fatalf("bandwidth value negative: %v", out)
		}
	}
}

func TestStoreUnknownMetricIsNonFatal(t *testing.T) {
	s := NewStore(nil, nil)
	s.Update("nonexistent", 1.0) // must not panic
}

func TestSummarizeDropsNoneValues(t *testing.T) {
	v1, v2 := 10.0, 20.0
	r1 := &Results{Columns: []Column{{Title: "t", Value: &v1, Metric: NewMetric(specs.MetricConfig{Name: "t"})}}}
	r2 := &Results{Columns: []Column{{Title: "t", Value: nil, Metric: r1.Columns[0].Metric}}}
	r3 := &Results{Columns: []Column{{Title: "t", Value: &v2, Metric: r1.Columns[0].Metric}}}

	out := Summarize([]*Results{r1, r2, r3})
	if out.Columns[0].Value == nil {
		t.Fatal("expected non-nil average")
	}
	if *out.Columns[0].Value != 15 {
		t.Fatalf("avg = %v, want 15 (None dropped, not counted as 0)", *out.Columns[0].Value)
	}
}

func TestFormatSIPrefix(t *testing.T) {
	got := Format(2_500_000, 2, "si", "B/s", true, false)
	if got != "2.50MB/s" {
		t.Fatalf("Format = %q", got)
	}
}

func TestStoreResultsTitlesSnapshot(t *testing.T) {
	s := NewStore([]specs.MetricConfig{
		{Name: "cpu", Title: "CPU", Aggregate: []string{"avg"}},
		{Name: "bw", Title: "Bandwidth", Aggregate: []string{"min", "max"}},
	}, nil)
	got := s.Results().Titles()
	want := []string{"CPU", "Bandwidth min", "Bandwidth max"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Titles() mismatch (-want +got):\n%s", diff)
	}
}
