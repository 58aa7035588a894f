package driver

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v2"

	streamcontext "github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/metrics"
	"github.com/intel/streambench/internal/specs"
)

func newTestDriver(t *testing.T, spec *specs.Spec, iterations int) *Driver {
	t.Helper()
	global := streamcontext.New(nil)
	for k, v := range spec.Globals {
		global.Set(k, v)
	}
	global.Render()
	store := metrics.NewStore(spec.Metrics, nil)
	factory := NewFactory(spec, global, store, nil)
	return New(spec, factory, store, nil, iterations, 0)
}

// TestEndToEndLocalEcho is §8 scenario 1: one local-echo stream against
// a real /bin/echo child, one iteration.
func TestEndToEndLocalEcho(t *testing.T) {
	spec := &specs.Spec{
		Nodes: []specs.NodeConfig{{Name: "dut", Host: "localhost"}},
		Apps: map[string]specs.AppConfig{
			"echo": {Binary: "/bin/echo", Args: []string{"hello"}, Parser: "greeting"},
		},
		Parsers: map[string]specs.ParserConfig{
			"greeting": {Class: "regex", Match: []string{`^(?P<greeting>\w+)$`}},
		},
		Metrics: []specs.MetricConfig{
			{Name: "greeting", Aggregate: []string{"count"}},
		},
		Streams: []specs.StreamConfig{
			{Name: "s1", Node: "dut", App: "echo"},
		},
	}
	d := newTestDriver(t, spec, 1)
	results, _ := d.RunTestCase(spec.Streams, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 iteration result, got %d", len(results))
	}
	r := results[0]
	if r.Status != "Completed" {
		t.Fatalf("status = %q, want Completed", r.Status)
	}
	if r.Comment != "" {
		t.Fatalf("comment = %q, want empty", r.Comment)
	}
	col := findColumn(r.Results, "greeting")
	if col == nil || col.Value == nil || *col.Value != 1 {
		t.Fatalf("greeting column = %+v, want value 1", col)
	}
}

// TestEndToEndFailingStreamCascades is §8 scenario 2: two parallel
// streams, one exiting non-zero immediately, must fail-fast cascade
// into the other within a few seconds rather than the full sleep.
func TestEndToEndFailingStreamCascades(t *testing.T) {
	spec := &specs.Spec{
		Nodes: []specs.NodeConfig{{Name: "dut", Host: "localhost"}},
		Apps: map[string]specs.AppConfig{
			"sleep": {Binary: "/bin/sleep", Args: []string{"5"}},
			"false": {Binary: "/bin/false"},
		},
		Streams: []specs.StreamConfig{
			{Name: "S1", Node: "dut", App: "sleep"},
			{Name: "S2", Node: "dut", App: "false"},
		},
	}
	d := newTestDriver(t, spec, 1)

	start := time.Now()
	results, _ := d.RunTestCase(spec.Streams, nil)
	elapsed := time.Since(start)

	if elapsed > 4*time.Second {
		t.Fatalf("elapsed = %v, expected fail-fast well under the 5s sleep", elapsed)
	}
	r := results[0]
	if r.Status != "Error" {
		t.Fatalf("status = %q, want Error", r.Status)
	}
	if !strings.Contains(r.Comment, "S2 returned=1") {
		t.Fatalf("comment = %q, want it to contain %q", r.Comment, "S2 returned=1")
	}
}

// TestEndToEndIdleTimeout is §8 scenario 3: a quiet child is interrupted
// after its idle timeout, with the required reason wording.
func TestEndToEndIdleTimeout(t *testing.T) {
	spec := &specs.Spec{
		Nodes: []specs.NodeConfig{{Name: "dut", Host: "localhost"}},
		Apps: map[string]specs.AppConfig{
			"quiet": {Binary: "/bin/sleep", Args: []string{"60"}},
		},
		Streams: []specs.StreamConfig{
			{Name: "s1", Node: "dut", App: "quiet", Idle: "2s"},
		},
	}
	d := newTestDriver(t, spec, 1)

	start := time.Now()
	results, _ := d.RunTestCase(spec.Streams, nil)
	elapsed := time.Since(start)

	if elapsed < 2*time.Second || elapsed > 4*time.Second {
		t.Fatalf("elapsed = %v, want roughly 2s (idle timeout), not the 60s sleep", elapsed)
	}
	r := results[0]
	if !strings.Contains(r.Status, "Timeout after 2 seconds of inactivity") {
		t.Fatalf("status = %q, want it to contain the idle-timeout wording", r.Status)
	}
}

// TestEndToEndTestCaseSweepOrder is §8 scenario 5: the Cartesian product
// of test-cases is iterated in declaration order, last-declared
// variable fastest, each with its own forked context.
func TestEndToEndTestCaseSweepOrder(t *testing.T) {
	spec := &specs.Spec{
		Nodes: []specs.NodeConfig{{Name: "dut", Host: "localhost"}},
		Apps: map[string]specs.AppConfig{
			"echo": {Binary: "/bin/echo", Args: []string{"ok"}},
		},
		Streams: []specs.StreamConfig{
			{Name: "s1", Node: "dut", App: "echo"},
		},
		TestCases: yaml.MapSlice{
			{Key: "n", Value: []interface{}{1, 2}},
			{Key: "m", Value: []interface{}{"a", "b"}},
		},
	}
	global := streamcontext.New(nil)
	suite := NewSuite(spec, global, nil)

	results, err := suite.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 test cases, got %d", len(results))
	}
	want := []Assignment{
		{{Name: "n", Value: 1}, {Name: "m", Value: "a"}},
		{{Name: "n", Value: 1}, {Name: "m", Value: "b"}},
		{{Name: "n", Value: 2}, {Name: "m", Value: "a"}},
		{{Name: "n", Value: 2}, {Name: "m", Value: "b"}},
	}
	for i, r := range results {
		if len(r.Iterations) != 1 || r.Iterations[0].Status != "Completed" {
			t.Fatalf("test case %d: iterations = %+v", i, r.Iterations)
		}
		if r.Assignment[0] != want[i][0] || r.Assignment[1] != want[i][1] {
			t.Fatalf("test case %d assignment = %v, want %v", i, r.Assignment, want[i])
		}
	}
}

func findColumn(r *metrics.Results, title string) *metrics.Column {
	if r == nil {
		return nil
	}
	for i := range r.Columns {
		if r.Columns[i].Title == title {
			return &r.Columns[i]
		}
	}
	return nil
}
