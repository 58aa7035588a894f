package driver

import (
	"time"

	streamcontext "github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/metrics"
	"github.com/intel/streambench/internal/progress"
	"github.com/intel/streambench/internal/runtimeenv"
	"github.com/intel/streambench/internal/specs"
)

// TestCaseResult is everything the reporter needs for one test case's
// worth of rows: its sweep-variable assignment, every iteration, and
// the cross-iteration summary (§4/§8 scenario 5+6).
type TestCaseResult struct {
	Assignment Assignment
	Iterations []*IterationResult
	Summary    *metrics.Results
}

// Suite runs every test case in the Cartesian-product sweep order and
// collects their results (§2 "Control flow per invocation").
type Suite struct {
	Spec     *specs.Spec
	Global   *streamcontext.Context
	Env      *runtimeenv.RuntimeEnv
	Progress *progress.MultiSpinner
}

func NewSuite(spec *specs.Spec, global *streamcontext.Context, env *runtimeenv.RuntimeEnv) *Suite {
	if env == nil {
		env = runtimeenv.New(nil)
	}
	return &Suite{Spec: spec, Global: global, Env: env}
}

// Run executes the full sweep. interrupted is polled between test cases
// (and, via the per-test-case Driver, between iterations) so a process-
// level SIGINT can abort early with whatever partial results exist so
// far (§7 "User SIGINT").
func (s *Suite) Run(interrupted func() bool) ([]*TestCaseResult, error) {
	testCases, err := NormalizeTestCases(s.Spec)
	if err != nil {
		return nil, err
	}
	assignments := BuildAssignments(testCases)

	iterations, err := timeSpecOrZero(s.Spec.Test.Iterations)
	if err != nil {
		return nil, err
	}
	if iterations == 0 {
		iterations = 1
	}
	cooldown, err := timeSpecOrZero(s.Spec.Test.Cooldown)
	if err != nil {
		return nil, err
	}

	var out []*TestCaseResult
	for _, assignment := range assignments {
		if interrupted != nil && interrupted() {
			break
		}
		testCtx := BuildTestContext(s.Global, assignment)
		store := metrics.NewStore(s.Spec.Metrics, s.Env.Log)
		factory := NewFactory(s.Spec, testCtx, store, s.Env)
		d := New(s.Spec, factory, store, s.Env, int(iterations), time.Duration(cooldown*float64(time.Second)))
		d.Progress = s.Progress

		iterResults, summary := d.RunTestCase(s.Spec.Streams, interrupted)
		out = append(out, &TestCaseResult{Assignment: assignment, Iterations: iterResults, Summary: summary})
	}
	return out, nil
}
