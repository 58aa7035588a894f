package driver

import (
	"fmt"
	"time"

	streamcontext "github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/metrics"
	"github.com/intel/streambench/internal/progress"
	"github.com/intel/streambench/internal/runtimeenv"
	"github.com/intel/streambench/internal/specs"
	"github.com/intel/streambench/internal/stream"
)

const pollInterval = 100 * time.Millisecond

// IterationResult is one row of the eventual "Test numbers" report
// section (§6 "Report format").
type IterationResult struct {
	Num       int
	Started   time.Time
	Ended     time.Time
	Status    string
	Comment   string
	Results   *metrics.Results
}

// Driver runs one test case (N iterations) for one forked test context
// (§4.6 "Driver").
type Driver struct {
	Spec    *specs.Spec
	Factory *Factory
	Store   *metrics.Store
	Env     *runtimeenv.RuntimeEnv

	Iterations int
	Cooldown   time.Duration

	// Progress, if set, is updated with each stream's lifecycle status
	// as the iteration runs (optional; CLI wires it, tests don't).
	Progress *progress.MultiSpinner
}

func New(spec *specs.Spec, factory *Factory, store *metrics.Store, env *runtimeenv.RuntimeEnv, iterations int, cooldown time.Duration) *Driver {
	if env == nil {
		env = runtimeenv.New(nil)
	}
	return &Driver{Spec: spec, Factory: factory, Store: store, Env: env, Iterations: iterations, Cooldown: cooldown}
}

// runningStream pairs a materialized stream.Stream with the BuiltStream
// metadata the driver needs after it finishes.
type runningStream struct {
	name   string
	thread *stream.Stream
	done   chan struct{}
}

// RunTestCase executes Iterations iterations of the given stream
// configurations for one test context, returning one IterationResult
// per iteration plus the column-wise summary (§4.6, §4/§8 scenario 6).
// interrupted, if non-nil, is polled by the fail-fast loop of every
// running iteration so a process-level SIGINT cascades into whichever
// iteration happens to be in flight, not just the gaps between them
// (§5/§7 "cascades").
func (d *Driver) RunTestCase(streamCfgs []specs.StreamConfig, interrupted func() bool) ([]*IterationResult, *metrics.Results) {
	var results []*IterationResult
	for i := 0; i < d.Iterations; i++ {
		r := d.runIteration(i, streamCfgs, interrupted)
		results = append(results, r)
		if interrupted != nil && interrupted() {
			break
		}
		if d.Cooldown > 0 && i < d.Iterations-1 {
			time.Sleep(d.Cooldown)
		}
	}

	snapshots := make([]*metrics.Results, 0, len(results))
	for _, r := range results {
		snapshots = append(snapshots, r.Results)
	}
	return results, metrics.Summarize(snapshots)
}

func (d *Driver) runIteration(num int, streamCfgs []specs.StreamConfig, interrupted func() bool) *IterationResult {
	started := time.Now()
	result := &IterationResult{Num: num, Started: started, Status: "Completed"}

	// Step 1: build streams, skipping inactive ones.
	var running []*runningStream
	for _, sc := range streamCfgs {
		if !sc.IsActive() {
			continue
		}
		built, err := d.Factory.Build(sc, num)
		if err != nil {
			result.Status = "Error"
			result.Comment = appendComment(result.Comment, fmt.Sprintf("%s build failed: %v", sc.Name, err))
			continue
		}
		th := stream.New(built.Name, built.Delay, built.Timeout, built.Idle, built.Root, d.Env.Log)
		running = append(running, &runningStream{name: built.Name, thread: th, done: make(chan struct{})})
		d.Env.Log.Printf("stream#%d %s: built", built.ID, built.Name)
		if d.Progress != nil {
			d.Progress.Add(built.Name)
			d.Progress.Update(built.Name, "running", false)
		}
	}

	// Step 2: reset metrics.
	d.Store.Reset()

	// Step 3: start all stream threads.
	for _, rs := range running {
		rs := rs
		go func() {
			defer close(rs.done)
			rs.thread.Run()
		}()
	}

	// Step 4: poll loop, fail-fast cross-cancellation.
	d.waitWithFailFast(running, &result.Status, interrupted)

	// Step 5: join (already guaranteed by waitWithFailFast returning
	// only once every thread's done channel is closed).

	// Step 6: per-thread comments; flip Completed -> Error on non-zero exit.
	for _, rs := range running {
		rc := rs.thread.ReturnCode()
		if rc != 0 {
			result.Comment = appendComment(result.Comment, fmt.Sprintf("%s returned=%d", rs.name, rc))
			if result.Status == "Completed" {
				result.Status = "Error"
			}
		}
		if reason := rs.thread.Reason(); reason != "" && rs.thread.Interrupted() {
			if result.Status == "Completed" {
				result.Status = reason
			}
		}
		if d.Progress != nil {
			d.Progress.Done(rs.name, fmt.Sprintf("exit=%d", rc))
		}
	}

	result.Ended = time.Now()
	result.Results = d.Store.Results()
	return result
}

// waitWithFailFast implements §4.6 step 4: poll every 100ms; if any
// thread has interrupted, the iteration status becomes that stream's
// reason string, and if any thread has already exited with a non-zero
// return code, the status becomes "Error" (§8 scenario 2); either way
// every stream that has not yet finished is interrupted, so a finished
// stream keeps its own return code. Then wait for all to finish. An
// external interrupt (process-level SIGINT, threaded down from
// Suite.Run) is treated the same way, with status "user interrupt".
func (d *Driver) waitWithFailFast(running []*runningStream, status *string, interrupted func() bool) {
	if len(running) == 0 {
		return
	}
	isDone := func(rs *runningStream) bool {
		select {
		case <-rs.done:
			return true
		default:
			return false
		}
	}
	allDone := func() bool {
		for _, rs := range running {
			if !isDone(rs) {
				return false
			}
		}
		return true
	}

	for !allDone() {
		for _, rs := range running {
			switch {
			case rs.thread.Interrupted():
				reason := rs.thread.Reason()
				if reason == "" {
					continue
				}
				if *status == "Completed" {
					*status = reason
				}
				for _, other := range running {
					if !isDone(other) {
						other.thread.Interrupt(reason)
					}
				}
			case isDone(rs) && rs.thread.ReturnCode() != 0:
				reason := fmt.Sprintf("%s returned=%d", rs.name, rs.thread.ReturnCode())
				if *status == "Completed" {
					*status = "Error"
				}
				for _, other := range running {
					if !isDone(other) {
						other.thread.Interrupt(reason)
					}
				}
			}
		}
		if interrupted != nil && interrupted() {
			if *status == "Completed" {
				*status = "user interrupt"
			}
			for _, rs := range running {
				if !isDone(rs) {
					rs.thread.Interrupt("user interrupt")
				}
			}
		}
		time.Sleep(pollInterval)
	}
}

func appendComment(existing, add string) string {
	if existing == "" {
		return add
	}
	return existing + "; " + add
}

// BuildTestContext forks the global context and injects the current
// sweep assignment under `curr.*` and at the top level (§3 "Test
// context").
func BuildTestContext(global *streamcontext.Context, assignment Assignment) *streamcontext.Context {
	ctx := global.Fork()
	for _, b := range assignment {
		ctx.Set("curr."+b.Name, b.Value)
		ctx.Set(b.Name, b.Value)
	}
	ctx.Render()
	return ctx
}
