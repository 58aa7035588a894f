/*
Package stream implements the per-child supervisor from spec.md §4.5
"Stream thread": delay, spawn, expect/reply, line extraction, timeouts,
and the SIGINT-then-SIGTERM interrupt protocol.

Grounded on intel-svr-info's target.go RunCommandWithTimeout for the
overall spawn/wait/timeout/signal shape, generalized to a pty-backed
child with a live expect-rule read loop instead of a one-shot command.
*/
package stream

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/intel/streambench/internal/pipe"
	"github.com/intel/streambench/internal/ptychild"
)

const (
	tickInterval      = 100 * time.Millisecond
	killGracePeriod   = 5 * time.Second
	partialFlushDelay = 100 * time.Millisecond
	readChunkSize     = 4096
)

// Stream drives one child process through its full lifecycle (§4.5).
type Stream struct {
	Name    string
	Delay   time.Duration
	Timeout time.Duration // 0 disables the absolute timeout
	Idle    time.Duration // 0 disables the idle timeout
	Root    pipe.Node
	Logger  *log.Logger

	// OnLine, if set, is called with every raw (not yet demultiplexed)
	// line observed on the pty. Nothing in this module sets it, and
	// `report.keep_output` is parsed but not wired to any output capture.
	OnLine func(line string)

	mu         sync.Mutex
	child      *ptychild.Child
	interrupted int32
	reason      string
	returncode  int
	err         error
}

func New(name string, delay, timeout, idle time.Duration, root pipe.Node, logger *log.Logger) *Stream {
	if logger == nil {
		logger = log.Default()
	}
	return &Stream{Name: name, Delay: delay, Timeout: timeout, Idle: idle, Root: root, Logger: logger}
}

func (s *Stream) Interrupted() bool   { return atomic.LoadInt32(&s.interrupted) != 0 }
func (s *Stream) Reason() string      { s.mu.Lock(); defer s.mu.Unlock(); return s.reason }
func (s *Stream) ReturnCode() int     { s.mu.Lock(); defer s.mu.Unlock(); return s.returncode }
func (s *Stream) Err() error          { s.mu.Lock(); defer s.mu.Unlock(); return s.err }

// Run executes the full stream lifecycle synchronously; callers run it
// in its own goroutine (one per active stream per iteration, §5).
func (s *Stream) Run() {
	if !s.delayWithInterruptCheck() {
		return
	}

	child, err := ptychild.Spawn(s.Root.Cmdline())
	if err != nil {
		s.fail(fmt.Sprintf("spawn: %v", err))
		return
	}
	s.mu.Lock()
	s.child = child
	s.mu.Unlock()

	s.readLoop(child)

	s.Root.OnClose()
	child.Close()

	if cc, ok := s.Root.(pipe.CredentialChecker); ok {
		if credErr := cc.CredentialError(); credErr != nil {
			s.mu.Lock()
			s.err = credErr
			s.reason = credErr.Error()
			s.mu.Unlock()
		}
	}
}

func (s *Stream) delayWithInterruptCheck() bool {
	if s.Delay <= 0 {
		return true
	}
	deadline := time.Now().Add(s.Delay)
	for time.Now().Before(deadline) {
		if s.Interrupted() {
			return false
		}
		time.Sleep(tickInterval)
	}
	return !s.Interrupted()
}

func (s *Stream) fail(reason string) {
	s.mu.Lock()
	s.reason = reason
	s.returncode = -1
	s.mu.Unlock()
	atomic.StoreInt32(&s.interrupted, 1)
}

type expectState struct {
	rules     []*pipe.ExpectRule
	stdinSent bool
}

func (s *Stream) readLoop(child *ptychild.Child) {
	state := &expectState{rules: append([]*pipe.ExpectRule(nil), s.Root.ExpectStdout()...)}
	if len(state.rules) == 0 {
		s.writeStdin(child, state)
	}

	start := time.Now()
	lastActivity := start
	var buf []byte
	var partial []byte
	lastReadTime := start

	for {
		if s.Interrupted() {
			return
		}
		if rc, ok := child.Poll(); ok {
			s.mu.Lock()
			s.returncode = rc
			s.mu.Unlock()
			return
		}
		if s.Timeout > 0 && time.Since(start) > s.Timeout {
			s.Interrupt(fmt.Sprintf("Timeout after %g seconds", s.Timeout.Seconds()))
			continue
		}
		if s.Idle > 0 && time.Since(lastActivity) > s.Idle {
			s.Interrupt(fmt.Sprintf("Timeout after %g seconds of inactivity", s.Idle.Seconds()))
			continue
		}

		readable, err := waitReadable(int(child.Fd.Fd()), tickInterval)
		if err != nil {
			s.Interrupt(fmt.Sprintf("select: %v", err))
			continue
		}
		if !readable {
			if len(partial) > 0 && time.Since(lastReadTime) >= partialFlushDelay {
				s.handleLine(string(partial), state, child)
				partial = nil
				buf = nil
			}
			continue
		}

		chunk := make([]byte, readChunkSize)
		n, err := child.Fd.Read(chunk)
		if n > 0 {
			lastActivity = time.Now()
			lastReadTime = lastActivity
			buf = append(buf, chunk[:n]...)
			buf = normalizeNewlines(buf)
			var lines []string
			lines, buf = splitCompleteLines(buf)
			for _, line := range lines {
				s.handleLine(line, state, child)
			}
			partial = buf
		}
		if err != nil {
			// read error (including EOF) on a still-running child: let
			// the next Poll() call above decide whether it has exited.
			continue
		}
	}
}

func (s *Stream) handleLine(raw string, state *expectState, child *ptychild.Child) {
	line := strings.TrimRight(raw, "\r")
	if line == "" {
		return
	}
	if s.OnLine != nil {
		s.OnLine(line)
	}

	matched := false
	kept := state.rules[:0]
	for _, rule := range state.rules {
		if matched {
			kept = append(kept, rule)
			continue
		}
		if rule.Pattern.MatchString(line) {
			matched = true
			groups := rule.Pattern.FindStringSubmatch(line)
			action := s.fireRule(rule, line, true, groups)
			s.applyAction(child, action)
			if !action.Remove && rule.Repeat {
				kept = append(kept, rule)
			}
			continue
		}
		if rule.CallAlways {
			action := s.fireRule(rule, line, false, nil)
			s.applyAction(child, action)
			if action.Remove {
				continue
			}
		}
		kept = append(kept, rule)
	}
	state.rules = kept

	if !matched {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.Interrupt(fmt.Sprintf("parse error: %v", r))
				}
			}()
			// Follow the single-child access chain down to a shell wrapper,
			// if any, so its `::<tag>::` demultiplexer routes the line.
			for n := s.Root; ; {
				if w, ok := n.(*pipe.ShellWrapper); ok {
					w.Dispatch(line, func(echelon, payload string) {
						s.Logger.Printf("%s [%s] %s", s.Name, echelon, payload)
					})
					return
				}
				kids := n.Children()
				if len(kids) != 1 {
					break
				}
				n = kids[0]
			}
			s.Root.OnStdout(line)
		}()
	}

	if len(state.rules) == 0 && !state.stdinSent {
		s.writeStdin(child, state)
	}
}

func (s *Stream) fireRule(rule *pipe.ExpectRule, line string, matched bool, groups []string) pipe.ExpectAction {
	if rule.Callback != nil {
		return rule.Callback(line, matched, groups)
	}
	return pipe.ExpectAction{Reply: rule.Reply, HasReply: rule.Reply != ""}
}

func (s *Stream) applyAction(child *ptychild.Child, action pipe.ExpectAction) {
	if !action.HasReply || action.Reply == "" {
		return
	}
	if _, err := child.Fd.Write([]byte(action.Reply)); err != nil {
		s.Interrupt(fmt.Sprintf("write stdin: %v", err))
	}
}

func (s *Stream) writeStdin(child *ptychild.Child, state *expectState) {
	state.stdinSent = true
	payload := s.Root.Stdin() + "\x04"
	if _, err := child.Fd.Write([]byte(payload)); err != nil {
		s.Interrupt(fmt.Sprintf("write stdin: %v", err))
	}
}

// Interrupt implements §4.5's interrupt(reason) protocol: set-once,
// SIGINT, poll up to 5s, SIGTERM, close fd, returncode = -1.
func (s *Stream) Interrupt(reason string) {
	if !atomic.CompareAndSwapInt32(&s.interrupted, 0, 1) {
		return
	}
	s.mu.Lock()
	s.reason = reason
	child := s.child
	s.mu.Unlock()

	if child == nil {
		return
	}
	_ = child.SendSignal(syscall.SIGINT)
	deadline := time.Now().Add(killGracePeriod)
	for time.Now().Before(deadline) {
		if _, ok := child.Poll(); ok {
			break
		}
		time.Sleep(tickInterval)
	}
	if _, ok := child.Poll(); !ok {
		_ = child.Terminate()
	}
	_ = child.Close()

	s.mu.Lock()
	s.returncode = -1
	s.mu.Unlock()
}

func normalizeNewlines(buf []byte) []byte {
	return []byte(strings.ReplaceAll(string(buf), "\r\n", "\n"))
}

func splitCompleteLines(buf []byte) (lines []string, remainder []byte) {
	s := string(buf)
	parts := strings.Split(s, "\n")
	if len(parts) == 1 {
		return nil, buf
	}
	lines = parts[:len(parts)-1]
	remainder = []byte(parts[len(parts)-1])
	return lines, remainder
}
