package pipe

import (
	"fmt"
	"strconv"
	"strings"
)

// ShellWrapper is the `shell-wrapper` variant (§4.3): it compiles its
// children into one bash program that runs them in parallel with
// per-fragment output prefixing, so a single pty stream can be
// demultiplexed back into per-fragment lines.
type ShellWrapper struct {
	Base
	preHooks  []Node
	postHooks []Node
}

func NewShellWrapper() *ShellWrapper {
	return &ShellWrapper{}
}

func (s *ShellWrapper) AddPreHook(n Node)  { s.preHooks = append(s.preHooks, n) }
func (s *ShellWrapper) AddPostHook(n Node) { s.postHooks = append(s.postHooks, n) }

// Cmdline is fixed regardless of the wrapped children (§4.3 "Command-
// line emission"): line-buffered stdio is required for prompt demux.
func (s *ShellWrapper) Cmdline() []string {
	return []string{"/usr/bin/stdbuf", "-oL", "-eL", "/bin/bash", "/dev/stdin"}
}

// renderFragment turns a child's cmdline/stdin into a shell fragment
// (§4.3 step 1): identity when cmdline is ["eval", text] (the `script`
// variant), else shell-quoted argv, piped from a heredoc when the child
// contributes stdin text.
func renderFragment(n Node) string {
	argv := n.Cmdline()
	var cmd string
	if len(argv) == 2 && argv[0] == "eval" {
		cmd = argv[1]
	} else {
		cmd = shellQuoteArgv(argv)
	}
	if stdin := n.Stdin(); stdin != "" {
		return fmt.Sprintf("%s <<'__STDIN__'\n%s\n__STDIN__", cmd, stdin)
	}
	return cmd
}

// Stdin composes the full bash program from this wrapper's pre-hooks,
// fragment runners, signal traps, and post-hooks (§4.3 "Algorithm").
func (s *ShellWrapper) Stdin() string {
	var b strings.Builder
	b.WriteString("set -o pipefail\n")

	fmt.Fprintf(&b, "__CHILD_PIDS=()\n")
	fmt.Fprintf(&b, "__STATUS_FILES=()\n")
	fmt.Fprintf(&b, "__interrupt() { for p in \"${__CHILD_PIDS[@]}\"; do kill \"$p\" 2>/dev/null; done; }\n")
	b.WriteString("trap __interrupt SIGINT SIGHUP SIGKILL\n")

	for i, hook := range s.preHooks {
		fmt.Fprintf(&b, "if ! { %s ; }; then echo '::W::pre-hook %d failed'; fi\n", renderFragment(hook), i)
	}

	if len(s.postHooks) > 0 {
		var post strings.Builder
		for i, hook := range s.postHooks {
			fmt.Fprintf(&post, "if ! { %s ; }; then echo '::W::post-hook %d failed'; fi\n", renderFragment(hook), i)
		}
		fmt.Fprintf(&b, "__posthooks() { echo '::D::running post-hooks'; %s\necho '::D::post-hooks done'; }\n", post.String())
		b.WriteString("trap __posthooks EXIT\n")
	}

	children := s.Children()
	for i, c := range children {
		fragment := renderFragment(c)
		tag := strconv.Itoa(i)
		// The fragment's own exit code lives in PIPESTATUS[0], valid only
		// for the pipeline that just completed in *this* subshell; $! after
		// a backgrounded `{ ... } &` group is the group's own subshell PID
		// (not the trailing awk's), so wait below joins the fragment's
		// lifetime while its real status is recovered from the status file.
		fmt.Fprintf(&b, "__STATUS_FILE_%s=$(mktemp)\n", tag)
		fmt.Fprintf(&b, "{ ( %s ) 2> >(awk -v t=%s '{print \"::\"t\"::\" $0}' >&2) | awk -v t=%s '{print \"::\"t\"::\" $0}'; echo \"${PIPESTATUS[0]}\" > \"$__STATUS_FILE_%s\"; } &\n", fragment, tag, tag, tag)
		fmt.Fprintf(&b, "__CHILD_PIDS+=($!)\n")
		fmt.Fprintf(&b, "__STATUS_FILES+=(\"$__STATUS_FILE_%s\")\n", tag)
	}

	if len(children) > 0 {
		b.WriteString("wait \"${__CHILD_PIDS[0]}\"\n")
		b.WriteString("__status=$(cat \"${__STATUS_FILES[0]}\" 2>/dev/null)\n")
		b.WriteString("[ -n \"$__status\" ] || __status=1\n")
		b.WriteString("rm -f \"${__STATUS_FILES[@]}\"\n")
		b.WriteString("__interrupt\n")
		b.WriteString("exit $__status\n")
	}
	return b.String()
}

// ExpectStdout/ExpectStderr pass through: the wrapper itself installs
// none of its own.
func (s *ShellWrapper) ExpectStdout() []*ExpectRule { return s.Base.ExpectStdout() }
func (s *ShellWrapper) ExpectStderr() []*ExpectRule { return s.Base.ExpectStderr() }

// DemuxTag classifies one `::<tag>::` prefixed line per §4.3/§6 "Shell
// protocol line format": a log echelon (I/W/E/D), a fragment index, or
// unrecognized.
type DemuxTag struct {
	Log     string // "I", "W", "E", "D" when this is a log line
	Index   int    // fragment index when this is a numeric tag
	IsIndex bool
	Valid   bool
}

// ParseDemuxLine splits a raw pty line into its tag and payload.
func ParseDemuxLine(line string) (tag DemuxTag, payload string) {
	if !strings.HasPrefix(line, "::") {
		return DemuxTag{}, ""
	}
	rest := line[2:]
	idx := strings.Index(rest, "::")
	if idx < 0 {
		return DemuxTag{}, ""
	}
	tagText := rest[:idx]
	payload = rest[idx+2:]
	switch tagText {
	case "I", "W", "E", "D":
		return DemuxTag{Log: tagText, Valid: true}, payload
	}
	if n, err := strconv.Atoi(tagText); err == nil && n >= 0 {
		return DemuxTag{Index: n, IsIndex: true, Valid: true}, payload
	}
	return DemuxTag{}, ""
}

// Dispatch routes one already-tagged stdout line to the right child, or
// handles it as a log line, per §4.3 "Output demux". logf receives
// (echelon, payload) for I/W/E/D lines.
func (s *ShellWrapper) Dispatch(line string, logf func(echelon, payload string)) {
	tag, payload := ParseDemuxLine(line)
	if !tag.Valid {
		return // malformed/untagged: dropped (caller may debug-log)
	}
	if tag.Log != "" {
		if logf != nil {
			logf(tag.Log, payload)
		}
		return
	}
	children := s.Children()
	if tag.Index < 0 || tag.Index >= len(children) {
		return
	}
	children[tag.Index].OnStdout(payload)
}
