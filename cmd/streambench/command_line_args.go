package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

var reportTypes = []string{"csv", "xlsx"}

// cmdLineArgs mirrors the teacher's CmdLineArgs/command_line_args.go
// idiom: a flat struct filled by a single flag.FlagSet, validated once,
// then read-only for the rest of the run.
type cmdLineArgs struct {
	help   bool
	format string
	output string
	debug  bool
	spec   string
}

func showUsage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-h] [-format SELECT] [-o DIR] [-debug] <path-to-spec>\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, `
runs the benchmark stream driver against a declarative YAML spec file.

general arguments:
  -h                 show this help message and exit

report arguments:
  -format SELECT     comma separated list of report formats: %s (default: csv)

advanced arguments:
  -o DIR             path to output directory (default: ./<spec-base>_<timestamp>)
  -debug             add source file:line to each log entry
`, strings.Join(reportTypes, ","))
}

func newCmdLineArgs() *cmdLineArgs {
	return &cmdLineArgs{}
}

func (a *cmdLineArgs) parse(name string, arguments []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { showUsage() }
	fs.BoolVar(&a.help, "h", false, "")
	fs.StringVar(&a.format, "format", "csv", "")
	fs.StringVar(&a.output, "o", "", "")
	fs.BoolVar(&a.debug, "debug", false, "")
	if err := fs.Parse(arguments); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unrecognized argument(s): %s", strings.Join(fs.Args()[1:], " "))
	}
	if fs.NArg() == 1 {
		a.spec = fs.Arg(0)
	}
	return nil
}

func (a *cmdLineArgs) formats() []string {
	return strings.Split(a.format, ",")
}

func (a *cmdLineArgs) validate() error {
	for _, f := range a.formats() {
		if !slices.Contains(reportTypes, f) {
			return fmt.Errorf("-format %s: invalid report format", f)
		}
	}
	return nil
}
