/*
Package main is the CLI entry point: `<program> <path-to-spec>`, wiring
specs.FileLoader -> the global Context -> driver.Suite -> a reporter.Writer,
in the same mainReturnWithCode/os.Exit shape the teacher's
src/orchestrator/main.go uses.
*/
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"

	streamcontext "github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/driver"
	"github.com/intel/streambench/internal/progress"
	"github.com/intel/streambench/internal/reporter"
	"github.com/intel/streambench/internal/runtimeenv"
	"github.com/intel/streambench/internal/specs"
)

const (
	retNoError = 0
	retError   = 1
	retNoArgs  = 2
)

func promptForPasswords(spec *specs.Spec) error {
	for i := range spec.Nodes {
		for j := range spec.Nodes[i].Access {
			a := &spec.Nodes[i].Access[j]
			if a.Password != "-" {
				continue
			}
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				log.Printf("NOT prompting for %s password, STDIN isn't a terminal", spec.Nodes[i].Name)
				a.Password = ""
				continue
			}
			fmt.Printf("password for %s@%s: ", a.User, a.Host)
			pwd, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return err
			}
			a.Password = string(pwd)
		}
	}
	return nil
}

func buildGlobalContext(spec *specs.Spec, logger *log.Logger) *streamcontext.Context {
	ctx := streamcontext.New(logger)
	for k, v := range spec.Globals {
		ctx.Set(k, v)
	}
	ctx.Render()
	return ctx
}

func buildWriters(outputDir string, formats []string) ([]reporter.Writer, func(), error) {
	var writers []reporter.Writer
	var closers []func() error
	for _, f := range formats {
		switch f {
		case "csv":
			w, err := reporter.NewCSVWriter(filepath.Join(outputDir, "report.csv"))
			if err != nil {
				return nil, nil, err
			}
			writers = append(writers, w)
			closers = append(closers, w.Close)
		case "xlsx":
			w, err := reporter.NewXLSXWriter(filepath.Join(outputDir, "report.xlsx"))
			if err != nil {
				return nil, nil, err
			}
			writers = append(writers, w)
			closers = append(closers, w.Close)
		}
	}
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("closing report writer: %v", err)
			}
		}
	}
	return writers, closeAll, nil
}

func writeResults(writers []reporter.Writer, spec *specs.Spec, started time.Time, results []*driver.TestCaseResult) error {
	for _, w := range writers {
		if err := w.WriteHeader(spec.Report.Name, spec.Notes, "", started); err != nil {
			return err
		}
		for _, tc := range results {
			if err := w.WriteTestCase(tc.Assignment, tc); err != nil {
				return err
			}
		}
	}
	return nil
}

func mainReturnWithCode() int {
	args := newCmdLineArgs()
	if len(os.Args) < 2 {
		showUsage()
		return retNoArgs
	}
	if err := args.parse(os.Args[0], os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}
	if args.help {
		showUsage()
		return retNoError
	}
	if err := args.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}
	if args.spec == "" {
		showUsage()
		return retNoArgs
	}
	if exists, err := fileExists(args.spec); err != nil || !exists {
		fmt.Fprintf(os.Stderr, "spec file not found: %s\n", args.spec)
		return retError
	}

	outputDir := args.output
	if outputDir == "" {
		base := strings.TrimSuffix(filepath.Base(args.spec), filepath.Ext(args.spec))
		outputDir = fmt.Sprintf("%s_%s", base, time.Now().Local().Format("2006-01-02_15-04-05"))
	}
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}

	logFile, err := os.OpenFile(filepath.Join(outputDir, "streambench.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags|log.Lmicroseconds)
	if args.debug {
		logger.SetFlags(logger.Flags() | log.Lshortfile)
	}
	logger.Printf("starting %s, PID %d, arguments: %s", filepath.Base(os.Args[0]), os.Getpid(), strings.Join(os.Args[1:], " "))

	loader := specs.NewFileLoader()
	spec, err := loader.Load(args.spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}

	if err := promptForPasswords(spec); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}

	env := runtimeenv.New(logger)
	global := buildGlobalContext(spec, logger)

	writers, closeWriters, err := buildWriters(outputDir, args.formats())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}
	defer closeWriters()

	var spinner *progress.MultiSpinner
	if term.IsTerminal(int(os.Stdout.Fd())) {
		spinner = progress.New(os.Stdout)
		spinner.Start(120 * time.Millisecond)
		defer spinner.Stop()
	}

	suite := driver.NewSuite(spec, global, env)
	suite.Progress = spinner

	var interruptedFlag int32
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Print("received interrupt, interrupting running streams then stopping")
		atomic.StoreInt32(&interruptedFlag, 1)
	}()
	defer signal.Stop(sigc)

	started := time.Now()
	results, err := suite.Run(func() bool { return atomic.LoadInt32(&interruptedFlag) != 0 })
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}

	if err := writeResults(writers, spec, started, results); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return retError
	}

	if atomic.LoadInt32(&interruptedFlag) != 0 {
		return retError
	}
	return retNoError
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func main() { os.Exit(mainReturnWithCode()) }
