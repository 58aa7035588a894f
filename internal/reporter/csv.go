package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/driver"
)

// CSVWriter renders the report format from §6: a metadata header block,
// a "Test numbers" section (one row per iteration across every test
// case), and a "Summarized numbers" section (one row per test case).
type CSVWriter struct {
	f   *os.File
	w   *csv.Writer
	num int

	testRows    [][]string
	summaryRows [][]string
	titles      []string
	varNames    []string
}

func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("reporter: create %s: %w", path, err)
	}
	return &CSVWriter{f: f, w: csv.NewWriter(f)}, nil
}

func (c *CSVWriter) WriteHeader(title, description, notes string, started time.Time) error {
	return c.w.WriteAll([][]string{
		{"Title", "Description", "notes", "Started on"},
		{title, description, notes, started.Format(time.RFC3339)},
		{},
	})
}

func varNames(vars []driver.Binding) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name
	}
	return out
}

func varValues(vars []driver.Binding) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = context.ToString(v.Value)
	}
	return out
}

// WriteTestCase buffers one test case's iteration rows and summary row;
// actual CSV sections are emitted in Close so the "Test numbers" table
// can share one consistent column header across every test case.
func (c *CSVWriter) WriteTestCase(vars []driver.Binding, tc *driver.TestCaseResult) error {
	c.num++
	if c.titles == nil && len(tc.Iterations) > 0 && tc.Iterations[0].Results != nil {
		c.titles = tc.Iterations[0].Results.Titles()
	}
	if c.varNames == nil {
		c.varNames = varNames(vars)
	}

	varVals := varValues(vars)
	successful := 0
	for i, it := range tc.Iterations {
		if it.Status == "Completed" {
			successful++
		}
		row := []string{
			fmt.Sprintf("%d", c.num),
			fmt.Sprintf("%d", i),
			it.Started.Format(time.RFC3339),
			it.Ended.Format(time.RFC3339),
			it.Status,
		}
		row = append(row, varVals...)
		if it.Results != nil {
			row = append(row, it.Results.Render(false)...)
		}
		row = append(row, it.Comment)
		c.testRows = append(c.testRows, row)
	}

	summaryStatus := ""
	var started, ended time.Time
	if len(tc.Iterations) > 0 {
		started = tc.Iterations[0].Started
		ended = tc.Iterations[len(tc.Iterations)-1].Ended
		summaryStatus = tc.Iterations[len(tc.Iterations)-1].Comment
	}
	row := []string{
		fmt.Sprintf("%d", c.num),
		started.Format(time.RFC3339),
		ended.Format(time.RFC3339),
		fmt.Sprintf("%d", len(tc.Iterations)),
		fmt.Sprintf("%d", successful),
	}
	row = append(row, varVals...)
	if tc.Summary != nil {
		row = append(row, tc.Summary.Render(false)...)
	}
	row = append(row, summaryStatus)
	c.summaryRows = append(c.summaryRows, row)
	return nil
}

func (c *CSVWriter) Close() error {
	varHeader := c.varNames

	testHeader := append([]string{"Num", "Iteration", "Started", "Ended", "Status"}, varHeader...)
	testHeader = append(testHeader, c.titles...)
	testHeader = append(testHeader, "Comment")

	summaryHeader := append([]string{"Num", "Started", "Ended", "Iterations", "Successful"}, varHeader...)
	summaryHeader = append(summaryHeader, c.titles...)
	summaryHeader = append(summaryHeader, "Comment")

	_ = c.w.Write([]string{"Test numbers"})
	_ = c.w.Write(testHeader)
	for _, row := range c.testRows {
		_ = c.w.Write(row)
	}
	_ = c.w.Write(nil)
	_ = c.w.Write([]string{"Summarized numbers"})
	_ = c.w.Write(summaryHeader)
	for _, row := range c.summaryRows {
		_ = c.w.Write(row)
	}

	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.f.Close()
}
