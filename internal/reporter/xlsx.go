package reporter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/intel/streambench/internal/driver"
)

// XLSXWriter is a supplemental report format alongside the spec-
// mandated CSV, grounded on intel-svr-info's
// reporter/report_generator_xlsx.go cellName/renderExcelTable idiom.
type XLSXWriter struct {
	path string
	f    *excelize.File
	num  int
	row  int

	summaryRow int
}

const testSheet = "Test numbers"
const summarySheet = "Summarized numbers"

func NewXLSXWriter(path string) (*XLSXWriter, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", testSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	return &XLSXWriter{path: path, f: f, row: 1, summaryRow: 1}, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

func (x *XLSXWriter) WriteHeader(title, description, notes string, started time.Time) error {
	x.writeRowTo(testSheet, 1, []string{"Title", "Description", "notes", "Started on"})
	x.writeRowTo(testSheet, 2, []string{title, description, notes, started.Format(time.RFC3339)})
	x.row = 4
	return nil
}

func (x *XLSXWriter) writeRowTo(sheet string, row int, values []string) {
	for i, v := range values {
		_ = x.f.SetCellValue(sheet, cellName(i, row), v)
	}
}

func (x *XLSXWriter) WriteTestCase(vars []driver.Binding, tc *driver.TestCaseResult) error {
	x.num++
	var titles []string
	if len(tc.Iterations) > 0 && tc.Iterations[0].Results != nil {
		titles = tc.Iterations[0].Results.Titles()
	}
	if x.row == 4 {
		header := append([]string{"Num", "Iteration", "Started", "Ended", "Status"}, varNames(vars)...)
		header = append(header, titles...)
		header = append(header, "Comment")
		x.writeRowTo(testSheet, x.row, header)
		x.row++

		sheader := append([]string{"Num", "Started", "Ended", "Iterations", "Successful"}, varNames(vars)...)
		sheader = append(sheader, titles...)
		sheader = append(sheader, "Comment")
		x.writeRowTo(summarySheet, x.summaryRow, sheader)
		x.summaryRow++
	}

	varVals := varValues(vars)
	successful := 0
	for i, it := range tc.Iterations {
		if it.Status == "Completed" {
			successful++
		}
		row := []string{fmt.Sprintf("%d", x.num), fmt.Sprintf("%d", i), it.Started.Format(time.RFC3339), it.Ended.Format(time.RFC3339), it.Status}
		row = append(row, varVals...)
		if it.Results != nil {
			row = append(row, it.Results.Render(false)...)
		}
		row = append(row, it.Comment)
		x.writeRowTo(testSheet, x.row, row)
		x.row++
	}

	var started, ended time.Time
	if len(tc.Iterations) > 0 {
		started = tc.Iterations[0].Started
		ended = tc.Iterations[len(tc.Iterations)-1].Ended
	}
	srow := []string{fmt.Sprintf("%d", x.num), started.Format(time.RFC3339), ended.Format(time.RFC3339), fmt.Sprintf("%d", len(tc.Iterations)), fmt.Sprintf("%d", successful)}
	srow = append(srow, varVals...)
	if tc.Summary != nil {
		srow = append(srow, tc.Summary.Render(false)...)
	}
	x.writeRowTo(summarySheet, x.summaryRow, srow)
	x.summaryRow++
	return nil
}

func (x *XLSXWriter) Close() error {
	return x.f.SaveAs(x.path)
}
