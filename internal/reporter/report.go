/*
Package reporter is the collaborator interface named in spec.md §1/§6
("CSV report writing") plus a CSV reference implementation and a
supplemental XLSX writer, in the spirit of intel-svr-info's reporter
package (JSON source parsing, excelize table rendering) but targeting
this system's own row/column shape instead of intel-svr-info's.
*/
package reporter

import (
	"time"

	"github.com/intel/streambench/internal/driver"
)

// Writer is the collaborator interface the driver's caller depends on;
// the core never imports a concrete report format directly.
type Writer interface {
	WriteHeader(title, description, notes string, started time.Time) error
	WriteTestCase(vars []driver.Binding, tc *driver.TestCaseResult) error
	Close() error
}
