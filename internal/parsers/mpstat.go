package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

var mpstatRowPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}`)

// MpstatGrid is the `mpstat-grid` parser class (§4.8): it learns the
// column layout from mpstat's `%usr` header row, collects subsequent
// per-CPU rows into a matrix, and on the first non-matching line (or on
// EOF) resolves each configured `metric -> "<cpu>.<field>"` query
// against that matrix.
type MpstatGrid struct {
	Base
	// Queries maps a metric name to a "<cpu>.<field>" lookup, e.g.
	// {"user_pct": "all.%usr", "cpu0_idle": "0.%idle"}.
	Queries map[string]string

	fields  []string // column name per position, after the CPU column
	matrix  map[string]map[string]float64
	resolved bool
}

func NewMpstatGrid(updater Updater, queries map[string]string, alias map[string]string, filter []string) *MpstatGrid {
	return &MpstatGrid{
		Base:    Base{Updater: updater, Alias: alias, Filter: NewFilterSet(filter)},
		Queries: queries,
		matrix:  map[string]map[string]float64{},
	}
}

func (m *MpstatGrid) OnStdout(line string) {
	fields := strings.Fields(line)

	if containsToken(fields, "%usr") {
		m.learnHeader(fields)
		return
	}
	if mpstatRowPattern.MatchString(line) {
		m.collectRow(fields)
		return
	}
	// first non-matching line after we've started collecting: resolve.
	if len(m.matrix) > 0 && !m.resolved {
		m.resolve()
	}
}

func (m *MpstatGrid) OnStderr(line string) {}

func (m *MpstatGrid) OnEOF() {
	if len(m.matrix) > 0 && !m.resolved {
		m.resolve()
	}
}

func containsToken(fields []string, tok string) bool {
	for _, f := range fields {
		if f == tok {
			return true
		}
	}
	return false
}

func (m *MpstatGrid) learnHeader(fields []string) {
	idx := -1
	for i, f := range fields {
		if f == "CPU" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(fields) {
		return
	}
	m.fields = append([]string(nil), fields[idx+1:]...)
}

func (m *MpstatGrid) collectRow(fields []string) {
	if len(m.fields) == 0 {
		return
	}
	// skip the HH:MM:SS token and an optional AM/PM token to reach CPU id.
	i := 1
	if i < len(fields) && (fields[i] == "AM" || fields[i] == "PM") {
		i++
	}
	if i >= len(fields) {
		return
	}
	cpu := fields[i]
	values := fields[i+1:]
	row := map[string]float64{}
	for j, name := range m.fields {
		if j >= len(values) {
			break
		}
		f, err := strconv.ParseFloat(values[j], 64)
		if err != nil {
			continue
		}
		row[name] = f
	}
	m.matrix[cpu] = row
}

func (m *MpstatGrid) resolve() {
	m.resolved = true
	for metric, query := range m.Queries {
		parts := strings.SplitN(query, ".", 2)
		if len(parts) != 2 {
			continue
		}
		cpu, field := parts[0], parts[1]
		row, ok := m.matrix[cpu]
		if !ok {
			continue
		}
		v, ok := row[field]
		if !ok {
			continue
		}
		m.update(metric, v)
	}
}
