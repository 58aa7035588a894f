/*
Package parsers implements the line-oriented output extractors from
spec.md §4.8: regex, split, and mpstat-grid. Each calls back into a
shared Updater once per extracted value; aliasing and filtering are
applied uniformly in update() before forwarding.

Grounded on intel-svr-info's pmu2metrics/metrics.go for the general
shape of "parse a line into named numeric fields and forward them",
generalized into the three declared parser classes.
*/
package parsers

// Updater is the metrics sink a parser forwards extracted values to
// (§4.8 "calls update(metric_name, value) back to the metrics").
type Updater interface {
	Update(name string, value interface{})
}

// Listener is what a pipe node calls as output arrives (§3 "Listener").
type Listener interface {
	OnStdout(line string)
	OnStderr(line string)
	OnEOF()
}

// Base implements the shared alias/filter forwarding logic every parser
// class uses (§4.8 "Aliasing and filtering are applied in update
// before forwarding").
type Base struct {
	Updater Updater
	Alias   map[string]string
	Filter  map[string]bool // nil means "no filter configured"
}

func (b *Base) update(name string, value interface{}) {
	if b.Filter != nil && !b.Filter[name] {
		return
	}
	if alias, ok := b.Alias[name]; ok {
		name = alias
	}
	b.Updater.Update(name, value)
}

// NewFilterSet builds the filter membership set from a configuration's
// `filter: [...]` list; an empty/nil list means "no filtering".
func NewFilterSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
