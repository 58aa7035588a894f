package parsers

import "regexp"

// Regex is the `regex` parser class (§4.8): one or more full-line
// patterns with named capture groups; every named group becomes a
// `(name -> captured text)` update. The text is forwarded unconverted;
// the metric store parses it into a number.
type Regex struct {
	Base
	patterns []*regexp.Regexp
}

func NewRegex(updater Updater, patterns []string, alias map[string]string, filter []string) (*Regex, error) {
	r := &Regex{Base: Base{Updater: updater, Alias: alias, Filter: NewFilterSet(filter)}}
	for _, p := range patterns {
		compiled, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		r.patterns = append(r.patterns, compiled)
	}
	return r, nil
}

func (r *Regex) OnStdout(line string) {
	for _, pattern := range r.patterns {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		for i, name := range pattern.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}
			r.update(name, match[i])
		}
		return // §8: "feeding val=3.14 produces exactly one update" — first matching pattern wins
	}
}

func (r *Regex) OnStderr(line string) {}
func (r *Regex) OnEOF()               {}
