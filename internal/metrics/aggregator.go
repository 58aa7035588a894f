package metrics

import "strings"

// sample is one timestamped update to a metric's timeseries.
type sample struct {
	t float64 // seconds since the metric's last reset
	v float64
}

// Aggregator reduces a metric's timeseries to one or more named values
// (§3 "Metric" aggregators: avg, min, max, sum, count, bandwidth).
type Aggregator interface {
	// Titles returns the column title(s) this aggregator contributes,
	// appended to the metric's own title.
	Titles() []string
	// Collect reduces series to Titles()-many values, in order.
	Collect(series []sample) []float64
}

// NewAggregator builds an Aggregator from one `aggregate:` entry, e.g.
// "avg", "bandwidth", "bandwidth:partial", "bandwidth:operations:512".
func NewAggregator(spec string) Aggregator {
	parts := strings.Split(spec, ":")
	name := parts[0]
	switch name {
	case "avg":
		return avgAggregator{}
	case "min":
		return minAggregator{}
	case "max":
		return maxAggregator{}
	case "sum":
		return sumAggregator{}
	case "count":
		return countAggregator{}
	case "bandwidth":
		mode := "incrementing"
		if len(parts) > 1 && parts[1] != "" {
			mode = parts[1]
		}
		opsize := 1.0
		if len(parts) > 2 {
			if f := parseFloatOrZero(parts[2]); f > 0 {
				opsize = f
			}
		}
		return bandwidthAggregator{mode: mode, opsize: opsize}
	default:
		return avgAggregator{}
	}
}

func parseFloatOrZero(s string) float64 {
	f := 0.0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		f = f*10 + float64(r-'0')
	}
	return f
}

type avgAggregator struct{}

func (avgAggregator) Titles() []string { return []string{"avg"} }
func (avgAggregator) Collect(series []sample) []float64 {
	if len(series) == 0 {
		return []float64{0}
	}
	sum := 0.0
	for _, s := range series {
		sum += s.v
	}
	return []float64{sum / float64(len(series))}
}

type minAggregator struct{}

func (minAggregator) Titles() []string { return []string{"min"} }
func (minAggregator) Collect(series []sample) []float64 {
	if len(series) == 0 {
		return []float64{0}
	}
	m := series[0].v
	for _, s := range series[1:] {
		if s.v < m {
			m = s.v
		}
	}
	return []float64{m}
}

type maxAggregator struct{}

func (maxAggregator) Titles() []string { return []string{"max"} }
func (maxAggregator) Collect(series []sample) []float64 {
	if len(series) == 0 {
		return []float64{0}
	}
	m := series[0].v
	for _, s := range series[1:] {
		if s.v > m {
			m = s.v
		}
	}
	return []float64{m}
}

type sumAggregator struct{}

func (sumAggregator) Titles() []string { return []string{"sum"} }
func (sumAggregator) Collect(series []sample) []float64 {
	sum := 0.0
	for _, s := range series {
		sum += s.v
	}
	return []float64{sum}
}

type countAggregator struct{}

func (countAggregator) Titles() []string { return []string{"count"} }
func (countAggregator) Collect(series []sample) []float64 {
	return []float64{float64(len(series))}
}

// bandwidthAggregator computes a per-window rate between consecutive
// samples and reports avg/min/max over those windows.
//
// The spec's worked example referenced an undefined `prev` when computing
// the rate; resolved here (see DESIGN.md "Open Question decisions") as:
// delta_t = sample[i].t - sample[i-1].t ("last_t"), and the per-sample
// delta depends on mode:
//   - incrementing: the metric carries a cumulative counter, so
//     delta_v = sample[i].v - sample[i-1].v ("last_v").
//   - partial: the metric already carries a per-sample byte count, so
//     the window's numerator is just sample[i].v.
//   - operations: the metric carries a per-sample operation count,
//     scaled by opsize bytes/op.
type bandwidthAggregator struct {
	mode   string
	opsize float64
}

func (bandwidthAggregator) Titles() []string { return []string{"bw_avg", "bw_min", "bw_max"} }

func (b bandwidthAggregator) Collect(series []sample) []float64 {
	if len(series) < 2 {
		return []float64{0, 0, 0}
	}
	rates := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		lastT := series[i].t - series[i-1].t
		if lastT <= 0 {
			continue
		}
		var numerator float64
		switch b.mode {
		case "partial":
			numerator = series[i].v
		case "operations":
			numerator = series[i].v * b.opsize
		default: // incrementing
			lastV := series[i].v - series[i-1].v
			if lastV < 0 {
				continue // counter reset; skip this window
			}
			numerator = lastV
		}
		rates = append(rates, numerator/lastT)
	}
	if len(rates) == 0 {
		return []float64{0, 0, 0}
	}
	sum, min, max := 0.0, rates[0], rates[0]
	for _, r := range rates {
		sum += r
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	return []float64{sum / float64(len(rates)), min, max}
}
