package roundbias

import (
	"fmt"
	"sort"
	"strings"
)

// EdgePolicy decides what the first window−1 positions of a stratum get,
// where a full trailing window is not yet available.
type EdgePolicy int

const (
	// EdgeMissing leaves SmoothedBias nil until the window is full.
	EdgeMissing EdgePolicy = iota
	// EdgeShrink averages over the values seen so far.
	EdgeShrink
)

func (e EdgePolicy) String() string {
	switch e {
	case EdgeMissing:
		return "missing"
	case EdgeShrink:
		return "shrink"
	default:
		return fmt.Sprintf("EdgePolicy(%d)", int(e))
	}
}

// ParseEdgePolicy accepts "missing" (or empty) and "shrink".
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "missing":
		return EdgeMissing, nil
	case "shrink":
		return EdgeShrink, nil
	default:
		return 0, configErrorf("unknown smoothing edge policy %q (want missing or shrink)", s)
	}
}

// Stratum is the μ-ordered set of records sharing (ν, sample size).
type Stratum struct {
	Key     StratumKey
	Records []BiasRecord
}

// GroupStrata partitions records by (ν, sample size). Strata keep the order
// in which their first record appears; records inside a stratum are sorted
// by μ ascending (stable, so equal μ keep input order). The input slice is
// not reordered.
func GroupStrata(records []BiasRecord) []Stratum {
	index := make(map[StratumKey]int)
	var strata []Stratum

	for _, rec := range records {
		key := rec.Cell.Stratum()
		i, ok := index[key]
		if !ok {
			i = len(strata)
			index[key] = i
			strata = append(strata, Stratum{Key: key})
		}
		strata[i].Records = append(strata[i].Records, rec)
	}

	for _, s := range strata {
		recs := s.Records
		sort.SliceStable(recs, func(a, b int) bool {
			return recs[a].Cell.Mean < recs[b].Cell.Mean
		})
	}
	return strata
}

// Smooth attaches a trailing moving average of bias to every record.
//
// Within each (ν, sample size) stratum the records are ordered by μ and the
// smoothed value at position i is the arithmetic mean of the biases at
// positions i−window+1 … i. Strata are never mixed. The first window−1
// positions follow edge. Smoothing is a presentation aid only: Bias is
// copied through unchanged.
//
// The result has the same length as records, grouped by stratum (in
// first-appearance order) and sorted by μ within each stratum. records
// itself is not modified.
func Smooth(records []BiasRecord, window int, edge EdgePolicy) ([]BiasRecord, error) {
	if window < 1 {
		return nil, configErrorf("smoothing window %d must be ≥ 1", window)
	}
	if edge != EdgeMissing && edge != EdgeShrink {
		return nil, configErrorf("unknown smoothing edge policy %v", edge)
	}

	out := make([]BiasRecord, 0, len(records))
	w := newMovingWindow(window)

	for _, s := range GroupStrata(records) {
		w.Reset()
		for _, rec := range s.Records {
			w.Push(rec.Bias)

			rec.SmoothedBias = nil
			if w.Full() || edge == EdgeShrink {
				v := w.Mean()
				rec.SmoothedBias = &v
			}
			out = append(out, rec)
		}
	}
	return out, nil
}
