package source

import (
	"math"
	"sort"
	"strconv"
)

// Share is one ranked entry with its fraction of the overall total.
type Share struct {
	Name       string
	Value      float64
	Percentage float64
}

// tally accumulates values per key and remembers first-seen order for tie-breaks.
type tally struct {
	order  []string
	totals map[string]float64
}

func newTally() *tally {
	return &tally{totals: map[string]float64{}}
}

func (t *tally) add(key string, v float64) {
	if _, ok := t.totals[key]; !ok {
		t.order = append(t.order, key)
	}
	t.totals[key] += v
}

// sum is the total over every key, not just the ones that make the top-N.
func (t *tally) sum() float64 {
	var s float64
	for _, k := range t.order {
		s += t.totals[k]
	}
	return s
}

// top returns the n largest keys by descending value. Equal values keep their
// first-seen order. Percentages are relative to sum().
func (t *tally) top(n int) []Share {
	shares := make([]Share, 0, len(t.order))
	for _, k := range t.order {
		shares = append(shares, Share{Name: k, Value: t.totals[k]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Value > shares[j].Value
	})
	if n >= 0 && len(shares) > n {
		shares = shares[:n]
	}

	total := t.sum()
	for i := range shares {
		if total > 0 {
			shares[i].Percentage = shares[i].Value / total * 100
		}
	}
	return shares
}

// oneDecimal formats x with one decimal place. Halves round up, so 1.25 is "1.3".
func oneDecimal(x float64) string {
	return strconv.FormatFloat(math.Round(x*10)/10, 'f', 1, 64)
}
