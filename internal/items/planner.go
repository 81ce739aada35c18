package items

import "sort"

// Prioritize orders items by urgency rank, ties broken by creation
// time ascending, and assigns a dense 1..N priority over the result.
// The input is never mutated; the returned slice is a fresh copy.
func Prioritize(in []Item) []Item {
	out := make([]Item, len(in))
	copy(out, in)

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := urgencyRank[out[i].Urgency], urgencyRank[out[j].Urgency]
		if ri != rj {
			return ri < rj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}
