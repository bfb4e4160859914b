package core

import "sort"

// ProductAmount represents an amount aggregated by product name.
type ProductAmount struct {
	Product string
	Amount  Money
}

// AggregateByProduct sums sale prices grouped by product name. An empty
// input yields an empty, non-nil map.
func AggregateByProduct(sales []Sale) map[string]Money {
	out := make(map[string]Money)
	for _, s := range sales {
		acc, ok := out[s.Product]
		if !ok {
			acc = Zero
		}
		out[s.Product] = acc.Add(s.Price)
	}
	return out
}

// ProductTotals is AggregateByProduct ordered by product name.
func ProductTotals(sales []Sale) []ProductAmount {
	sums := AggregateByProduct(sales)
	out := make([]ProductAmount, 0, len(sums))
	for name, amt := range sums {
		out = append(out, ProductAmount{Product: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out
}

// Total sums the prices of all sales.
func Total(sales []Sale) Money {
	t := Zero
	for _, s := range sales {
		t = t.Add(s.Price)
	}
	return t
}
