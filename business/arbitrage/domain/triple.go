package domain

import (
	"iter"
	"strings"

	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
)

// Triple is a 3-combination of catalog entries with I < J < K.
type Triple struct {
	I, J, K int
	Symbols [3]pricingDomain.Symbol
}

// String renders the symbols as "A, B, C".
func (t Triple) String() string {
	var sb strings.Builder
	for i, s := range t.Symbols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(s))
	}
	return sb.String()
}

// Triples yields every 3-combination of catalog in lexicographic index order.
// The sequence is lazy and can be ranged over any number of times; catalogs
// shorter than three yield nothing.
func Triples(catalog pricingDomain.Catalog) iter.Seq[Triple] {
	return func(yield func(Triple) bool) {
		n := len(catalog)
		for i := 0; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				for k := j + 1; k < n; k++ {
					t := Triple{
						I: i, J: j, K: k,
						Symbols: [3]pricingDomain.Symbol{catalog[i], catalog[j], catalog[k]},
					}
					if !yield(t) {
						return
					}
				}
			}
		}
	}
}

// TripleCount returns C(n,3), the number of triples Triples yields for a
// catalog of n symbols.
func TripleCount(n int) uint64 {
	if n < 3 {
		return 0
	}
	m := uint64(n)
	return m * (m - 1) * (m - 2) / 6
}
