package engine

import (
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/store"
)

// Filter returns the records whose Year is in sel.Years and whose Statement
// Type is in sel.StatementTypes, in store order. Both constraints apply; an
// empty set on either axis matches nothing. Matching is exact.
func Filter(st *store.Store, sel domain.Selection) View {
	if st == nil || sel.IsEmpty() {
		return View{store: st}
	}

	years := sel.YearSet()
	types := sel.StatementTypeSet()

	n := st.Len()
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		o := st.At(i)
		if _, ok := years[o.Year]; !ok {
			continue
		}
		if _, ok := types[o.StatementType]; !ok {
			continue
		}
		rows = append(rows, i)
	}
	return View{store: st, rows: rows}
}

// Where keeps the records of v that satisfy pred, preserving order.
// A nil predicate returns v unchanged.
func Where(v View, pred func(domain.Observation) bool) View {
	if pred == nil {
		return v
	}
	rows := make([]int, 0, len(v.rows))
	for _, r := range v.rows {
		if pred(v.store.At(r)) {
			rows = append(rows, r)
		}
	}
	return v.sub(rows)
}
