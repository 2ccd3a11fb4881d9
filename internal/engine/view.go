// Package engine implements the filter and aggregation pipeline that turns a
// Record Store and a Filter Selection into dashboard views.
//
// Every function here is pure: the store is never mutated and identical
// inputs always yield identical outputs.
package engine

import (
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/store"
)

// View is an ordered subset of a Record Store. It holds positions into the
// store rather than copies of the rows.
type View struct {
	store *store.Store
	rows  []int
}

// All returns a view of every record in store order.
func All(st *store.Store) View {
	rows := make([]int, st.Len())
	for i := range rows {
		rows[i] = i
	}
	return View{store: st, rows: rows}
}

// Len returns the number of records in the view.
func (v View) Len() int { return len(v.rows) }

// IsEmpty reports whether the view has no records.
func (v View) IsEmpty() bool { return len(v.rows) == 0 }

// At returns the i-th record of the view.
func (v View) At(i int) domain.Observation {
	return v.store.At(v.rows[i])
}

// Observations materializes the view in order.
func (v View) Observations() []domain.Observation {
	out := make([]domain.Observation, len(v.rows))
	for i, r := range v.rows {
		out[i] = v.store.At(r)
	}
	return out
}

func (v View) sub(rows []int) View {
	return View{store: v.store, rows: rows}
}
