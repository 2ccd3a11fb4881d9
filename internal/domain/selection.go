package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Selection is the pair of facet values a user has chosen.
// An empty set on either axis selects nothing; there is no implicit
// "select all". Callers that want everything pass the full domains.
type Selection struct {
	Years          []int    `json:"years" validate:"dive,gte=0"`
	StatementTypes []string `json:"statementTypes" validate:"dive,required"`
}

// IsEmpty reports whether the selection can match no record.
func (s Selection) IsEmpty() bool {
	return len(s.Years) == 0 || len(s.StatementTypes) == 0
}

// YearSet returns the selected years as a lookup set.
func (s Selection) YearSet() map[int]struct{} {
	set := make(map[int]struct{}, len(s.Years))
	for _, y := range s.Years {
		set[y] = struct{}{}
	}
	return set
}

// StatementTypeSet returns the selected statement types as a lookup set.
func (s Selection) StatementTypeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.StatementTypes))
	for _, st := range s.StatementTypes {
		set[st] = struct{}{}
	}
	return set
}

// Key returns a canonical string for the selection. Two selections holding
// the same sets (in any order, with any duplicates) share a key.
func (s Selection) Key() string {
	years := make([]int, 0, len(s.YearSet()))
	for y := range s.YearSet() {
		years = append(years, y)
	}
	sort.Ints(years)

	types := make([]string, 0, len(s.StatementTypes))
	for st := range s.StatementTypeSet() {
		types = append(types, strconv.Quote(st))
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString("y=")
	for i, y := range years {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(y))
	}
	b.WriteString(";t=")
	b.WriteString(strings.Join(types, ","))
	return b.String()
}
