// Package store holds the immutable Record Store for a session.
package store

import (
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// datasetNamespace seeds the content-derived dataset IDs.
var datasetNamespace = uuid.MustParse("5b0f7c1e-3a64-4d3e-9a8e-4b2f6a1d9c70")

// Store is the authoritative, read-only dataset for a session.
// It is never mutated after New, so it may be shared across goroutines.
type Store struct {
	id             string
	source         string
	observations   []domain.Observation
	years          []int
	statementTypes []string
}

// New builds a store from observations in their original order.
// The slice is copied and each row's Seq is set to its position.
func New(source string, obs []domain.Observation) *Store {
	rows := make([]domain.Observation, len(obs))
	copy(rows, obs)

	seenYear := make(map[int]struct{})
	seenType := make(map[string]struct{})
	var years []int
	var types []string

	content := make([]byte, 0, len(rows)*64)
	for i := range rows {
		rows[i].Seq = i

		o := rows[i]
		if _, ok := seenYear[o.Year]; !ok {
			seenYear[o.Year] = struct{}{}
			years = append(years, o.Year)
		}
		if _, ok := seenType[o.StatementType]; !ok {
			seenType[o.StatementType] = struct{}{}
			types = append(types, o.StatementType)
		}

		content = appendObservation(content, o)
	}
	sort.Ints(years)

	return &Store{
		id:             uuid.NewSHA1(datasetNamespace, content).String(),
		source:         source,
		observations:   rows,
		years:          years,
		statementTypes: types,
	}
}

// ID is a deterministic identifier derived from the store's content.
// Identical data yields the same ID across restarts.
func (s *Store) ID() string {
	return s.id
}

// Source describes where the data was read from.
func (s *Store) Source() string {
	return s.source
}

// Len returns the number of observations.
func (s *Store) Len() int {
	return len(s.observations)
}

// At returns the observation at position i.
func (s *Store) At(i int) domain.Observation {
	return s.observations[i]
}

// Observations returns a copy of every observation in store order.
func (s *Store) Observations() []domain.Observation {
	out := make([]domain.Observation, len(s.observations))
	copy(out, s.observations)
	return out
}

// YearDomain returns every distinct Year, ascending.
func (s *Store) YearDomain() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// StatementTypeDomain returns every distinct Statement Type in order of
// first appearance, which keeps display deterministic.
func (s *Store) StatementTypeDomain() []string {
	out := make([]string, len(s.statementTypes))
	copy(out, s.statementTypes)
	return out
}

// FullSelection selects both complete facet domains.
func (s *Store) FullSelection() domain.Selection {
	return domain.Selection{
		Years:          s.YearDomain(),
		StatementTypes: s.StatementTypeDomain(),
	}
}

// StatementRank returns each Statement Type's position in the domain.
func (s *Store) StatementRank() map[string]int {
	rank := make(map[string]int, len(s.statementTypes))
	for i, st := range s.statementTypes {
		rank[st] = i
	}
	return rank
}

func appendObservation(b []byte, o domain.Observation) []byte {
	b = strconv.AppendInt(b, int64(o.Year), 10)
	b = append(b, 0)
	b = append(b, o.StatementType...)
	b = append(b, 0)
	for _, f := range [...]float64{o.MAD, o.ChiSquare, o.AvgZScore, o.AnomalyScore} {
		b = strconv.AppendFloat(b, f, 'g', -1, 64)
		b = append(b, 0)
	}
	b = strconv.AppendInt(b, int64(o.FraudFlag), 10)
	return append(b, '\n')
}
