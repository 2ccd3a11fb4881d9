package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// decodeTable turns a header row plus data rows into observations.
// Column order is free; every required column must be present.
// Fully blank rows are skipped; a table with no data rows left is an
// empty source.
func decodeTable(source string, table [][]string) ([]domain.Observation, error) {
	if len(table) == 0 {
		return nil, &domain.LoadError{Source: source, Err: domain.ErrEmptySource}
	}

	colIndex := make(map[string]int, len(table[0]))
	for i, name := range table[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := colIndex[name]; !dup {
			colIndex[name] = i
		}
	}
	for _, col := range domain.RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, &domain.LoadError{Source: source, Column: col, Err: domain.ErrMissingColumn}
		}
	}

	obs := make([]domain.Observation, 0, len(table)-1)
	for r, row := range table[1:] {
		if blankRow(row) {
			continue
		}

		cell := func(col string) string {
			if i := colIndex[col]; i < len(row) {
				return row[i]
			}
			return ""
		}
		fail := func(col string, err error) error {
			// Spreadsheet numbering: the header is row 1.
			return &domain.LoadError{Source: source, Row: r + 2, Column: col, Err: err}
		}

		var o domain.Observation
		var err error

		if o.Year, err = parseInt(cell(domain.ColumnYear)); err != nil {
			return nil, fail(domain.ColumnYear, err)
		}
		o.StatementType = cell(domain.ColumnStatementType)
		if o.MAD, err = parseFloat(cell(domain.ColumnMAD)); err != nil {
			return nil, fail(domain.ColumnMAD, err)
		}
		if o.ChiSquare, err = parseFloat(cell(domain.ColumnChiSquare)); err != nil {
			return nil, fail(domain.ColumnChiSquare, err)
		}
		if o.AvgZScore, err = parseFloat(cell(domain.ColumnAvgZScore)); err != nil {
			return nil, fail(domain.ColumnAvgZScore, err)
		}
		if o.AnomalyScore, err = parseFloat(cell(domain.ColumnAnomalyScore)); err != nil {
			return nil, fail(domain.ColumnAnomalyScore, err)
		}
		if o.FraudFlag, err = parseFlag(cell(domain.ColumnFraudFlag)); err != nil {
			return nil, fail(domain.ColumnFraudFlag, err)
		}

		if col, err := validateObservation(o); err != nil {
			return nil, fail(col, err)
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, &domain.LoadError{Source: source, Err: domain.ErrEmptySource}
	}
	return obs, nil
}

// validateObservation checks the value constraints of a typed row and
// returns the offending column on failure.
func validateObservation(o domain.Observation) (string, error) {
	if strings.TrimSpace(o.StatementType) == "" {
		return domain.ColumnStatementType, fmt.Errorf("%w: empty statement type", domain.ErrMalformedValue)
	}
	if o.AvgZScore < 0 {
		return domain.ColumnAvgZScore, fmt.Errorf("%w: negative average z-score %v", domain.ErrMalformedValue, o.AvgZScore)
	}
	if o.FraudFlag != 0 && o.FraudFlag != 1 {
		return domain.ColumnFraudFlag, fmt.Errorf("%w: fraud flag %d not in {0,1}", domain.ErrMalformedValue, o.FraudFlag)
	}
	return "", nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseInt accepts "2021" as well as integral floats such as "2021.0",
// which is how spreadsheets often store whole numbers.
func parseInt(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", domain.ErrMalformedValue)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrMalformedValue, raw)
	}
	return int(f), nil
}

func parseFloat(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", domain.ErrMalformedValue)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", domain.ErrMalformedValue, raw)
	}
	return f, nil
}

func parseFlag(raw string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return parseInt(raw)
}
