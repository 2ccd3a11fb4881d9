package store

import (
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/xuri/excelize/v2"
)

// readXLSX returns every row of a worksheet as raw cell strings.
// An empty sheet name selects the first worksheet.
func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &domain.LoadError{Source: path, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &domain.LoadError{Source: path, Err: domain.ErrEmptySource}
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &domain.LoadError{Source: path, Err: fmt.Errorf("%w: sheet %q", domain.ErrSourceMissing, sheet)}
	}

	// Raw values keep full numeric precision regardless of cell formatting.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &domain.LoadError{Source: path, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)}
	}
	return rows, nil
}
