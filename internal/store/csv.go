package store

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// readCSV returns every record of a comma-separated file.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Source: path, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.LoadError{Source: path, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)}
	}
	return rows, nil
}
