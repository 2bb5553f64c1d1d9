package data

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const AccuracyColumn = "accuracy"

// WriteAccuracies writes one row per fold under an "accuracy" header,
// replacing whatever was at path.
func WriteAccuracies(path string, scores []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{AccuracyColumn}); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, s := range scores {
		if err := writer.Write([]string{decimal.NewFromFloat(s).String()}); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrapf(err, "flush %s", path)
	}
	return file.Close()
}

// ReadAccuracies parses a file produced by WriteAccuracies.
func ReadAccuracies(path string) ([]float64, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return t.Column(AccuracyColumn)
}
