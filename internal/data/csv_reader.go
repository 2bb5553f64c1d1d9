package data

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrDataNotFound    = errors.New("data file not found")
	ErrMissingColumn   = errors.New("missing column")
	ErrNonNumeric      = errors.New("non-numeric value")
	ErrNonBinaryTarget = errors.New("target is not binary")
	ErrEmptyDataset    = errors.New("dataset is empty")
)

// Table is a delimited file held in memory. Cells stay as text until a
// column is requested, so unused columns never have to be numeric.
type Table struct {
	headers []string
	index   map[string]int
	records [][]string
}

// LoadTable reads a CSV file with a header row. A missing file is reported
// as ErrDataNotFound so callers can abort without treating it as a crash.
func LoadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrDataNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	t, err := ReadTable(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	log.Debug().Str("path", path).Int("rows", t.Len()).Int("columns", len(t.headers)).Msg("loaded table")
	return t, nil
}

func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		headers[i] = h
		index[h] = i
	}

	return &Table{
		headers: headers,
		index:   index,
		records: records,
	}, nil
}

func (t *Table) Len() int {
	return len(t.records)
}

// Column returns the named column as float64 values. Missing cells become NaN.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.index[name]
	if !ok {
		return nil, errors.Wrapf(ErrMissingColumn, "%q", name)
	}

	values := make([]float64, len(t.records))
	for i, record := range t.records {
		if col >= len(record) {
			values[i] = math.NaN()
			continue
		}
		v, err := parseCell(record[col])
		if err != nil {
			return nil, errors.Wrapf(err, "column %q row %d", name, i+1)
		}
		values[i] = v
	}
	return values, nil
}

func parseCell(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if isMissing(s) {
		return math.NaN(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(ErrNonNumeric, "%q", raw)
	}
	return d.InexactFloat64(), nil
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}
