package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Raw column names of the Food.com RAW_recipes.csv dump.
const (
	ColumnID           = "id"
	ColumnName         = "name"
	ColumnMinutes      = "minutes"
	ColumnIngredients  = "ingredients"
	ColumnNIngredients = "n_ingredients"
	ColumnSteps        = "steps"
	ColumnNutrition    = "nutrition"
)

var requiredColumns = []string{
	ColumnID, ColumnName, ColumnMinutes, ColumnIngredients,
	ColumnNIngredients, ColumnSteps, ColumnNutrition,
}

// RawRecipe is one unparsed row. Every field holds the raw cell text.
type RawRecipe struct {
	Line         int
	ID           string
	Name         string
	Minutes      string
	Ingredients  string
	NIngredients string
	Steps        string
	Nutrition    string
}

// RawReader reads RawRecipe rows from CSV, locating columns by header name.
// Unknown columns such as tags are ignored.
type RawReader struct {
	r       *csv.Reader
	columns map[string]int
}

// NewRawReader reads the header row and checks that every required column
// is present.
func NewRawReader(r io.Reader) (*RawReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
		}
		return nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrBadHeader, strings.Join(missing, ", "))
	}

	return &RawReader{r: cr, columns: columns}, nil
}

// Next returns the next row, or io.EOF. Rows that are not valid CSV are
// returned as errors wrapping ErrMalformedRow; reading may continue after them.
func (rr *RawReader) Next() (*RawRecipe, error) {
	record, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		return nil, err
	}
	line, _ := rr.r.FieldPos(0)
	return &RawRecipe{
		Line:         line,
		ID:           rr.field(record, ColumnID),
		Name:         rr.field(record, ColumnName),
		Minutes:      rr.field(record, ColumnMinutes),
		Ingredients:  rr.field(record, ColumnIngredients),
		NIngredients: rr.field(record, ColumnNIngredients),
		Steps:        rr.field(record, ColumnSteps),
		Nutrition:    rr.field(record, ColumnNutrition),
	}, nil
}

// field returns "" for short rows.
func (rr *RawReader) field(record []string, column string) string {
	i := rr.columns[column]
	if i >= len(record) {
		return ""
	}
	return record[i]
}
