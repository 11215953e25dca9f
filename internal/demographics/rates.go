package demographics

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// RateTable holds age-indexed rates read from a CSV file: an ascending age
// column plus one or more named rate columns. Lookup uses the highest row
// whose age does not exceed the queried age.
type RateTable struct {
	Ages []float64
	Cols map[string][]float64
}

// Rate returns the rate in column col for the given age. Ages below the
// first row use the first row; ages beyond the last use the last.
func (t *RateTable) Rate(col string, age float64) float64 {
	vals, ok := t.Cols[col]
	if !ok || len(vals) == 0 {
		return 0
	}
	idx := 0
	for i, a := range t.Ages {
		if age >= a {
			idx = i
		} else {
			break
		}
	}
	return vals[idx]
}

// ReadRateTable loads a CSV with a header row where the first column is age
// and the remaining columns are rates, e.g.
//
//	age,rate          (fertility)
//	age,male,female   (mortality)
//	age,value         (population age structure)
//
// The file is read columnar via Arrow's CSV reader.
func ReadRateTable(path string, columns ...string) (*RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("demographics: open %s: %w", path, err)
	}
	defer f.Close()

	fields := make([]arrow.Field, 0, len(columns)+1)
	fields = append(fields, arrow.Field{Name: "age", Type: arrow.PrimitiveTypes.Float64})
	for _, c := range columns {
		fields = append(fields, arrow.Field{Name: c, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	rdr := csv.NewReader(f, schema,
		csv.WithHeader(true),
		csv.WithChunk(-1),
		csv.WithAllocator(memory.DefaultAllocator),
	)
	defer rdr.Release()

	table := &RateTable{Cols: make(map[string][]float64, len(columns))}
	for rdr.Next() {
		rec := rdr.Record()
		ageCol, ok := rec.Column(0).(*array.Float64)
		if !ok {
			return nil, fmt.Errorf("demographics: %s: age column is not numeric", path)
		}
		table.Ages = append(table.Ages, ageCol.Float64Values()...)
		for i, c := range columns {
			col, ok := rec.Column(i + 1).(*array.Float64)
			if !ok {
				return nil, fmt.Errorf("demographics: %s: column %q is not numeric", path, c)
			}
			table.Cols[c] = append(table.Cols[c], col.Float64Values()...)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("demographics: read %s: %w", path, err)
	}
	if err := table.validate(path, columns); err != nil {
		return nil, err
	}
	return table, nil
}

func (t *RateTable) validate(path string, columns []string) error {
	if len(t.Ages) == 0 {
		return fmt.Errorf("demographics: %s: no rows", path)
	}
	for i := 1; i < len(t.Ages); i++ {
		if t.Ages[i] <= t.Ages[i-1] {
			return fmt.Errorf("demographics: %s: ages must be strictly ascending (row %d)", path, i)
		}
	}
	for _, c := range columns {
		for i, v := range t.Cols[c] {
			if v < 0 {
				return fmt.Errorf("demographics: %s: negative rate in column %q row %d", path, c, i)
			}
		}
	}
	return nil
}
