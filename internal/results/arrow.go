package results

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ExportArrowIPC writes the result set as a single-record Arrow IPC stream:
// one float64 column per series plus the time axis. The stream format needs
// no seeking, so output can go to a pipe as well as a file.
func (rs *Set) ExportArrowIPC(w io.Writer) error {
	mem := memory.DefaultAllocator

	fields := make([]arrow.Field, 0, len(rs.series)+1)
	fields = append(fields, arrow.Field{Name: "time", Type: arrow.PrimitiveTypes.Float64})
	for _, s := range rs.series {
		fields = append(fields, arrow.Field{Name: s.Key(), Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	cols := make([]arrow.Array, 0, len(fields))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	tb := array.NewFloat64Builder(mem)
	defer tb.Release()
	tb.AppendValues(rs.Timevec, nil)
	cols = append(cols, tb.NewArray())

	for _, s := range rs.series {
		b := array.NewFloat64Builder(mem)
		b.AppendValues(s.Values, nil)
		cols = append(cols, b.NewArray())
		b.Release()
	}

	rec := array.NewRecord(schema, cols, int64(rs.Npts()))
	defer rec.Release()

	fw := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("results: write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("results: close arrow writer: %w", err)
	}
	return nil
}
