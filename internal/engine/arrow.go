package engine

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// EventSchema is the Arrow schema of exported events. Field order follows
// the source table.
var EventSchema = arrow.NewSchema([]arrow.Field{
	{Name: colCountry, Type: arrow.BinaryTypes.String},
	{Name: colISOCode, Type: arrow.BinaryTypes.String},
	{Name: colRegion, Type: arrow.BinaryTypes.String},
	{Name: colYear, Type: arrow.PrimitiveTypes.Int32},
	{Name: colConflictName, Type: arrow.BinaryTypes.String},
	{Name: colTypeOfViolence, Type: arrow.BinaryTypes.String},
	{Name: colDeathsTotal, Type: arrow.PrimitiveTypes.Int64},
	{Name: colDeathsA, Type: arrow.PrimitiveTypes.Int64},
	{Name: colDeathsB, Type: arrow.PrimitiveTypes.Int64},
	{Name: colDeathsCivilians, Type: arrow.PrimitiveTypes.Int64},
	{Name: colDeathsUnknown, Type: arrow.PrimitiveTypes.Int64},
}, nil)

// WriteArrow streams the given rows as a single Arrow IPC record batch.
func (cs *ColumnStore) WriteArrow(w io.Writer, rows []int32) error {
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, EventSchema)
	defer b.Release()

	strCol := func(i int, ids []int32, dict []string) {
		fb := b.Field(i).(*array.StringBuilder)
		fb.Reserve(len(rows))
		for _, r := range rows {
			fb.Append(dict[ids[r]])
		}
	}
	intCol := func(i int, col []int64) {
		fb := b.Field(i).(*array.Int64Builder)
		fb.Reserve(len(rows))
		for _, r := range rows {
			fb.Append(col[r])
		}
	}

	strCol(0, cs.CountryIDs, cs.CountryDict)
	strCol(1, cs.ISOIDs, cs.ISODict)
	strCol(2, cs.RegionIDs, cs.RegionDict)
	yb := b.Field(3).(*array.Int32Builder)
	yb.Reserve(len(rows))
	for _, r := range rows {
		yb.Append(cs.Years[r])
	}
	strCol(4, cs.ConflictIDs, cs.ConflictDict)
	strCol(5, cs.ViolenceIDs, cs.ViolenceDict)
	intCol(6, cs.DeathsTotal)
	intCol(7, cs.DeathsA)
	intCol(8, cs.DeathsB)
	intCol(9, cs.DeathsCivilians)
	intCol(10, cs.DeathsUnknown)

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(EventSchema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		_ = wr.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	if err := wr.Close(); err != nil {
		return fmt.Errorf("close arrow stream: %w", err)
	}
	return nil
}
