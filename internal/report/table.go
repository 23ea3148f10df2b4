package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/Doomsbay/BactCore/internal/alphabet"
	"github.com/Doomsbay/BactCore/internal/engine"
)

// tableBatchRows bounds the rows per record batch so very long alignments
// are not materialised as one batch.
const tableBatchRows = 1 << 16

// ColumnSchema is the layout of the per-column table.
var ColumnSchema = arrow.NewSchema([]arrow.Field{
	{Name: "column", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "valid", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "invalid", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "bases", Type: arrow.BinaryTypes.String},
	{Name: "distinct", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "kept", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

// WriteColumns streams one row per column as an Arrow IPC file.
func WriteColumns(w io.Writer, counts *engine.Counts, mask *engine.Mask, records int) error {
	mem := memory.NewGoAllocator()
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(ColumnSchema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, ColumnSchema)
	defer b.Release()
	col := b.Field(0).(*array.Uint32Builder)
	valid := b.Field(1).(*array.Uint32Builder)
	invalid := b.Field(2).(*array.Uint32Builder)
	bases := b.Field(3).(*array.StringBuilder)
	distinct := b.Field(4).(*array.Uint8Builder)
	kept := b.Field(5).(*array.BooleanBuilder)

	flush := func() error {
		rec := b.NewRecord()
		defer rec.Release()
		if rec.NumRows() == 0 {
			return nil
		}
		return fw.Write(rec)
	}

	for k := 0; k < counts.Len(); k++ {
		v := counts.Valid[k]
		col.Append(uint32(k))
		valid.Append(v)
		invalid.Append(uint32(records) - v)
		bases.Append(alphabet.Letters(counts.Seen[k]))
		distinct.Append(uint8(alphabet.Count(counts.Seen[k])))
		kept.Append(mask.Keep(k))
		if (k+1)%tableBatchRows == 0 {
			if err := flush(); err != nil {
				_ = fw.Close()
				return fmt.Errorf("write arrow batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write arrow batch: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return nil
}

// WriteColumnsFile is WriteColumns into a new file at path.
func WriteColumnsFile(path string, counts *engine.Counts, mask *engine.Mask, records int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if err := WriteColumns(f, counts, mask, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
