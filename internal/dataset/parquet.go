package dataset

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	apperrors "meteoval/internal/errors"
)

// LoadParquet reads the columnar binary encoding of a dataset into a Table.
// Only flat schemas are supported; the datasets this pipeline audits are
// plain tabular snapshots with no nesting.
func LoadParquet(path string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open parquet %s", path), err)
	}

	fields := pf.Schema().Fields()
	builders := make([]*columnBuilder, len(fields))
	for j, field := range fields {
		if !field.Leaf() {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("parquet %s: nested column %q not supported", path, field.Name()), nil)
		}
		b, err := newColumnBuilder(field, int(pf.NumRows()))
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("parquet %s", path), err)
		}
		builders[j] = b
	}

	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					if err := builders[v.Column()].append(v); err != nil {
						rows.Close()
						return nil, apperrors.NewParsingError(fmt.Sprintf("parquet %s", path), err)
					}
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read parquet %s", path), err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("failed to close parquet row reader for %s", path), err)
		}
	}

	columns := make([]Column, len(builders))
	for j, b := range builders {
		columns[j] = b.column()
	}

	table, err := NewTable(columns)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("inconsistent parquet %s", path), err)
	}

	logger.Info("loaded parquet dataset",
		slog.String("path", path),
		slog.Int("rows", table.NumRows()),
		slog.Int("cols", table.NumCols()))

	return table, nil
}

// columnBuilder accumulates one parquet leaf column into a typed Column.
type columnBuilder struct {
	col      Column
	tsUnit   tsUnit
	physical parquet.Kind
}

type tsUnit int

const (
	tsNone tsUnit = iota
	tsMillis
	tsMicros
	tsNanos
	tsDays
)

func newColumnBuilder(field parquet.Field, capacity int) (*columnBuilder, error) {
	kind := field.Type().Kind()
	b := &columnBuilder{physical: kind}
	b.col.Name = field.Name()
	b.col.Nulls = make([]bool, 0, capacity)

	lt := field.Type().LogicalType()
	switch {
	case lt != nil && lt.Timestamp != nil:
		b.col.Type = TypeTimestamp
		b.tsUnit = timestampUnit(lt.Timestamp.Unit)
		b.col.Times = make([]time.Time, 0, capacity)
	case lt != nil && lt.Date != nil:
		b.col.Type = TypeTimestamp
		b.tsUnit = tsDays
		b.col.Times = make([]time.Time, 0, capacity)
	default:
		switch kind {
		case parquet.Int32, parquet.Int64:
			b.col.Type = TypeInt
			b.col.Ints = make([]int64, 0, capacity)
		case parquet.Float, parquet.Double:
			b.col.Type = TypeFloat
			b.col.Floats = make([]float64, 0, capacity)
		case parquet.ByteArray, parquet.FixedLenByteArray, parquet.Boolean:
			b.col.Type = TypeString
			b.col.Strings = make([]string, 0, capacity)
		default:
			return nil, fmt.Errorf("column %q: unsupported physical type %s", field.Name(), kind)
		}
	}
	return b, nil
}

func timestampUnit(unit format.TimeUnit) tsUnit {
	switch {
	case unit.Millis != nil:
		return tsMillis
	case unit.Nanos != nil:
		return tsNanos
	default:
		return tsMicros
	}
}

func (b *columnBuilder) append(v parquet.Value) error {
	if v.IsNull() {
		b.col.Nulls = append(b.col.Nulls, true)
		switch b.col.Type {
		case TypeInt:
			b.col.Ints = append(b.col.Ints, 0)
		case TypeFloat:
			b.col.Floats = append(b.col.Floats, 0)
		case TypeTimestamp:
			b.col.Times = append(b.col.Times, time.Time{})
		default:
			b.col.Strings = append(b.col.Strings, "")
		}
		return nil
	}

	b.col.Nulls = append(b.col.Nulls, false)
	switch b.col.Type {
	case TypeInt:
		b.col.Ints = append(b.col.Ints, v.Int64())
	case TypeFloat:
		b.col.Floats = append(b.col.Floats, v.Double())
	case TypeTimestamp:
		t, err := b.decodeTime(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", b.col.Name, err)
		}
		b.col.Times = append(b.col.Times, t)
	default:
		if b.physical == parquet.Boolean {
			if v.Boolean() {
				b.col.Strings = append(b.col.Strings, "true")
			} else {
				b.col.Strings = append(b.col.Strings, "false")
			}
		} else {
			b.col.Strings = append(b.col.Strings, string(v.ByteArray()))
		}
	}
	return nil
}

func (b *columnBuilder) decodeTime(v parquet.Value) (time.Time, error) {
	switch b.tsUnit {
	case tsMillis:
		return time.UnixMilli(v.Int64()).UTC(), nil
	case tsMicros:
		return time.UnixMicro(v.Int64()).UTC(), nil
	case tsNanos:
		return time.Unix(0, v.Int64()).UTC(), nil
	case tsDays:
		return time.Unix(int64(v.Int32())*86400, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unknown timestamp unit")
	}
}

// column finalizes the accumulated column.
func (b *columnBuilder) column() Column {
	return b.col
}
