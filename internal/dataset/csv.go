package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	apperrors "meteoval/internal/errors"
)

// timeLayouts are the accepted textual timestamp forms, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadCSV reads a delimited text encoding of a dataset into a Table.
// Column types are inferred from the values: int64 when every non-empty
// cell parses as an integer, then float64, then timestamp, otherwise
// string. Empty cells are nulls.
func LoadCSV(path string, logger *slog.Logger) (*Table, error) {
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

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to parse CSV %s", path), err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("CSV %s has no header row", path), nil)
	}

	header := records[0]
	rows := records[1:]

	columns := make([]Column, len(header))
	for j, name := range header {
		raw := make([]string, len(rows))
		for i, row := range rows {
			raw[i] = row[j]
		}
		columns[j] = inferColumn(name, raw)
	}

	table, err := NewTable(columns)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("inconsistent CSV %s", path), err)
	}

	logger.Info("loaded CSV dataset",
		slog.String("path", path),
		slog.Int("rows", table.NumRows()),
		slog.Int("cols", table.NumCols()))

	return table, nil
}

// inferColumn picks the narrowest type covering every non-empty cell.
func inferColumn(name string, raw []string) Column {
	nulls := make([]bool, len(raw))
	nonEmpty := 0
	for i, s := range raw {
		if s == "" {
			nulls[i] = true
		} else {
			nonEmpty++
		}
	}

	if nonEmpty > 0 {
		if ints, ok := parseInts(raw, nulls); ok {
			return Column{Name: name, Type: TypeInt, Ints: ints, Nulls: nulls}
		}
		if floats, ok := parseFloats(raw, nulls); ok {
			return Column{Name: name, Type: TypeFloat, Floats: floats, Nulls: nulls}
		}
		if times, ok := parseTimes(raw, nulls); ok {
			return Column{Name: name, Type: TypeTimestamp, Times: times, Nulls: nulls}
		}
	}

	strs := make([]string, len(raw))
	copy(strs, raw)
	return Column{Name: name, Type: TypeString, Strings: strs, Nulls: nulls}
}

func parseInts(raw []string, nulls []bool) ([]int64, bool) {
	out := make([]int64, len(raw))
	for i, s := range raw {
		if nulls[i] {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseFloats(raw []string, nulls []bool) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, s := range raw {
		if nulls[i] {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseTimes(raw []string, nulls []bool) ([]time.Time, bool) {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		if nulls[i] {
			continue
		}
		t, err := ParseTimestamp(s)
		if err != nil {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// ParseTimestamp parses one textual timestamp using the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
