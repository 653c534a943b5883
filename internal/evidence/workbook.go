package evidence

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "meteoval/internal/errors"
	"meteoval/pkg/contracts/domain"
)

// WorkbookInput is the table set consolidated into one xlsx file for
// sharing evidence outside the repository. Optional; the CSV/JSON tables
// remain the canonical diff-friendly artifacts.
type WorkbookInput struct {
	CSVSchema     domain.SchemaRecord
	ParquetSchema domain.SchemaRecord
	Profile       domain.ProfileReport
	Duplicates    domain.DuplicateReport
	Temporal      domain.CanonicalizationReport
}

// WriteWorkbook writes the consolidated evidence workbook, one sheet per
// table, numeric cells stored as numbers.
func (w *Writer) WriteWorkbook(in WorkbookInput) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSchemaSheet(f, in); err != nil {
		return "", apperrors.NewStorageError("failed to build schema sheet", err)
	}
	if err := writeDescribeSheet(f, in.Profile); err != nil {
		return "", apperrors.NewStorageError("failed to build describe sheet", err)
	}
	if err := writeQuantileSheet(f, in.Profile); err != nil {
		return "", apperrors.NewStorageError("failed to build quantile sheet", err)
	}
	if err := writeRangeSheet(f, in.Profile); err != nil {
		return "", apperrors.NewStorageError("failed to build range sheet", err)
	}
	if err := writeRunSheet(f, in); err != nil {
		return "", apperrors.NewStorageError("failed to build run sheet", err)
	}

	// The default sheet is replaced by the first real one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", apperrors.NewStorageError("failed to finalize workbook", err)
	}

	path := w.paths.WorkbookPath()
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err)
	}

	w.logger.Info("wrote evidence workbook", slog.String("path", path))
	return path, nil
}

func writeSchemaSheet(f *excelize.File, in WorkbookInput) error {
	sheet := "schema"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	csvTypes := make(map[string]string, len(in.CSVSchema.Columns))
	for _, col := range in.CSVSchema.Columns {
		csvTypes[col.Column] = col.Type
	}
	if err := setRow(f, sheet, 1, []interface{}{"column", "dtype_parquet", "dtype_csv", "nulls"}); err != nil {
		return err
	}
	for i, col := range in.ParquetSchema.Columns {
		if err := setRow(f, sheet, i+2, []interface{}{col.Column, col.Type, csvTypes[col.Column], col.NullCount}); err != nil {
			return err
		}
	}
	return nil
}

func writeDescribeSheet(f *excelize.File, profile domain.ProfileReport) error {
	if len(profile.Describe) == 0 {
		return nil
	}
	sheet := "describe"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, s := range profile.Describe {
		row := []interface{}{s.Column, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeQuantileSheet(f *excelize.File, profile domain.ProfileReport) error {
	if len(profile.Quantiles) == 0 {
		return nil
	}
	sheet := "quantiles"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"quantile"}
	for _, col := range profile.NumericColumns {
		header = append(header, col)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, q := range profile.Quantiles {
		row := []interface{}{q.Q}
		for _, col := range profile.NumericColumns {
			row = append(row, q.Values[col])
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRangeSheet(f *excelize.File, profile domain.ProfileReport) error {
	if len(profile.RangeFlags) == 0 {
		return nil
	}
	sheet := "ranges_flags"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"column", "min", "max", "range", "flag_inverted", "flag_high_range"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, flag := range profile.RangeFlags {
		row := []interface{}{flag.Column, flag.Min, flag.Max, flag.Range, flag.Inverted, flag.HighRange}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRunSheet(f *excelize.File, in WorkbookInput) error {
	sheet := "run"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"rows", in.ParquetSchema.Rows},
		{"cols", in.ParquetSchema.Cols},
		{"duplicate_rows", in.Duplicates.DuplicateRows},
		{"temporal_column", in.Temporal.Column},
		{"monotonic_after_sort", in.Temporal.After.Monotonic},
		{"duplicate_timestamps", in.Temporal.After.DuplicateCount},
	}
	if in.Profile.SampledRows > 0 {
		rows = append(rows,
			[]interface{}{"sampled_rows", in.Profile.SampledRows},
			[]interface{}{"sample_seed", in.Profile.SampleSeed})
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
