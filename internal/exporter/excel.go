package exporter

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "ephcli/internal/errors"
)

// ExcelWriter writes result tables into a single Excel workbook, one sheet
// per table.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates an Excel writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteWorkbook writes the tables to filePath, versioning the name when the
// file already exists, and returns the path actually written.
func (w *ExcelWriter) WriteWorkbook(filePath string, tables []Table) (string, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).
			WithContext("path", filePath)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range tables {
		sheet := table.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", apperrors.NewStorageError("failed to rename sheet", err).
					WithContext("sheet", sheet)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", apperrors.NewStorageError("failed to create sheet", err).
					WithContext("sheet", sheet)
			}
		}
		if err := writeSheet(f, sheet, table); err != nil {
			return "", err
		}
	}

	target := VersionedPath(filePath)
	if err := f.SaveAs(target); err != nil {
		return "", apperrors.NewStorageError("failed to save workbook", err).
			WithContext("path", target)
	}

	w.logger.Info("wrote Excel workbook",
		slog.String("path", target),
		slog.Int("sheets", len(tables)))
	return target, nil
}

func writeSheet(f *excelize.File, sheet string, table Table) error {
	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return apperrors.NewStorageError("failed to compute cell name", err).
			WithContext("sheet", sheet)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return apperrors.NewStorageError("failed to write sheet row", err).
			WithContext("sheet", sheet)
	}
	return nil
}
