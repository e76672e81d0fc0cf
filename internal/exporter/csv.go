package exporter

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "ephcli/internal/errors"
)

// CSVWriter writes result tables as CSV files.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	BOMPrefix bool // UTF-8 BOM for Excel compatibility
	Version   bool // version the file name instead of overwriting
}

// WriteTable writes a table to filePath and returns the path actually
// written, which differs from filePath when versioning kicked in.
func (w *CSVWriter) WriteTable(filePath string, table Table, options WriteOptions) (string, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).
			WithContext("path", filePath)
	}

	target := filePath
	if options.Version {
		target = VersionedPath(filePath)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create output file", err).
			WithContext("path", target)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", apperrors.NewStorageError("failed to write BOM", err).
				WithContext("path", target)
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Headers); err != nil {
		return "", apperrors.NewStorageError("failed to write headers", err).
			WithContext("path", target)
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return "", apperrors.NewStorageError("failed to write row", err).
				WithContext("path", target)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.NewStorageError("failed to flush output file", err).
			WithContext("path", target)
	}

	w.logger.Info("wrote CSV table",
		slog.String("table", table.Name),
		slog.String("path", target),
		slog.Int("rows", len(table.Rows)))
	return target, nil
}
