// Package loader reads raw survey microdata files and price index series
// from disk into the generic row form the cleaning stage consumes.
package loader

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "ephcli/internal/errors"
)

// Loader reads raw survey batches from a directory.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadRawDir reads every .txt and .csv file under dir and concatenates the
// rows into one slice. Headers are upper-cased and trimmed so batches with
// inconsistent casing align on the same columns. Files are read in name
// order.
func (l *Loader) LoadRawDir(ctx context.Context, dir string) ([]map[string]interface{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read raw data directory", err).
			WithContext("dir", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".csv":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, apperrors.NewNotFoundError("raw survey files").
			WithContext("dir", dir)
	}

	var rows []map[string]interface{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		l.logger.InfoContext(ctx, "loaded raw survey batch",
			slog.String("file", filepath.Base(file)),
			slog.Int("rows", len(batch)))
		rows = append(rows, batch...)
	}

	l.logger.InfoContext(ctx, "raw survey load complete",
		slog.Int("files", len(files)),
		slog.Int("total_rows", len(rows)))
	return rows, nil
}

func (l *Loader) loadFile(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open raw file", err).
			WithContext("file", path)
	}
	defer f.Close()

	sep, err := detectSeparator(f)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to detect column separator", err).
			WithContext("file", path)
	}

	reader := csv.NewReader(f)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read header row", err).
			WithContext("file", path)
	}
	columns := normalizeHeader(header)

	var rows []map[string]interface{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read data row", err).
				WithContext("file", path)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// detectSeparator sniffs the header line for a semicolon or comma and
// rewinds the file. Semicolon wins when both appear since comma is then
// likely a decimal mark.
func detectSeparator(f *os.File) (rune, error) {
	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	line := string(buf[:n])
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if strings.Contains(line, ";") {
		return ';', nil
	}
	return ',', nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return columns
}
