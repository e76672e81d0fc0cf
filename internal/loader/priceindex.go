package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	apperrors "ephcli/internal/errors"
	"ephcli/pkg/contracts/domain"
)

// Column names accepted in the price index file. The index value column may
// be named either way depending on the publication vintage.
const (
	indexYearColumn    = "ANO4"
	indexQuarterColumn = "TRIMESTRE"
	indexValueColumn   = "IPC_INDEX"
	indexValueAlias    = "IPC"
)

// LoadPriceIndex reads a quarterly price index series from a CSV file.
// The file must carry year and quarter columns plus an index value column;
// a duplicated period is rejected because the deflator would silently use
// whichever row won.
func (l *Loader) LoadPriceIndex(ctx context.Context, path string) (domain.PriceIndexSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open price index file", err).
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

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read price index header", err).
			WithContext("file", path)
	}
	columns := normalizeHeader(header)

	yearIdx, quarterIdx, valueIdx := -1, -1, -1
	for i, col := range columns {
		switch col {
		case indexYearColumn:
			yearIdx = i
		case indexQuarterColumn:
			quarterIdx = i
		case indexValueColumn:
			valueIdx = i
		case indexValueAlias:
			if valueIdx < 0 {
				valueIdx = i
			}
		}
	}
	if yearIdx < 0 || quarterIdx < 0 || valueIdx < 0 {
		return nil, apperrors.NewSchemaError("price index file is missing required columns", nil).
			WithContext("file", path).
			WithContext("columns", strings.Join(columns, ","))
	}

	series := make(domain.PriceIndexSeries)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read price index row", err).
				WithContext("file", path)
		}
		line++

		period, value, err := parseIndexRow(record, yearIdx, quarterIdx, valueIdx)
		if err != nil {
			return nil, apperrors.NewParsingError("invalid price index row", err).
				WithContext("file", path).
				WithContext("line", line)
		}
		if _, exists := series[period]; exists {
			return nil, apperrors.NewValidationError("duplicate period in price index").
				WithContext("file", path).
				WithContext("period", period.Key())
		}
		series[period] = value
	}

	l.logger.InfoContext(ctx, "loaded price index series",
		slog.String("file", path),
		slog.Int("periods", len(series)))
	return series, nil
}

func parseIndexRow(record []string, yearIdx, quarterIdx, valueIdx int) (domain.Period, float64, error) {
	max := yearIdx
	if quarterIdx > max {
		max = quarterIdx
	}
	if valueIdx > max {
		max = valueIdx
	}
	if len(record) <= max {
		return domain.Period{}, 0, fmt.Errorf("row has %d fields, need %d", len(record), max+1)
	}

	year, err := strconv.Atoi(strings.TrimSpace(record[yearIdx]))
	if err != nil {
		return domain.Period{}, 0, err
	}
	quarter, err := strconv.Atoi(strings.TrimSpace(record[quarterIdx]))
	if err != nil {
		return domain.Period{}, 0, err
	}
	raw := strings.TrimSpace(record[valueIdx])
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return domain.Period{}, 0, err
	}
	return domain.Period{Year: year, Quarter: quarter}, value, nil
}
