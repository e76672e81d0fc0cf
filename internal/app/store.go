package app

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	apperrors "ephcli/internal/errors"
	"ephcli/pkg/contracts/domain"
)

// cleanColumns is the column order of the intermediate clean survey file.
// Missing values are stored as empty cells.
var cleanColumns = []string{
	"year", "quarter", "region_code", "employment_status",
	"age", "weight", "nominal_income", "activity_branch_code", "period_key",
}

// WriteCleanFile persists normalized records so later runs can skip the raw
// load. Returns the number of records written.
func WriteCleanFile(path string, records []domain.SurveyRecord) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, apperrors.NewStorageError("failed to create data directory", err).
			WithContext("path", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to create clean file", err).
			WithContext("path", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cleanColumns); err != nil {
		return 0, apperrors.NewStorageError("failed to write clean header", err).
			WithContext("path", path)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Quarter),
			strconv.Itoa(r.Region),
			strconv.Itoa(int(r.Status)),
			formatInt(r.Age),
			strconv.FormatFloat(r.Weight, 'f', -1, 64),
			formatFloat(r.NominalIncome),
			formatInt(r.BranchCode),
			r.PeriodKey,
		}
		if err := w.Write(row); err != nil {
			return 0, apperrors.NewStorageError("failed to write clean row", err).
				WithContext("path", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, apperrors.NewStorageError("failed to flush clean file", err).
			WithContext("path", path)
	}
	return len(records), nil
}

// ReadCleanFile loads a previously written clean survey file.
func ReadCleanFile(path string) ([]domain.SurveyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open clean file", err).
			WithContext("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read clean header", err).
			WithContext("path", path)
	}
	if len(header) != len(cleanColumns) {
		return nil, apperrors.NewSchemaError("clean file has unexpected columns", nil).
			WithContext("path", path)
	}

	var records []domain.SurveyRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read clean row", err).
				WithContext("path", path)
		}
		rec, err := parseCleanRow(row)
		if err != nil {
			return nil, apperrors.NewParsingError("invalid clean row", err).
				WithContext("path", path)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseCleanRow(row []string) (domain.SurveyRecord, error) {
	var rec domain.SurveyRecord
	var err error

	if rec.Year, err = strconv.Atoi(row[0]); err != nil {
		return rec, err
	}
	if rec.Quarter, err = strconv.Atoi(row[1]); err != nil {
		return rec, err
	}
	if rec.Region, err = strconv.Atoi(row[2]); err != nil {
		return rec, err
	}
	status, err := strconv.Atoi(row[3])
	if err != nil {
		return rec, err
	}
	rec.Status = domain.EmploymentStatus(status)

	if rec.Age, err = parseInt(row[4]); err != nil {
		return rec, err
	}
	if rec.Weight, err = strconv.ParseFloat(row[5], 64); err != nil {
		return rec, err
	}
	if rec.NominalIncome, err = parseFloat(row[6]); err != nil {
		return rec, err
	}
	if rec.BranchCode, err = parseInt(row[7]); err != nil {
		return rec, err
	}
	rec.PeriodKey = row[8]
	return rec, nil
}

func formatInt(v domain.Int) string {
	if !v.Valid {
		return ""
	}
	return strconv.Itoa(v.Value)
}

func formatFloat(v domain.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}

func parseInt(s string) (domain.Int, error) {
	if s == "" {
		return domain.Int{}, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return domain.Int{}, err
	}
	return domain.I(v), nil
}

func parseFloat(s string) (domain.Float, error) {
	if s == "" {
		return domain.Float{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Float{}, err
	}
	return domain.F(v), nil
}
