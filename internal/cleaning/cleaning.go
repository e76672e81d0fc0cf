// Package cleaning normalizes raw survey rows into canonical records.
//
// Raw extracts arrive as loosely typed column maps whose schema drifts across
// batches. The normalizer coerces the recognized numeric columns, translates
// no-response sentinel codes to missing, corrects negative incomes and
// synthesizes the period key. Absent columns are skipped silently.
package cleaning

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"ephcli/internal/errors"
	"ephcli/pkg/contracts/domain"
)

// ColumnMap names the raw columns holding each canonical field.
type ColumnMap struct {
	Year    string
	Quarter string
	Region  string
	Status  string
	Age     string
	Weight  string
	Income  string
	Branch  string
}

// DefaultColumnMap returns the EPH raw column names.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Year:    "ANO4",
		Quarter: "TRIMESTRE",
		Region:  "AGLOMERADO",
		Status:  "ESTADO",
		Age:     "CH06",
		Weight:  "PONDERA",
		Income:  "P47T",
		Branch:  "PP04B_COD",
	}
}

// Config holds the normalization rules. Sentinel handling is injected rather
// than hard-coded so alternate survey vintages can swap the code sets.
type Config struct {
	Columns ColumnMap
	// Sentinels are the no-response codes translated to missing.
	Sentinels []float64
	// SentinelColumns are the raw columns the sentinel set applies to.
	SentinelColumns []string
}

// DefaultConfig returns the normalization rules of the standard EPH schema:
// sentinels {9, 99, -1} apply to age, income and activity branch code.
func DefaultConfig() Config {
	cols := DefaultColumnMap()
	return Config{
		Columns:         cols,
		Sentinels:       []float64{9, 99, -1},
		SentinelColumns: []string{cols.Age, cols.Income, cols.Branch},
	}
}

// Normalizer maps raw survey rows to canonical records.
type Normalizer struct {
	cfg       Config
	sentinels map[string]map[float64]bool
	logger    *slog.Logger
}

// NewNormalizer creates a normalizer with the given configuration.
func NewNormalizer(logger *slog.Logger, cfg Config) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Columns == (ColumnMap{}) {
		cfg.Columns = DefaultColumnMap()
	}

	sentinels := make(map[string]map[float64]bool, len(cfg.SentinelColumns))
	for _, col := range cfg.SentinelColumns {
		set := make(map[float64]bool, len(cfg.Sentinels))
		for _, s := range cfg.Sentinels {
			set[s] = true
		}
		sentinels[col] = set
	}

	return &Normalizer{cfg: cfg, sentinels: sentinels, logger: logger}
}

// CheckSchema verifies the required join-key columns are present in the raw
// header. A missing join key makes every downstream grouping meaningless, so
// this is a fatal schema error.
func (n *Normalizer) CheckSchema(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToUpper(strings.TrimSpace(h))] = true
	}

	required := map[string]string{
		"year":    n.cfg.Columns.Year,
		"quarter": n.cfg.Columns.Quarter,
		"region":  n.cfg.Columns.Region,
	}
	for field, col := range required {
		if !present[col] {
			return errors.NewSchemaError("required join key column absent from input", nil).
				WithContext("field", field).
				WithContext("column", col)
		}
	}
	return nil
}

// NormalizeAll normalizes a batch of raw rows.
func (n *Normalizer) NormalizeAll(ctx context.Context, rows []map[string]interface{}) []domain.SurveyRecord {
	n.logger.InfoContext(ctx, "normalizing raw survey rows",
		slog.Int("row_count", len(rows)))

	records := make([]domain.SurveyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, n.NormalizeRow(row))
	}
	return records
}

// NormalizeRow normalizes a single raw row. It never fails: unparseable or
// absent values become missing fields and flow through later stages as such.
func (n *Normalizer) NormalizeRow(row map[string]interface{}) domain.SurveyRecord {
	cols := n.cfg.Columns

	var rec domain.SurveyRecord

	if year, ok := n.numeric(row, cols.Year); ok {
		rec.Year = int(year)
	}
	if quarter, ok := n.numeric(row, cols.Quarter); ok {
		rec.Quarter = int(quarter)
	}
	if region, ok := n.numeric(row, cols.Region); ok {
		rec.Region = int(region)
	}
	if status, ok := n.numeric(row, cols.Status); ok {
		rec.Status = domain.EmploymentStatus(int(status))
	}
	if age, ok := n.numeric(row, cols.Age); ok {
		rec.Age = domain.I(int(age))
	}
	if weight, ok := n.numeric(row, cols.Weight); ok {
		rec.Weight = weight
	}
	if branch, ok := n.numeric(row, cols.Branch); ok {
		rec.BranchCode = domain.I(int(branch))
	}

	// Income cannot be negative in this domain.
	if income, ok := n.numeric(row, cols.Income); ok && income >= 0 {
		rec.NominalIncome = domain.F(income)
	}

	period := rec.Period()
	if period.IsValid() {
		rec.PeriodKey = period.Key()
	}

	return rec
}

// numeric pulls a coerced numeric value from the row, applying the sentinel
// translation configured for that column.
func (n *Normalizer) numeric(row map[string]interface{}, col string) (float64, bool) {
	raw, present := row[col]
	if !present {
		return 0, false
	}

	v, ok := coerceFloat(raw)
	if !ok {
		return 0, false
	}

	if set, sentinelCol := n.sentinels[col]; sentinelCol && set[v] {
		return 0, false
	}
	return v, true
}

// coerceFloat converts raw cell values of any supported type to float64.
func coerceFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
