// Package deflation rebases nominal survey incomes to a reference period
// using a quarterly price index.
package deflation

import (
	"context"
	"log/slog"

	"ephcli/internal/errors"
	"ephcli/pkg/contracts/domain"
)

// Deflator joins survey records against a price-index series and computes
// real income anchored to the configured base period.
type Deflator struct {
	index      domain.PriceIndexSeries
	basePeriod domain.Period
	baseIndex  float64
	logger     *slog.Logger
}

// NewDeflator creates a deflator anchored to (baseYear, baseQuarter).
// A base period absent from the index is a fatal configuration error: every
// real-income figure would be meaningless without it.
func NewDeflator(logger *slog.Logger, index domain.PriceIndexSeries, baseYear, baseQuarter int) (*Deflator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base := domain.Period{Year: baseYear, Quarter: baseQuarter}
	baseIndex := index.Lookup(base)
	if !baseIndex.Valid {
		return nil, errors.NewConfigError("base period absent from price index", nil).
			WithContext("base_period", base.Key())
	}
	if baseIndex.Value <= 0 {
		return nil, errors.NewConfigError("base period index value must be positive", nil).
			WithContext("base_period", base.Key()).
			WithContext("index_value", baseIndex.Value)
	}

	return &Deflator{
		index:      index,
		basePeriod: base,
		baseIndex:  baseIndex.Value,
		logger:     logger,
	}, nil
}

// BasePeriod returns the reference period incomes are rebased to.
func (d *Deflator) BasePeriod() domain.Period {
	return d.basePeriod
}

// Deflate left-joins the records against the index series. Records whose
// period has no index entry, or whose nominal income is missing, get a
// missing real income; they are kept in the table and excluded only from the
// statistics that need the field.
func (d *Deflator) Deflate(ctx context.Context, records []domain.SurveyRecord) []domain.DeflatedRecord {
	deflated := make([]domain.DeflatedRecord, 0, len(records))
	unmatched := 0

	for _, rec := range records {
		out := domain.DeflatedRecord{SurveyRecord: rec}

		periodIndex := d.index.Lookup(rec.Period())
		if !periodIndex.Valid || periodIndex.Value <= 0 {
			unmatched++
		} else if rec.NominalIncome.Valid {
			out.RealIncome = domain.F(rec.NominalIncome.Value * (d.baseIndex / periodIndex.Value))
		}

		deflated = append(deflated, out)
	}

	d.logger.InfoContext(ctx, "deflated survey records",
		slog.String("base_period", d.basePeriod.Key()),
		slog.Int("record_count", len(records)),
		slog.Int("unmatched_periods", unmatched))

	return deflated
}
