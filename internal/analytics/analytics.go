// Package analytics computes weighted income aggregates and labor-force
// rates from deflated survey records. All statistics use the survey
// expansion weights except the labor-force rates, which are ratios of
// record counts.
package analytics

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"ephcli/pkg/contracts/domain"
)

// Calculator produces per-region and per-period summaries.
type Calculator struct {
	minAge int
	logger *slog.Logger
}

// NewCalculator creates a Calculator. minAge bounds the working-age
// population used for labor-force rates.
func NewCalculator(minAge int, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{minAge: minAge, logger: logger}
}

// GeneralIncome computes the weighted mean real income per region.
func (c *Calculator) GeneralIncome(ctx context.Context, records []domain.DeflatedRecord) ([]domain.IncomeSummary, error) {
	groups := groupBy(records, func(r domain.DeflatedRecord) int { return r.Region })

	summaries := make([]domain.IncomeSummary, len(groups.keys))
	g, ctx := errgroup.WithContext(ctx)
	for i, region := range groups.keys {
		i, region := i, region
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summaries[i] = domain.IncomeSummary{
				Region:     region,
				MeanIncome: WeightedMean(incomeSamples(groups.rows[region])),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Region < summaries[j].Region })
	c.logger.InfoContext(ctx, "computed general income summaries",
		slog.Int("regions", len(summaries)))
	return summaries, nil
}

// PeriodicIncome computes the weighted mean real income per
// (region, year, quarter).
func (c *Calculator) PeriodicIncome(ctx context.Context, records []domain.DeflatedRecord) ([]domain.PeriodicIncomeSummary, error) {
	type cellKey struct {
		region, year, quarter int
	}
	groups := groupBy(records, func(r domain.DeflatedRecord) cellKey {
		return cellKey{region: r.Region, year: r.Year, quarter: r.Quarter}
	})

	summaries := make([]domain.PeriodicIncomeSummary, len(groups.keys))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range groups.keys {
		i, key := i, key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summaries[i] = domain.PeriodicIncomeSummary{
				Region:     key.region,
				Year:       key.year,
				Quarter:    key.quarter,
				MeanIncome: WeightedMean(incomeSamples(groups.rows[key])),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Quarter < b.Quarter
	})
	c.logger.InfoContext(ctx, "computed periodic income summaries",
		slog.Int("cells", len(summaries)))
	return summaries, nil
}

// UnivariateIncome computes mean, median and quartiles of real income per
// (region, period). Records without a period key are skipped.
func (c *Calculator) UnivariateIncome(ctx context.Context, records []domain.DeflatedRecord) ([]domain.UnivariateIncomeSummary, error) {
	type cellKey struct {
		region    int
		periodKey string
	}
	withPeriod := make([]domain.DeflatedRecord, 0, len(records))
	for _, r := range records {
		if r.PeriodKey == "" {
			continue
		}
		withPeriod = append(withPeriod, r)
	}
	groups := groupBy(withPeriod, func(r domain.DeflatedRecord) cellKey {
		return cellKey{region: r.Region, periodKey: r.PeriodKey}
	})

	summaries := make([]domain.UnivariateIncomeSummary, len(groups.keys))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range groups.keys {
		i, key := i, key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			samples := incomeSamples(groups.rows[key])
			summaries[i] = domain.UnivariateIncomeSummary{
				Region:    key.region,
				PeriodKey: key.periodKey,
				Mean:      WeightedMean(samples),
				Median:    WeightedQuantile(samples, 0.5),
				Q25:       WeightedQuantile(samples, 0.25),
				Q75:       WeightedQuantile(samples, 0.75),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.PeriodKey < b.PeriodKey
	})
	c.logger.InfoContext(ctx, "computed univariate income summaries",
		slog.Int("cells", len(summaries)))
	return summaries, nil
}

// grouped holds the rows per key plus the keys in first-seen order so group
// slices can be dispatched to goroutines deterministically.
type grouped[K comparable] struct {
	keys []K
	rows map[K][]domain.DeflatedRecord
}

func groupBy[K comparable](records []domain.DeflatedRecord, keyOf func(domain.DeflatedRecord) K) grouped[K] {
	g := grouped[K]{rows: make(map[K][]domain.DeflatedRecord)}
	for _, r := range records {
		key := keyOf(r)
		if _, ok := g.rows[key]; !ok {
			g.keys = append(g.keys, key)
		}
		g.rows[key] = append(g.rows[key], r)
	}
	return g
}
