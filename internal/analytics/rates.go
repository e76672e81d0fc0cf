package analytics

import (
	"sort"

	"ephcli/pkg/contracts/domain"
)

type rateCounts struct {
	population int
	active     int
	employed   int
	unemployed int
}

// LaborForceRates computes activity, employment and unemployment rates per
// (region, year, quarter) over the working-age population. Rates are ratios
// of record counts:
//
//	activity     = active / population
//	employment   = employed / population
//	unemployment = unemployed / active
//
// where active = employed + unemployed. A rate with a zero denominator is
// reported as 0.
func (c *Calculator) LaborForceRates(records []domain.DeflatedRecord) []domain.RateSummary {
	type cellKey struct {
		region, year, quarter int
	}
	cells := make(map[cellKey]*rateCounts)

	for _, r := range records {
		if !r.Age.Valid || r.Age.Value < c.minAge {
			continue
		}
		key := cellKey{region: r.Region, year: r.Year, quarter: r.Quarter}
		counts, ok := cells[key]
		if !ok {
			counts = &rateCounts{}
			cells[key] = counts
		}
		counts.population++
		switch {
		case r.IsEmployed():
			counts.active++
			counts.employed++
		case r.IsUnemployed():
			counts.active++
			counts.unemployed++
		}
	}

	summaries := make([]domain.RateSummary, 0, len(cells))
	for key, counts := range cells {
		summaries = append(summaries, domain.RateSummary{
			Region:           key.region,
			Year:             key.year,
			Quarter:          key.quarter,
			ActivityRate:     safeRatio(counts.active, counts.population),
			EmploymentRate:   safeRatio(counts.employed, counts.population),
			UnemploymentRate: safeRatio(counts.unemployed, counts.active),
		})
	}
	sortRates(summaries)
	return summaries
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func sortRates(summaries []domain.RateSummary) {
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
}
