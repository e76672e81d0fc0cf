// Package cohort builds filtered sub-populations of the deflated survey
// table. Filters are pure: each returns a new slice and never mutates its
// input.
//
// Filter order matters for outlier trimming: the percentile threshold must be
// computed on an already-valid population, so validity filters go first and
// TrimOutliers last. Chain enforces nothing; EmployedAdults and callers are
// responsible for ordering.
package cohort

import (
	"sort"

	"ephcli/pkg/contracts/domain"
)

// Filter narrows a deflated table to a sub-population.
type Filter func([]domain.DeflatedRecord) []domain.DeflatedRecord

// Chain applies filters left to right.
func Chain(filters ...Filter) Filter {
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		for _, f := range filters {
			records = f(records)
		}
		return records
	}
}

// Adults keeps individuals aged minAge or older. Rows with missing age are
// dropped: age is required for this filter.
func Adults(minAge int) Filter {
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		out := make([]domain.DeflatedRecord, 0, len(records))
		for _, r := range records {
			if r.Age.Valid && r.Age.Value >= minAge {
				out = append(out, r)
			}
		}
		return out
	}
}

// Employed keeps occupied individuals.
func Employed() Filter {
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		out := make([]domain.DeflatedRecord, 0, len(records))
		for _, r := range records {
			if r.IsEmployed() {
				out = append(out, r)
			}
		}
		return out
	}
}

// PositiveWeight keeps records that count toward weighted statistics.
// Zero-or-negative weight is excluded outright, never treated as a silent
// zero contribution.
func PositiveWeight() Filter {
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		out := make([]domain.DeflatedRecord, 0, len(records))
		for _, r := range records {
			if r.HasPositiveWeight() {
				out = append(out, r)
			}
		}
		return out
	}
}

// PositiveIncome keeps records with a present, strictly positive real income.
func PositiveIncome() Filter {
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		out := make([]domain.DeflatedRecord, 0, len(records))
		for _, r := range records {
			if r.RealIncome.Valid && r.RealIncome.Value > 0 {
				out = append(out, r)
			}
		}
		return out
	}
}

// Regions keeps records from the target region codes. An empty target list
// retains all regions.
func Regions(targets []int) Filter {
	if len(targets) == 0 {
		return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
			return records
		}
	}
	set := make(map[int]bool, len(targets))
	for _, code := range targets {
		set[code] = true
	}
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		out := make([]domain.DeflatedRecord, 0, len(records))
		for _, r := range records {
			if set[r.Region] {
				out = append(out, r)
			}
		}
		return out
	}
}

// TrimOutliers drops records whose real income exceeds the p-th percentile
// of real income over the records it is given. Apply after the validity
// filters: trimming an unfiltered table would bias the threshold.
func TrimOutliers(p float64) Filter {
	return func(records []domain.DeflatedRecord) []domain.DeflatedRecord {
		threshold, ok := incomePercentile(records, p)
		if !ok {
			return append([]domain.DeflatedRecord(nil), records...)
		}

		out := make([]domain.DeflatedRecord, 0, len(records))
		for _, r := range records {
			if !r.RealIncome.Valid || r.RealIncome.Value <= threshold {
				out = append(out, r)
			}
		}
		return out
	}
}

// EmployedAdults is the standard income cohort: adults, employed, positively
// weighted, positive real income, with extreme outliers trimmed last.
func EmployedAdults(minAge int, outlierPercentile float64) Filter {
	return Chain(
		Adults(minAge),
		Employed(),
		PositiveWeight(),
		PositiveIncome(),
		TrimOutliers(outlierPercentile),
	)
}

// incomePercentile computes the unweighted p-th percentile of present real
// incomes using linear interpolation between order statistics.
func incomePercentile(records []domain.DeflatedRecord, p float64) (float64, bool) {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.RealIncome.Valid {
			values = append(values, r.RealIncome.Value)
		}
	}
	if len(values) == 0 {
		return 0, false
	}

	sort.Float64s(values)

	if p <= 0 {
		return values[0], true
	}
	if p >= 1 {
		return values[len(values)-1], true
	}

	idx := p * float64(len(values)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(values) {
		return values[lower], true
	}
	frac := idx - float64(lower)
	return values[lower]*(1-frac) + values[upper]*frac, true
}
