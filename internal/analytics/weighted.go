package analytics

import (
	"sort"

	"ephcli/pkg/contracts/domain"
)

// Sample is one observation with its expansion weight.
type Sample struct {
	Value  float64
	Weight float64
}

// WeightedMean computes sum(x*w)/sum(w) over samples with positive weight.
// Returns missing when no sample is eligible: an empty cohort has no mean,
// it is not zero.
func WeightedMean(samples []Sample) domain.Float {
	var sumXW, sumW float64
	for _, s := range samples {
		if s.Weight <= 0 {
			continue
		}
		sumXW += s.Value * s.Weight
		sumW += s.Weight
	}
	if sumW == 0 {
		return domain.Float{}
	}
	return domain.F(sumXW / sumW)
}

// WeightedQuantile computes the weighted p-th quantile by walking the
// cumulative-weight curve: the result is the smallest value v such that the
// cumulative weight of samples with value <= v reaches p times the total
// weight. This replaces the repeat-each-row-weight-times approximation with
// an exact O(n log n) computation that accepts fractional weights.
func WeightedQuantile(samples []Sample, p float64) domain.Float {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	eligible := make([]Sample, 0, len(samples))
	var totalWeight float64
	for _, s := range samples {
		if s.Weight <= 0 {
			continue
		}
		eligible = append(eligible, s)
		totalWeight += s.Weight
	}
	if totalWeight == 0 {
		return domain.Float{}
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Value < eligible[j].Value
	})

	threshold := p * totalWeight
	var cum float64
	for _, s := range eligible {
		cum += s.Weight
		if cum >= threshold {
			return domain.F(s.Value)
		}
	}
	// Floating point accumulation can land a hair under the threshold.
	return domain.F(eligible[len(eligible)-1].Value)
}

// incomeSamples extracts (real income, weight) pairs from records where the
// income is present. Weight eligibility is handled by the statistics
// themselves.
func incomeSamples(records []domain.DeflatedRecord) []Sample {
	samples := make([]Sample, 0, len(records))
	for _, r := range records {
		if !r.RealIncome.Valid {
			continue
		}
		samples = append(samples, Sample{Value: r.RealIncome.Value, Weight: r.Weight})
	}
	return samples
}
