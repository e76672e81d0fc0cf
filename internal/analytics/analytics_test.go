package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ephcli/pkg/contracts/domain"
)

func record(region, year, quarter int, status domain.EmploymentStatus, age int, weight, income float64) domain.DeflatedRecord {
	return domain.DeflatedRecord{
		SurveyRecord: domain.SurveyRecord{
			Year:      year,
			Quarter:   quarter,
			Region:    region,
			Status:    status,
			Age:       domain.I(age),
			Weight:    weight,
			PeriodKey: domain.Period{Year: year, Quarter: quarter}.Key(),
		},
		RealIncome: domain.F(income),
	}
}

func TestWeightedMean(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    float64
		missing bool
	}{
		{
			name: "two observations",
			samples: []Sample{
				{Value: 1000, Weight: 1},
				{Value: 3000, Weight: 1},
			},
			want: 2000,
		},
		{
			name: "weights shift the mean",
			samples: []Sample{
				{Value: 1000, Weight: 3},
				{Value: 3000, Weight: 1},
			},
			want: 1500,
		},
		{
			name: "non-positive weights excluded",
			samples: []Sample{
				{Value: 1000, Weight: 1},
				{Value: 9000, Weight: 0},
				{Value: 9000, Weight: -2},
			},
			want: 1000,
		},
		{
			name:    "empty input is missing",
			samples: nil,
			missing: true,
		},
		{
			name:    "only zero weights is missing",
			samples: []Sample{{Value: 500, Weight: 0}},
			missing: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedMean(tt.samples)
			if tt.missing {
				assert.False(t, got.Valid)
				return
			}
			require.True(t, got.Valid)
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}
}

func TestWeightedQuantile(t *testing.T) {
	samples := []Sample{
		{Value: 3000, Weight: 2},
		{Value: 1000, Weight: 2},
	}

	// Total weight 4, threshold at p=0.5 is 2: the cumulative weight
	// reaches 2 at the first sorted value.
	median := WeightedQuantile(samples, 0.5)
	require.True(t, median.Valid)
	assert.InDelta(t, 1000.0, median.Value, 1e-9)

	q75 := WeightedQuantile(samples, 0.75)
	require.True(t, q75.Valid)
	assert.InDelta(t, 3000.0, q75.Value, 1e-9)
}

func TestWeightedQuantile_Monotonic(t *testing.T) {
	samples := []Sample{
		{Value: 120, Weight: 1.5},
		{Value: 40, Weight: 3},
		{Value: 500, Weight: 0.5},
		{Value: 80, Weight: 2},
		{Value: 250, Weight: 1},
	}
	q25 := WeightedQuantile(samples, 0.25)
	median := WeightedQuantile(samples, 0.5)
	q75 := WeightedQuantile(samples, 0.75)
	require.True(t, q25.Valid)
	require.True(t, median.Valid)
	require.True(t, q75.Valid)
	assert.LessOrEqual(t, q25.Value, median.Value)
	assert.LessOrEqual(t, median.Value, q75.Value)
}

func TestWeightedQuantile_Edges(t *testing.T) {
	samples := []Sample{
		{Value: 10, Weight: 1},
		{Value: 20, Weight: 1},
		{Value: 30, Weight: 1},
	}

	low := WeightedQuantile(samples, 0)
	require.True(t, low.Valid)
	assert.InDelta(t, 10.0, low.Value, 1e-9)

	high := WeightedQuantile(samples, 1)
	require.True(t, high.Valid)
	assert.InDelta(t, 30.0, high.Value, 1e-9)

	assert.False(t, WeightedQuantile(nil, 0.5).Valid)
	assert.False(t, WeightedQuantile([]Sample{{Value: 5, Weight: 0}}, 0.5).Valid)
}

func TestLaborForceRates(t *testing.T) {
	calc := NewCalculator(18, nil)

	// Three adults: two employed, one unemployed.
	records := []domain.DeflatedRecord{
		record(31, 2025, 2, domain.StatusEmployed, 30, 100, 1000),
		record(31, 2025, 2, domain.StatusEmployed, 45, 200, 2000),
		record(31, 2025, 2, domain.StatusUnemployed, 25, 50, 0),
	}

	rates := calc.LaborForceRates(records)
	require.Len(t, rates, 1)
	r := rates[0]
	assert.Equal(t, 31, r.Region)
	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, 2, r.Quarter)
	assert.InDelta(t, 1.0, r.ActivityRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, r.EmploymentRate, 1e-9)
	assert.InDelta(t, 1.0/3.0, r.UnemploymentRate, 1e-9)
}

func TestLaborForceRates_InactiveAndMinors(t *testing.T) {
	calc := NewCalculator(18, nil)

	inactive := record(31, 2025, 1, domain.EmploymentStatus(3), 60, 80, 0)
	minor := record(31, 2025, 1, domain.StatusEmployed, 15, 80, 500)
	noAge := record(31, 2025, 1, domain.StatusEmployed, 0, 80, 500)
	noAge.Age = domain.Int{}
	employed := record(31, 2025, 1, domain.StatusEmployed, 40, 80, 1500)

	rates := calc.LaborForceRates([]domain.DeflatedRecord{inactive, minor, noAge, employed})
	require.Len(t, rates, 1)
	r := rates[0]

	// Two working-age records: one inactive, one employed. Minors and
	// missing ages never enter the population.
	assert.InDelta(t, 0.5, r.ActivityRate, 1e-9)
	assert.InDelta(t, 0.5, r.EmploymentRate, 1e-9)
	assert.InDelta(t, 0.0, r.UnemploymentRate, 1e-9)
}

func TestLaborForceRates_ZeroDenominators(t *testing.T) {
	calc := NewCalculator(18, nil)

	// Only inactive adults: active count is zero, so the unemployment
	// rate reports 0 rather than dividing by zero.
	records := []domain.DeflatedRecord{
		record(34, 2024, 4, domain.EmploymentStatus(3), 70, 10, 0),
		record(34, 2024, 4, domain.EmploymentStatus(4), 80, 10, 0),
	}
	rates := calc.LaborForceRates(records)
	require.Len(t, rates, 1)
	assert.Zero(t, rates[0].ActivityRate)
	assert.Zero(t, rates[0].EmploymentRate)
	assert.Zero(t, rates[0].UnemploymentRate)

	assert.Empty(t, calc.LaborForceRates(nil))
}

func TestLaborForceRates_Bounds(t *testing.T) {
	calc := NewCalculator(18, nil)
	statuses := []domain.EmploymentStatus{
		domain.StatusEmployed, domain.StatusUnemployed,
		domain.EmploymentStatus(3), domain.EmploymentStatus(4),
	}
	var records []domain.DeflatedRecord
	for i, s := range statuses {
		for j := 0; j <= i; j++ {
			records = append(records, record(31+i%2, 2024, 1+i%4, s, 20+j, 10, 100))
		}
	}
	for _, r := range calc.LaborForceRates(records) {
		for _, rate := range []float64{r.ActivityRate, r.EmploymentRate, r.UnemploymentRate} {
			assert.GreaterOrEqual(t, rate, 0.0)
			assert.LessOrEqual(t, rate, 1.0)
		}
	}
}

func TestGeneralIncome(t *testing.T) {
	calc := NewCalculator(18, nil)
	records := []domain.DeflatedRecord{
		record(31, 2025, 1, domain.StatusEmployed, 30, 1, 1000),
		record(31, 2025, 1, domain.StatusEmployed, 35, 1, 3000),
		record(34, 2025, 1, domain.StatusEmployed, 40, 2, 5000),
	}

	summaries, err := calc.GeneralIncome(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, 31, summaries[0].Region)
	require.True(t, summaries[0].MeanIncome.Valid)
	assert.InDelta(t, 2000.0, summaries[0].MeanIncome.Value, 1e-9)

	assert.Equal(t, 34, summaries[1].Region)
	require.True(t, summaries[1].MeanIncome.Valid)
	assert.InDelta(t, 5000.0, summaries[1].MeanIncome.Value, 1e-9)
}

func TestGeneralIncome_MissingIncomes(t *testing.T) {
	calc := NewCalculator(18, nil)
	noIncome := record(31, 2025, 1, domain.StatusEmployed, 30, 1, 0)
	noIncome.RealIncome = domain.Float{}

	summaries, err := calc.GeneralIncome(context.Background(), []domain.DeflatedRecord{noIncome})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].MeanIncome.Valid)
}

func TestPeriodicIncome(t *testing.T) {
	calc := NewCalculator(18, nil)
	records := []domain.DeflatedRecord{
		record(31, 2024, 4, domain.StatusEmployed, 30, 1, 800),
		record(31, 2025, 1, domain.StatusEmployed, 30, 1, 1000),
		record(31, 2025, 1, domain.StatusEmployed, 35, 3, 2000),
	}

	summaries, err := calc.PeriodicIncome(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, 2024, summaries[0].Year)
	assert.InDelta(t, 800.0, summaries[0].MeanIncome.Value, 1e-9)

	assert.Equal(t, 2025, summaries[1].Year)
	assert.Equal(t, 1, summaries[1].Quarter)
	assert.InDelta(t, 1750.0, summaries[1].MeanIncome.Value, 1e-9)
}

func TestUnivariateIncome(t *testing.T) {
	calc := NewCalculator(18, nil)
	records := []domain.DeflatedRecord{
		record(31, 2025, 2, domain.StatusEmployed, 30, 2, 1000),
		record(31, 2025, 2, domain.StatusEmployed, 35, 2, 3000),
	}

	summaries, err := calc.UnivariateIncome(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 31, s.Region)
	assert.Equal(t, "2025-T2", s.PeriodKey)
	assert.InDelta(t, 2000.0, s.Mean.Value, 1e-9)
	assert.InDelta(t, 1000.0, s.Median.Value, 1e-9)
	assert.InDelta(t, 1000.0, s.Q25.Value, 1e-9)
	assert.InDelta(t, 3000.0, s.Q75.Value, 1e-9)
}

func TestUnivariateIncome_SkipsRecordsWithoutPeriod(t *testing.T) {
	calc := NewCalculator(18, nil)
	noPeriod := record(31, 2025, 2, domain.StatusEmployed, 30, 1, 1000)
	noPeriod.PeriodKey = ""

	summaries, err := calc.UnivariateIncome(context.Background(), []domain.DeflatedRecord{noPeriod})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
