package exporter

import (
	"strconv"

	"ephcli/pkg/contracts/domain"
)

// Table is a named result table ready for serialization. Missing values
// render as empty cells.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v domain.Float) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Value)
}

// RatesTable builds the labor-force rates table.
func RatesTable(summaries []domain.RateSummary) Table {
	t := Table{
		Name:    "rates",
		Headers: []string{"region_code", "year", "quarter", "activity_rate", "employment_rate", "unemployment_rate"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.Region),
			strconv.Itoa(s.Year),
			strconv.Itoa(s.Quarter),
			formatFloat(s.ActivityRate),
			formatFloat(s.EmploymentRate),
			formatFloat(s.UnemploymentRate),
		})
	}
	return t
}

// GeneralIncomeTable builds the per-region mean income table.
func GeneralIncomeTable(summaries []domain.IncomeSummary) Table {
	t := Table{
		Name:    "income_general",
		Headers: []string{"region_code", "real_income_mean"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.Region),
			formatNullable(s.MeanIncome),
		})
	}
	return t
}

// PeriodicIncomeTable builds the per-period mean income table.
func PeriodicIncomeTable(summaries []domain.PeriodicIncomeSummary) Table {
	t := Table{
		Name:    "income_periodic",
		Headers: []string{"region_code", "year", "quarter", "real_income_mean"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.Region),
			strconv.Itoa(s.Year),
			strconv.Itoa(s.Quarter),
			formatNullable(s.MeanIncome),
		})
	}
	return t
}

// UnivariateIncomeTable builds the distribution statistics table.
func UnivariateIncomeTable(summaries []domain.UnivariateIncomeSummary) Table {
	t := Table{
		Name:    "income_univariate",
		Headers: []string{"region_code", "period_key", "weighted_mean", "weighted_median", "weighted_q25", "weighted_q75"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.Region),
			s.PeriodKey,
			formatNullable(s.Mean),
			formatNullable(s.Median),
			formatNullable(s.Q25),
			formatNullable(s.Q75),
		})
	}
	return t
}

// ParticipationTable builds the branch participation table.
func ParticipationTable(summaries []domain.BranchParticipation) Table {
	t := Table{
		Name:    "branch_participation",
		Headers: []string{"region_code", "year", "branch", "branch_weighted_employment", "total_weighted_employment", "share"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.Region),
			strconv.Itoa(s.Year),
			string(s.Branch),
			formatFloat(s.BranchEmployment),
			formatFloat(s.TotalEmployment),
			formatFloat(s.Share),
		})
	}
	return t
}
