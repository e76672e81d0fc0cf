package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ephcli/pkg/contracts/domain"
)

func TestVersionedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.csv")

	assert.Equal(t, path, VersionedPath(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	v2 := VersionedPath(path)
	assert.Equal(t, filepath.Join(dir, "rates_v2.csv"), v2)

	require.NoError(t, os.WriteFile(v2, []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "rates_v3.csv"), VersionedPath(path))
}

func TestWriteTable(t *testing.T) {
	dir := t.TempDir()
	table := RatesTable([]domain.RateSummary{
		{Region: 31, Year: 2025, Quarter: 2, ActivityRate: 1, EmploymentRate: 2.0 / 3.0, UnemploymentRate: 1.0 / 3.0},
	})

	w := NewCSVWriter(nil)
	path, err := w.WriteTable(filepath.Join(dir, "rates.csv"), table, WriteOptions{BOMPrefix: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"))

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\xEF\xBB\xBF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"region_code", "year", "quarter", "activity_rate", "employment_rate", "unemployment_rate"}, records[0])
	assert.Equal(t, "31", records[1][0])
	assert.Equal(t, "1", records[1][3])
}

func TestWriteTable_Versioning(t *testing.T) {
	dir := t.TempDir()
	table := GeneralIncomeTable([]domain.IncomeSummary{
		{Region: 31, MeanIncome: domain.F(2000)},
	})

	w := NewCSVWriter(nil)
	target := filepath.Join(dir, "income.csv")

	first, err := w.WriteTable(target, table, WriteOptions{Version: true})
	require.NoError(t, err)
	assert.Equal(t, target, first)

	second, err := w.WriteTable(target, table, WriteOptions{Version: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "income_v2.csv"), second)
}

func TestTables_MissingValuesRenderEmpty(t *testing.T) {
	table := UnivariateIncomeTable([]domain.UnivariateIncomeSummary{
		{Region: 31, PeriodKey: "2025-T2", Mean: domain.Float{}, Median: domain.F(1000)},
	})
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0][2])
	assert.Equal(t, "1000", table.Rows[0][3])
}

func TestParticipationTable(t *testing.T) {
	table := ParticipationTable([]domain.BranchParticipation{
		{Region: 31, Year: 2025, Branch: domain.BranchIndustry, BranchEmployment: 1, TotalEmployment: 3, Share: 1.0 / 3.0},
	})
	assert.Equal(t, []string{"region_code", "year", "branch", "branch_weighted_employment", "total_weighted_employment", "share"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Industry", table.Rows[0][2])
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	tables := []Table{
		RatesTable([]domain.RateSummary{{Region: 31, Year: 2025, Quarter: 1}}),
		PeriodicIncomeTable([]domain.PeriodicIncomeSummary{
			{Region: 31, Year: 2025, Quarter: 1, MeanIncome: domain.F(1500)},
		}),
	}

	w := NewExcelWriter(nil)
	path, err := w.WriteWorkbook(filepath.Join(dir, "results.xlsx"), tables)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"rates", "income_periodic"}, f.GetSheetList())

	rows, err := f.GetRows("income_periodic")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "real_income_mean", rows[0][3])
	assert.Equal(t, "1500", rows[1][3])
}

func TestWriteWorkbook_Versioning(t *testing.T) {
	dir := t.TempDir()
	tables := []Table{RatesTable(nil)}
	target := filepath.Join(dir, "results.xlsx")

	w := NewExcelWriter(nil)
	first, err := w.WriteWorkbook(target, tables)
	require.NoError(t, err)
	assert.Equal(t, target, first)

	second, err := w.WriteWorkbook(target, tables)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results_v2.xlsx"), second)
}
