package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ephcli/internal/config"
	"ephcli/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Analysis: config.AnalysisConfig{
			BaseYear:          2025,
			BaseQuarter:       2,
			TargetRegions:     []int{31, 34},
			MinAge:            18,
			OutlierPercentile: 0.995,
		},
		Paths: config.PathsConfig{
			RawDir:    filepath.Join(root, "raw"),
			DataDir:   filepath.Join(root, "data"),
			OutputDir: filepath.Join(root, "output"),
			IndexFile: filepath.Join(root, "data", "price_index.csv"),
		},
	}
	require.NoError(t, os.MkdirAll(cfg.Paths.RawDir, 0o755))
	require.NoError(t, cfg.Paths.EnsureDirectories())
	return cfg
}

func seedInputs(t *testing.T, cfg *config.Config) {
	t.Helper()
	raw := "ANO4;TRIMESTRE;AGLOMERADO;ESTADO;CH06;PONDERA;P47T;PP04B_COD\n" +
		"2025;2;31;1;30;100;1000;2000\n" +
		"2025;2;31;1;45;200;3000;5500\n" +
		"2025;2;31;2;25;50;0;9999\n" +
		"2025;2;90;1;40;80;5000;2000\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.RawDir, "batch.txt"), []byte(raw), 0o644))

	index := "ANO4,TRIMESTRE,IPC_INDEX\n2025,2,100.0\n"
	require.NoError(t, os.WriteFile(cfg.Paths.IndexFile, []byte(index), 0o644))
}

func TestWriteReadCleanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean.csv")

	records := []domain.SurveyRecord{
		{
			Year: 2025, Quarter: 2, Region: 31,
			Status: domain.StatusEmployed, Age: domain.I(30),
			Weight: 100, NominalIncome: domain.F(1000.5),
			BranchCode: domain.I(2000), PeriodKey: "2025-T2",
		},
		{
			Year: 2025, Quarter: 2, Region: 34,
			Status: domain.StatusUnemployed,
			Weight: 50, PeriodKey: "2025-T2",
		},
	}

	n, err := WriteCleanFile(path, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := ReadCleanFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0], got[0])

	// Missing age, income and branch survive the round trip as missing.
	assert.False(t, got[1].Age.Valid)
	assert.False(t, got[1].NominalIncome.Valid)
	assert.False(t, got[1].BranchCode.Valid)
}

func TestReadCleanFile_BadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	_, err := ReadCleanFile(path)
	require.Error(t, err)
}

func TestRunnerRun(t *testing.T) {
	cfg := testConfig(t)
	seedInputs(t, cfg)

	runner := NewRunner(cfg, nil, nil)
	results, err := runner.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.NotEmpty(t, results.RunID)

	// Region 90 is outside the target regions and never reaches the
	// aggregates.
	require.Len(t, results.Rates, 1)
	rates := results.Rates[0]
	assert.Equal(t, 31, rates.Region)
	assert.InDelta(t, 1.0, rates.ActivityRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, rates.EmploymentRate, 1e-9)
	assert.InDelta(t, 1.0/3.0, rates.UnemploymentRate, 1e-9)

	// Base period equals the survey period, so real income is nominal. The
	// mean covers both employed adults, no outlier trim applies here.
	require.Len(t, results.GeneralIncome, 1)
	mean := results.GeneralIncome[0].MeanIncome
	require.True(t, mean.Valid)
	assert.InDelta(t, (1000*100.0+3000*200.0)/300.0, mean.Value, 1e-9)

	// The distribution table uses the positive-income, outlier-trimmed
	// cohort: the 99.5th percentile of {1000, 3000} is 2990, so only the
	// 1000 observation survives there.
	require.Len(t, results.Univariate, 1)
	require.True(t, results.Univariate[0].Mean.Valid)
	assert.InDelta(t, 1000.0, results.Univariate[0].Mean.Value, 1e-9)

	require.NotEmpty(t, results.Participation)

	// Outputs and the clean files exist.
	assert.True(t, config.FileExists(cfg.Paths.CleanFile()))
	assert.True(t, config.FileExists(cfg.Paths.TrimmedFile()))
	assert.True(t, config.FileExists(filepath.Join(cfg.Paths.RatesDir(), "rates.csv")))
	assert.True(t, config.FileExists(filepath.Join(cfg.Paths.OutputDir, "results.xlsx")))
}

func TestRunnerRun_ReusesCleanFile(t *testing.T) {
	cfg := testConfig(t)
	seedInputs(t, cfg)

	runner := NewRunner(cfg, nil, nil)
	_, err := runner.Run(context.Background(), Options{SkipExport: true})
	require.NoError(t, err)

	// Remove the raw extracts: the second run must succeed from the clean
	// file alone.
	require.NoError(t, os.RemoveAll(cfg.Paths.RawDir))
	results, err := runner.Run(context.Background(), Options{SkipExport: true})
	require.NoError(t, err)
	assert.Len(t, results.Rates, 1)

	// Force now fails because the raw directory is gone.
	_, err = runner.Run(context.Background(), Options{Force: true, SkipExport: true})
	require.Error(t, err)
}

func TestRunnerRun_MeanIncomeKeepsZeroIncomes(t *testing.T) {
	cfg := testConfig(t)
	raw := "ANO4;TRIMESTRE;AGLOMERADO;ESTADO;CH06;PONDERA;P47T;PP04B_COD\n" +
		"2025;2;31;1;30;100;0;2000\n" +
		"2025;2;31;1;45;100;3000;2000\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.RawDir, "batch.txt"), []byte(raw), 0o644))
	require.NoError(t, os.WriteFile(cfg.Paths.IndexFile, []byte("ANO4,TRIMESTRE,IPC_INDEX\n2025,2,100.0\n"), 0o644))

	runner := NewRunner(cfg, nil, nil)
	results, err := runner.Run(context.Background(), Options{SkipExport: true})
	require.NoError(t, err)

	// A declared zero income counts toward the mean, and the top earner is
	// not trimmed away from it.
	require.Len(t, results.GeneralIncome, 1)
	mean := results.GeneralIncome[0].MeanIncome
	require.True(t, mean.Valid)
	assert.InDelta(t, 1500.0, mean.Value, 1e-9)

	// The distribution cohort still drops the zero income.
	require.Len(t, results.Univariate, 1)
	require.True(t, results.Univariate[0].Mean.Valid)
	assert.InDelta(t, 3000.0, results.Univariate[0].Mean.Value, 1e-9)
}

func TestRunnerRun_MissingBasePeriodFatal(t *testing.T) {
	cfg := testConfig(t)
	seedInputs(t, cfg)
	cfg.Analysis.BaseYear = 1999

	runner := NewRunner(cfg, nil, nil)
	_, err := runner.Run(context.Background(), Options{})
	require.Error(t, err)
}
