package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig is the single source of truth for every file path the pipeline
// reads or writes.
type PathsConfig struct {
	// RawDir holds the raw survey extracts (*.txt / *.csv batches).
	RawDir string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	// DataDir holds intermediate cleaned files.
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	// OutputDir is the root for exported tables.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	// IndexFile is the price-index CSV.
	IndexFile string `yaml:"index_file" envconfig:"INDEX_FILE"`
}

// resolve normalizes all configured paths.
func (p *PathsConfig) resolve() {
	p.RawDir = filepath.Clean(p.RawDir)
	p.DataDir = filepath.Clean(p.DataDir)
	p.OutputDir = filepath.Clean(p.OutputDir)
	p.IndexFile = filepath.Clean(p.IndexFile)
}

// CleanFile is the full normalized survey table.
func (p PathsConfig) CleanFile() string {
	return filepath.Join(p.DataDir, "survey_clean.csv")
}

// TrimmedFile is the normalized table restricted to the target regions.
func (p PathsConfig) TrimmedFile() string {
	return filepath.Join(p.DataDir, "survey_clean_trimmed.csv")
}

// IncomeDir is the output directory for income tables.
func (p PathsConfig) IncomeDir() string {
	return filepath.Join(p.OutputDir, "income")
}

// RatesDir is the output directory for labor-force rate tables.
func (p PathsConfig) RatesDir() string {
	return filepath.Join(p.OutputDir, "rates")
}

// EnsureDirectories creates every directory the pipeline writes to.
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.OutputDir, p.IncomeDir(), p.RatesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
