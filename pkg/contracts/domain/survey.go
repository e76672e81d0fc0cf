package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EmploymentStatus is the survey's condition-of-activity code.
type EmploymentStatus int

const (
	// StatusEmployed marks an occupied individual (ESTADO = 1).
	StatusEmployed EmploymentStatus = 1
	// StatusUnemployed marks an unemployed individual (ESTADO = 2).
	StatusUnemployed EmploymentStatus = 2
)

// Float is a float64 that may be missing. Missing values never contribute
// to weighted statistics and are rendered as empty cells on export.
type Float struct {
	Value float64
	Valid bool
}

// F wraps a present float value.
func F(v float64) Float {
	return Float{Value: v, Valid: true}
}

var nullJSON = []byte("null")

// MarshalJSON renders a missing value as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return nullJSON, nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts null or a number.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, nullJSON) {
		*f = Float{}
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Int is an int that may be missing (age, activity branch code).
type Int struct {
	Value int
	Valid bool
}

// I wraps a present int value.
func I(v int) Int {
	return Int{Value: v, Valid: true}
}

// MarshalJSON renders a missing value as null.
func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return nullJSON, nil
	}
	return json.Marshal(i.Value)
}

// UnmarshalJSON accepts null or a number.
func (i *Int) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, nullJSON) {
		*i = Int{}
		return nil
	}
	if err := json.Unmarshal(data, &i.Value); err != nil {
		return err
	}
	i.Valid = true
	return nil
}

// Period identifies a survey wave by year and quarter.
type Period struct {
	Year    int
	Quarter int
}

// Key returns the canonical period key, e.g. "2024-T1".
func (p Period) Key() string {
	return fmt.Sprintf("%d-T%d", p.Year, p.Quarter)
}

// IsValid reports whether the period has a plausible year and quarter.
func (p Period) IsValid() bool {
	return p.Year > 0 && p.Quarter >= 1 && p.Quarter <= 4
}

// SurveyRecord is one surveyed individual in one period, after normalization.
// Weight is the expansion factor: the record stands for Weight population
// units. Records with Weight <= 0 are excluded from every weighted statistic.
type SurveyRecord struct {
	Year          int              `json:"year" csv:"year"`
	Quarter       int              `json:"quarter" csv:"quarter"`
	Region        int              `json:"region_code" csv:"region_code"`
	Status        EmploymentStatus `json:"employment_status" csv:"employment_status"`
	Age           Int              `json:"age" csv:"age"`
	Weight        float64          `json:"weight" csv:"weight"`
	NominalIncome Float            `json:"nominal_income" csv:"nominal_income"`
	BranchCode    Int              `json:"activity_branch_code" csv:"activity_branch_code"`
	PeriodKey     string           `json:"period_key" csv:"period_key"`
}

// Period returns the record's survey period.
func (r SurveyRecord) Period() Period {
	return Period{Year: r.Year, Quarter: r.Quarter}
}

// IsEmployed reports whether the individual is occupied.
func (r SurveyRecord) IsEmployed() bool {
	return r.Status == StatusEmployed
}

// IsUnemployed reports whether the individual is unemployed.
func (r SurveyRecord) IsUnemployed() bool {
	return r.Status == StatusUnemployed
}

// HasPositiveWeight reports whether the record counts toward weighted
// statistics.
func (r SurveyRecord) HasPositiveWeight() bool {
	return r.Weight > 0
}

// DeflatedRecord is a SurveyRecord joined against the price index.
// RealIncome is missing when the nominal income is missing or the record's
// period has no index entry.
type DeflatedRecord struct {
	SurveyRecord
	RealIncome Float `json:"real_income" csv:"real_income"`
}

// PriceIndexSeries is the price index keyed by period. Exactly one entry per
// period; the loader rejects duplicates.
type PriceIndexSeries map[Period]float64

// Lookup returns the index value for the period, when present.
func (s PriceIndexSeries) Lookup(p Period) Float {
	v, ok := s[p]
	if !ok {
		return Float{}
	}
	return F(v)
}
