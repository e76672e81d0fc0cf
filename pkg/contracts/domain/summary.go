package domain

// RateSummary holds the labor-force rates for one region and quarter,
// computed over the adult (18+) cohort.
type RateSummary struct {
	Region           int     `json:"region_code" csv:"region_code"`
	Year             int     `json:"year" csv:"year"`
	Quarter          int     `json:"quarter" csv:"quarter"`
	ActivityRate     float64 `json:"activity_rate" csv:"activity_rate"`
	EmploymentRate   float64 `json:"employment_rate" csv:"employment_rate"`
	UnemploymentRate float64 `json:"unemployment_rate" csv:"unemployment_rate"`
}

// IncomeSummary is the weighted mean real income for a region across all
// periods, over the employed adult cohort.
type IncomeSummary struct {
	Region     int   `json:"region_code" csv:"region_code"`
	MeanIncome Float `json:"real_income_mean" csv:"real_income_mean"`
}

// PeriodicIncomeSummary is the weighted mean real income for one region and
// quarter.
type PeriodicIncomeSummary struct {
	Region     int   `json:"region_code" csv:"region_code"`
	Year       int   `json:"year" csv:"year"`
	Quarter    int   `json:"quarter" csv:"quarter"`
	MeanIncome Float `json:"real_income_mean" csv:"real_income_mean"`
}

// UnivariateIncomeSummary holds the weighted distribution measures of real
// income for one region and period.
type UnivariateIncomeSummary struct {
	Region    int    `json:"region_code" csv:"region_code"`
	PeriodKey string `json:"period_key" csv:"period_key"`
	Mean      Float  `json:"weighted_mean" csv:"weighted_mean"`
	Median    Float  `json:"weighted_median" csv:"weighted_median"`
	Q25       Float  `json:"weighted_q25" csv:"weighted_q25"`
	Q75       Float  `json:"weighted_q75" csv:"weighted_q75"`
}

// Branch is an economic-activity sector derived from the activity branch code.
type Branch string

const (
	BranchIndustry Branch = "Industry"
	BranchTourism  Branch = "Tourism"
	// BranchNone marks employment outside the classified sectors. Unclassified
	// employment still counts in participation denominators.
	BranchNone Branch = ""
)

// BranchParticipation is one sector's weighted share of total employment for
// a region and year.
type BranchParticipation struct {
	Region           int     `json:"region_code" csv:"region_code"`
	Year             int     `json:"year" csv:"year"`
	Branch           Branch  `json:"branch" csv:"branch"`
	BranchEmployment float64 `json:"branch_weighted_employment" csv:"branch_weighted_employment"`
	TotalEmployment  float64 `json:"total_weighted_employment" csv:"total_weighted_employment"`
	Share            float64 `json:"share" csv:"share"`
}
