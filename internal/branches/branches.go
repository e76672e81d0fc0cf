// Package branches classifies employed workers into activity branches by
// their activity code and computes weighted branch participation shares.
package branches

import (
	"context"
	"log/slog"
	"sort"

	"ephcli/pkg/contracts/domain"
)

// CodeRange is a half-open activity-code interval [Low, High).
type CodeRange struct {
	Low  int
	High int
}

// Contains reports whether code falls inside the range.
func (r CodeRange) Contains(code int) bool {
	return code >= r.Low && code < r.High
}

// Scheme maps each branch to the code ranges that define it. A code that
// matches no range is unclassified.
type Scheme map[domain.Branch][]CodeRange

// DefaultScheme returns the standard branch definitions.
func DefaultScheme() Scheme {
	return Scheme{
		domain.BranchIndustry: {
			{Low: 1500, High: 4000},
		},
		domain.BranchTourism: {
			{Low: 5000, High: 6000},
			{Low: 9100, High: 9500},
		},
	}
}

// Classify returns the branch for an activity code, or BranchNone when the
// code matches no range.
func (s Scheme) Classify(code int) domain.Branch {
	for branch, ranges := range s {
		for _, r := range ranges {
			if r.Contains(code) {
				return branch
			}
		}
	}
	return domain.BranchNone
}

// Branches returns the scheme's branch names in stable order.
func (s Scheme) Branches() []domain.Branch {
	names := make([]domain.Branch, 0, len(s))
	for branch := range s {
		names = append(names, branch)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Classifier computes branch participation over employed working-age
// workers.
type Classifier struct {
	scheme Scheme
	minAge int
	logger *slog.Logger
}

// NewClassifier creates a Classifier with the given scheme. A nil scheme
// falls back to DefaultScheme; a non-positive minAge falls back to 18.
func NewClassifier(scheme Scheme, minAge int, logger *slog.Logger) *Classifier {
	if scheme == nil {
		scheme = DefaultScheme()
	}
	if minAge <= 0 {
		minAge = 18
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{scheme: scheme, minAge: minAge, logger: logger}
}

// Participation computes, per (region, year), each branch's share of total
// weighted employment over workers aged minAge or older. Records with a
// missing age are excluded, the age restriction applies before the
// employment one. The denominator is the weighted employment of ALL
// employed working-age workers in the cell, including those whose activity
// code matches no branch, so shares across branches need not sum to 1.
func (c *Classifier) Participation(ctx context.Context, records []domain.DeflatedRecord) []domain.BranchParticipation {
	type cellKey struct {
		region, year int
	}
	type cell struct {
		total    float64
		byBranch map[domain.Branch]float64
	}
	cells := make(map[cellKey]*cell)

	for _, r := range records {
		if !r.Age.Valid || r.Age.Value < c.minAge {
			continue
		}
		if !r.IsEmployed() || r.Weight <= 0 {
			continue
		}
		key := cellKey{region: r.Region, year: r.Year}
		cl, ok := cells[key]
		if !ok {
			cl = &cell{byBranch: make(map[domain.Branch]float64)}
			cells[key] = cl
		}
		cl.total += r.Weight
		if !r.BranchCode.Valid {
			continue
		}
		if branch := c.scheme.Classify(r.BranchCode.Value); branch != domain.BranchNone {
			cl.byBranch[branch] += r.Weight
		}
	}

	branchNames := c.scheme.Branches()
	summaries := make([]domain.BranchParticipation, 0, len(cells)*len(branchNames))
	for key, cl := range cells {
		for _, branch := range branchNames {
			employment := cl.byBranch[branch]
			share := 0.0
			if cl.total > 0 {
				share = employment / cl.total
			}
			summaries = append(summaries, domain.BranchParticipation{
				Region:           key.region,
				Year:             key.year,
				Branch:           branch,
				BranchEmployment: employment,
				TotalEmployment:  cl.total,
				Share:            share,
			})
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Branch < b.Branch
	})

	c.logger.InfoContext(ctx, "computed branch participation",
		slog.Int("cells", len(cells)),
		slog.Int("branches", len(branchNames)))
	return summaries
}
