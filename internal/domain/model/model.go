// Package model contains domain models passed between layers.
package model

import "time"

// MatchQuality is the coarse label derived from a posting's score.
type MatchQuality string

// Match quality labels, highest first.
const (
	QualityExcellent MatchQuality = "Excellent"
	QualityGood      MatchQuality = "Good"
	QualityFair      MatchQuality = "Fair"
	QualityPoor      MatchQuality = "Poor"
)

// Tier labels reported in MatchDetails.
const (
	TierPerfectMatch    = "Perfect Match"
	TierRelatedField    = "Related Field"
	TierDifferentField  = "Different Field"
	TierRemoteMatch     = "Remote Match"
	TierPartialMatch    = "Partial Match"
	TierRelatedType     = "Related Type"
	TierCloseMatch      = "Close Match"
	TierAcceptableRange = "Acceptable Range"
)

// Profile is a candidate's matching-relevant attributes.
type Profile struct {
	ID                  string   `json:"id" validate:"required"`
	Skills              []string `json:"skills"`
	DegreeField         string   `json:"degreeField,omitempty"`
	LocationPreference  string   `json:"locationPreference,omitempty"`
	PreferredWorkType   string   `json:"preferredWorkType,omitempty"`
	TargetHourlyRate    *float64 `json:"targetHourlyRate,omitempty" validate:"omitempty,gte=0"`
	CompletenessPercent int      `json:"profileCompletenessPercent" validate:"gte=0,lte=100"`
}

// Posting is a single opportunity (gig, job or internship).
// BudgetTotal is the total pay for a nominal 40-hour week.
type Posting struct {
	ID             string     `json:"id" validate:"required"`
	Title          string     `json:"title" validate:"required"`
	ClientName     string     `json:"clientName,omitempty"`
	RequiredSkills []string   `json:"requiredSkills"`
	DegreeField    string     `json:"degreeField,omitempty"`
	Location       string     `json:"location,omitempty"`
	WorkType       string     `json:"workType,omitempty"`
	BudgetTotal    *float64   `json:"budgetTotal,omitempty" validate:"omitempty,gte=0"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

// Budget returns the posting budget, or 0 when absent.
func (p *Posting) Budget() float64 {
	if p.BudgetTotal == nil {
		return 0
	}
	return *p.BudgetTotal
}

// MatchDetails carries the tier label for each factor that contributed points.
type MatchDetails struct {
	DegreeMatch   string `json:"degreeMatch,omitempty"`
	LocationMatch string `json:"locationMatch,omitempty"`
	WorkTypeMatch string `json:"workTypeMatch,omitempty"`
	BudgetMatch   string `json:"budgetMatch,omitempty"`
}

// ScoredPosting is a posting annotated with its recommendation score.
// MatchedSkills and UnmatchedSkills partition RequiredSkills in order.
type ScoredPosting struct {
	Posting
	Score           int          `json:"score"`
	MatchedSkills   []string     `json:"matchedSkills"`
	UnmatchedSkills []string     `json:"unmatchedSkills"`
	MatchQuality    MatchQuality `json:"matchQuality"`
	MatchDetails    MatchDetails `json:"matchDetails"`
}

// Float returns a pointer to v. Handy for optional numeric fields.
func Float(v float64) *float64 { return &v }
