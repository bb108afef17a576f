// Package recommend ranks opportunity postings against a candidate profile.
//
// Scoring is a weighted sum over six factors: skills, degree, location,
// work type, budget and profile completeness. It never fails: missing or
// malformed optional fields contribute nothing. Score is pure and safe to
// call concurrently.
package recommend

import (
	"math"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Quality thresholds.
const (
	excellentMin = 80
	goodMin      = 60
	fairMin      = 40
)

// QualityFor maps a score to its match quality label.
func QualityFor(score int) model.MatchQuality {
	switch {
	case score >= excellentMin:
		return model.QualityExcellent
	case score >= goodMin:
		return model.QualityGood
	case score >= fairMin:
		return model.QualityFair
	default:
		return model.QualityPoor
	}
}

// Score scores every posting against profile, then filters, sorts and caps
// the result according to cfg. A nil profile scores as an empty one. The
// result is never nil.
func Score(profile *model.Profile, postings []model.Posting, cfg Config) []model.ScoredPosting {
	w := cfg.Weights
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	m := newMatcher(profile)

	out := make([]model.ScoredPosting, 0, len(postings))
	for i := range postings {
		sp := m.score(&postings[i], &w)
		if cfg.keep(&sp) {
			out = append(out, sp)
		}
	}

	sortScored(out, cfg.SortKey)
	if cfg.TopN > 0 && len(out) > cfg.TopN {
		out = out[:cfg.TopN]
	}
	return out
}

// ScorePosting scores a single posting with the default weights and no filtering.
func ScorePosting(profile *model.Profile, posting *model.Posting) model.ScoredPosting {
	w := DefaultWeights()
	return newMatcher(profile).score(posting, &w)
}

// matcher holds the profile fields pre-lowered for comparison.
type matcher struct {
	skills       []string
	degree       string
	location     string
	workType     string
	hourlyRate   float64
	completeness int
}

func newMatcher(p *model.Profile) *matcher {
	m := &matcher{}
	if p == nil {
		return m
	}
	for _, s := range p.Skills {
		if s = normalize(s); s != "" {
			m.skills = append(m.skills, s)
		}
	}
	m.degree = normalize(p.DegreeField)
	m.location = normalize(p.LocationPreference)
	m.workType = normalize(p.PreferredWorkType)
	if p.TargetHourlyRate != nil {
		m.hourlyRate = *p.TargetHourlyRate
	}
	m.completeness = model.ClampPercent(p.CompletenessPercent)
	return m
}

func (m *matcher) score(p *model.Posting, w *Weights) model.ScoredPosting {
	sp := model.ScoredPosting{
		Posting:         *p,
		MatchedSkills:   []string{},
		UnmatchedSkills: []string{},
	}

	var total float64

	for _, req := range p.RequiredSkills {
		if m.matchesSkill(normalize(req)) {
			sp.MatchedSkills = append(sp.MatchedSkills, req)
		} else {
			sp.UnmatchedSkills = append(sp.UnmatchedSkills, req)
		}
	}
	if n := len(p.RequiredSkills); n > 0 {
		total += w.Skills * float64(len(sp.MatchedSkills)) / float64(n)
	}

	pts, label := m.degreePoints(normalize(p.DegreeField), w)
	total += pts
	sp.MatchDetails.DegreeMatch = label

	pts, label = m.locationPoints(normalize(p.Location), w)
	total += pts
	sp.MatchDetails.LocationMatch = label

	pts, label = m.workTypePoints(normalize(p.WorkType), w)
	total += pts
	sp.MatchDetails.WorkTypeMatch = label

	pts, label = m.budgetPoints(p.BudgetTotal, w)
	total += pts
	sp.MatchDetails.BudgetMatch = label

	total += float64(m.completeness) / 100 * w.Completeness

	sp.Score = clampScore(int(math.Round(total)))
	sp.MatchQuality = QualityFor(sp.Score)
	return sp
}

// matchesSkill uses bidirectional substring containment. Blank skills never match.
func (m *matcher) matchesSkill(req string) bool {
	if req == "" {
		return false
	}
	for _, s := range m.skills {
		if related(req, s) {
			return true
		}
	}
	return false
}

// degreePoints is only evaluated when the posting names a degree field.
func (m *matcher) degreePoints(degree string, w *Weights) (float64, string) {
	if degree == "" || m.degree == "" {
		return 0, ""
	}
	switch {
	case degree == m.degree:
		return w.DegreeExact, model.TierPerfectMatch
	case related(degree, m.degree):
		return w.DegreeRelated, model.TierRelatedField
	default:
		return w.DegreeDifferent, model.TierDifferentField
	}
}

func (m *matcher) locationPoints(location string, w *Weights) (float64, string) {
	if location == "" || m.location == "" {
		return 0, ""
	}
	switch {
	case location == m.location:
		return w.LocationExact, model.TierPerfectMatch
	case strings.Contains(location, "remote") &&
		(strings.Contains(m.location, "remote") || strings.Contains(m.location, "flexible")):
		return w.LocationRemote, model.TierRemoteMatch
	case related(location, m.location):
		return w.LocationPartial, model.TierPartialMatch
	}
	return 0, ""
}

func (m *matcher) workTypePoints(workType string, w *Weights) (float64, string) {
	if workType == "" || m.workType == "" {
		return 0, ""
	}
	switch {
	case workType == m.workType:
		return w.WorkTypeExact, model.TierPerfectMatch
	case related(workType, m.workType):
		return w.WorkTypeRelated, model.TierRelatedType
	}
	return 0, ""
}

// budgetPoints compares the posting's implied hourly rate with the target rate.
// Both must be present and non-zero.
func (m *matcher) budgetPoints(budget *float64, w *Weights) (float64, string) {
	if budget == nil || *budget == 0 || m.hourlyRate == 0 || w.HoursPerWeek == 0 {
		return 0, ""
	}
	implied := *budget / w.HoursPerWeek
	diff := math.Abs(implied - m.hourlyRate)
	switch {
	case diff <= w.PerfectDelta:
		return w.BudgetPerfect, model.TierPerfectMatch
	case diff <= w.CloseDelta:
		return w.BudgetClose, model.TierCloseMatch
	case implied >= m.hourlyRate*w.AcceptableRatio:
		return w.BudgetAcceptable, model.TierAcceptableRange
	}
	return 0, ""
}

func related(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clampScore(v int) int {
	switch {
	case v < MinScoreBound:
		return MinScoreBound
	case v > MaxScoreBound:
		return MaxScoreBound
	}
	return v
}
