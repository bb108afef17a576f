package recommend

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

func (c *Config) keep(sp *model.ScoredPosting) bool {
	switch c.Mode {
	case ModeThreshold:
		return sp.Score > c.MinScoreThreshold
	case ModeRange:
		if sp.Score < c.MinScore || sp.Score > c.MaxScore {
			return false
		}
		if c.WorkType != "" && !strings.EqualFold(strings.TrimSpace(sp.WorkType), c.WorkType) {
			return false
		}
		if c.Location != "" && !strings.EqualFold(strings.TrimSpace(sp.Location), c.Location) {
			return false
		}
		return c.Budget.Contains(sp.BudgetTotal)
	}
	return true
}

// sortScored orders postings in place. Ties keep input order.
func sortScored(items []model.ScoredPosting, key SortKey) {
	var less func(a, b model.ScoredPosting) int
	switch key {
	case SortBudgetDesc:
		less = func(a, b model.ScoredPosting) int { return cmp.Compare(b.Budget(), a.Budget()) }
	case SortDeadlineAsc:
		less = compareDeadline
	case SortSkillMatchDesc:
		less = func(a, b model.ScoredPosting) int {
			return cmp.Compare(len(b.MatchedSkills), len(a.MatchedSkills))
		}
	default:
		less = func(a, b model.ScoredPosting) int { return cmp.Compare(b.Score, a.Score) }
	}
	slices.SortStableFunc(items, less)
}

// compareDeadline puts earlier deadlines first and missing ones last.
func compareDeadline(a, b model.ScoredPosting) int {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return 0
	case a.Deadline == nil:
		return 1
	case b.Deadline == nil:
		return -1
	}
	return a.Deadline.Compare(*b.Deadline)
}
