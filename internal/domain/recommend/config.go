package recommend

import (
	"strconv"
	"strings"
)

// Mode selects how scored postings are filtered.
type Mode int

const (
	// ModeAll keeps every scored posting.
	ModeAll Mode = iota
	// ModeThreshold keeps postings scoring strictly above MinScoreThreshold.
	ModeThreshold
	// ModeRange keeps postings within [MinScore, MaxScore] that also pass the
	// work type, location and budget filters.
	ModeRange
)

func (m Mode) String() string {
	switch m {
	case ModeThreshold:
		return "threshold"
	case ModeRange:
		return "range"
	default:
		return "all"
	}
}

// SortKey names an output ordering.
type SortKey string

// Supported orderings. All of them are stable.
const (
	SortRelevance      SortKey = "relevance"
	SortBudgetDesc     SortKey = "budgetDesc"
	SortDeadlineAsc    SortKey = "deadlineAsc"
	SortSkillMatchDesc SortKey = "skillMatchDesc"
)

// ParseSortKey maps user input to a SortKey. Empty input means relevance.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "relevance", "score":
		return SortRelevance, true
	case "budgetdesc", "budget":
		return SortBudgetDesc, true
	case "deadlineasc", "deadline":
		return SortDeadlineAsc, true
	case "skillmatchdesc", "skills", "skillmatch":
		return SortSkillMatchDesc, true
	}
	return "", false
}

// BudgetBucket is a coarse budget range filter.
type BudgetBucket string

// Budget buckets. Under500 is b < 500, From500To1000 is 500 <= b <= 1000
// and Over1000 is b > 1000.
const (
	BudgetAny           BudgetBucket = ""
	BudgetUnder500      BudgetBucket = "under-500"
	BudgetFrom500To1000 BudgetBucket = "500-1000"
	BudgetOver1000      BudgetBucket = "over-1000"
)

// ParseBudgetBucket maps user input to a BudgetBucket.
func ParseBudgetBucket(s string) (BudgetBucket, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return BudgetAny, true
	case "under-500", "under500", "<500", "low":
		return BudgetUnder500, true
	case "500-1000", "medium", "mid":
		return BudgetFrom500To1000, true
	case "over-1000", "over1000", ">1000", "high":
		return BudgetOver1000, true
	}
	return "", false
}

// Contains reports whether budget falls in the bucket. A posting without a
// budget only matches BudgetAny.
func (b BudgetBucket) Contains(budget *float64) bool {
	if b == BudgetAny {
		return true
	}
	if budget == nil {
		return false
	}
	v := *budget
	switch b {
	case BudgetUnder500:
		return v < 500
	case BudgetFrom500To1000:
		return v >= 500 && v <= 1000
	case BudgetOver1000:
		return v > 1000
	}
	return false
}

// Weights holds the points awarded per factor tier along with the budget
// conversion constants.
type Weights struct {
	Skills float64

	DegreeExact     float64
	DegreeRelated   float64
	DegreeDifferent float64

	LocationExact   float64
	LocationRemote  float64
	LocationPartial float64

	WorkTypeExact   float64
	WorkTypeRelated float64

	BudgetPerfect    float64
	BudgetClose      float64
	BudgetAcceptable float64

	Completeness float64

	// HoursPerWeek converts a posting's total budget to an hourly rate.
	HoursPerWeek float64
	// PerfectDelta and CloseDelta are hourly-rate distances for the top two
	// budget tiers; AcceptableRatio is the share of the target rate that
	// still earns the lowest tier.
	PerfectDelta    float64
	CloseDelta      float64
	AcceptableRatio float64
}

// DefaultWeights returns the standard weighting. Top tiers sum to 100.
func DefaultWeights() Weights {
	return Weights{
		Skills:           40,
		DegreeExact:      25,
		DegreeRelated:    20,
		DegreeDifferent:  10,
		LocationExact:    15,
		LocationRemote:   15,
		LocationPartial:  10,
		WorkTypeExact:    10,
		WorkTypeRelated:  7,
		BudgetPerfect:    10,
		BudgetClose:      7,
		BudgetAcceptable: 5,
		Completeness:     5,
		HoursPerWeek:     40,
		PerfectDelta:     5,
		CloseDelta:       15,
		AcceptableRatio:  0.8,
	}
}

// Default filter values.
const (
	DefaultRecommendationThreshold = 20
	DefaultDashboardThreshold      = 30
	DefaultDashboardTopN           = 6
	MinScoreBound                  = 0
	MaxScoreBound                  = 100
)

// Config controls filtering, ordering and weighting for Score.
// The zero value scores everything with default weights and sorts by relevance.
type Config struct {
	Mode              Mode
	MinScoreThreshold int
	MinScore          int
	MaxScore          int
	WorkType          string
	Location          string
	Budget            BudgetBucket
	TopN              int
	SortKey           SortKey
	Weights           Weights
}

// Option applies a configuration option to a Config.
type Option func(*Config)

// WithThreshold switches to strict threshold filtering.
func WithThreshold(threshold int) Option {
	return func(c *Config) {
		c.Mode = ModeThreshold
		c.MinScoreThreshold = threshold
	}
}

// WithRange switches to inclusive range filtering.
func WithRange(minScore, maxScore int) Option {
	return func(c *Config) {
		c.Mode = ModeRange
		c.MinScore, c.MaxScore = minScore, maxScore
	}
}

// WithWorkType sets the exact work type filter used in range mode.
func WithWorkType(workType string) Option {
	return func(c *Config) { c.WorkType = strings.TrimSpace(workType) }
}

// WithLocation sets the exact location filter used in range mode.
func WithLocation(location string) Option {
	return func(c *Config) { c.Location = strings.TrimSpace(location) }
}

// WithBudget sets the budget bucket filter used in range mode.
func WithBudget(bucket BudgetBucket) Option {
	return func(c *Config) { c.Budget = bucket }
}

// WithTopN caps the number of results. Zero or negative means no cap.
func WithTopN(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithSort sets the output ordering.
func WithSort(key SortKey) Option {
	return func(c *Config) {
		if key != "" {
			c.SortKey = key
		}
	}
}

// WithWeights overrides the factor weights.
func WithWeights(w Weights) Option {
	return func(c *Config) { c.Weights = w }
}

// NewConfig builds a Config from options on top of the zero value.
func NewConfig(opts ...Option) Config {
	c := Config{SortKey: SortRelevance, Weights: DefaultWeights()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// RecommendationsConfig is the full recommendations view: score > 20.
func RecommendationsConfig(opts ...Option) Config {
	return NewConfig(append([]Option{WithThreshold(DefaultRecommendationThreshold)}, opts...)...)
}

// DashboardConfig is the dashboard widget: top 6 with score > 30.
func DashboardConfig(opts ...Option) Config {
	return NewConfig(append([]Option{
		WithThreshold(DefaultDashboardThreshold),
		WithTopN(DefaultDashboardTopN),
	}, opts...)...)
}

// FilterConfig is the interactive filter panel with inclusive bounds.
func FilterConfig(minScore, maxScore int, opts ...Option) Config {
	return NewConfig(append([]Option{WithRange(minScore, maxScore)}, opts...)...)
}

// ParseScoreBounds reads filter-panel bounds. Non-numeric input falls back
// to 0 and 100, values are clamped to that range, and reversed bounds are swapped.
func ParseScoreBounds(minRaw, maxRaw string) (int, int) {
	lo := parseBound(minRaw, MinScoreBound)
	hi := parseBound(maxRaw, MaxScoreBound)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func parseBound(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return clampScore(v)
}
