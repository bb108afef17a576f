package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var jsonNull = []byte("null")

// FlexibleStringSlice unmarshals from either a JSON list or a comma-separated
// string. Null and any other shape leave it nil, so aliases can take over.
type FlexibleStringSlice []string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*f = nil
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = strings.Split(str, ",")
		return nil
	}

	*f = nil
	return nil
}

// FlexibleNumber unmarshals from a JSON number or a numeric string.
// Anything else, null included, leaves it invalid, which callers treat as absent.
type FlexibleNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	*n = FlexibleNumber{}
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Value, n.Valid = f, true
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n.Value, n.Valid = f, true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n FlexibleNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the value as a pointer, nil when invalid.
func (n FlexibleNumber) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// RawPosting is the loose shape postings arrive in from clients and the
// upstream backend. Normalize turns it into a Posting.
type RawPosting struct {
	ID             string              `json:"id"`
	MongoID        string              `json:"_id"`
	Title          string              `json:"title"`
	ClientName     string              `json:"clientName"`
	Client         string              `json:"client"`
	RequiredSkills FlexibleStringSlice `json:"requiredSkills"`
	Skills         FlexibleStringSlice `json:"skills"`
	DegreeField    string              `json:"degreeField"`
	Location       string              `json:"location"`
	WorkType       string              `json:"workType"`
	BudgetTotal    FlexibleNumber      `json:"budgetTotal"`
	Budget         FlexibleNumber      `json:"budget"`
	Deadline       string              `json:"deadline"`
}

// Normalize returns the canonical Posting. An empty ID stays empty; the
// service assigns a UUID on submit.
func (r *RawPosting) Normalize() Posting {
	p := Posting{
		ID:          firstNonEmpty(r.ID, r.MongoID),
		Title:       strings.TrimSpace(r.Title),
		ClientName:  firstNonEmpty(r.ClientName, r.Client),
		DegreeField: strings.TrimSpace(r.DegreeField),
		Location:    strings.TrimSpace(r.Location),
		WorkType:    strings.TrimSpace(r.WorkType),
		Deadline:    ParseDeadline(r.Deadline),
	}

	skills := r.RequiredSkills
	if skills == nil {
		skills = r.Skills
	}
	p.RequiredSkills = CleanSkills(skills)

	switch {
	case r.BudgetTotal.Valid:
		p.BudgetTotal = r.BudgetTotal.Ptr()
	case r.Budget.Valid:
		p.BudgetTotal = r.Budget.Ptr()
	}
	return p
}

// RawProfile is the loose shape profiles arrive in.
type RawProfile struct {
	ID                  string              `json:"id"`
	Skills              FlexibleStringSlice `json:"skills"`
	DegreeField         string              `json:"degreeField"`
	Degree              string              `json:"degree"`
	LocationPreference  string              `json:"locationPreference"`
	Location            string              `json:"location"`
	PreferredWorkType   string              `json:"preferredWorkType"`
	WorkType            string              `json:"workType"`
	TargetHourlyRate    FlexibleNumber      `json:"targetHourlyRate"`
	HourlyRate          FlexibleNumber      `json:"hourlyRate"`
	CompletenessPercent FlexibleNumber      `json:"profileCompletenessPercent"`
	Completeness        FlexibleNumber      `json:"profileCompleteness"`
}

// Normalize returns the canonical Profile with completeness clamped to 0..100.
func (r *RawProfile) Normalize() Profile {
	p := Profile{
		ID:                 strings.TrimSpace(r.ID),
		Skills:             CleanSkills(r.Skills),
		DegreeField:        firstNonEmpty(r.DegreeField, r.Degree),
		LocationPreference: firstNonEmpty(r.LocationPreference, r.Location),
		PreferredWorkType:  firstNonEmpty(r.PreferredWorkType, r.WorkType),
	}

	switch {
	case r.TargetHourlyRate.Valid:
		p.TargetHourlyRate = r.TargetHourlyRate.Ptr()
	case r.HourlyRate.Valid:
		p.TargetHourlyRate = r.HourlyRate.Ptr()
	}

	completeness := r.CompletenessPercent
	if !completeness.Valid {
		completeness = r.Completeness
	}
	if completeness.Valid {
		p.CompletenessPercent = ClampPercent(int(math.Round(completeness.Value)))
	}
	return p
}

// CleanSkills trims every entry and drops the empty ones. Never returns nil.
func CleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ClampPercent bounds v to 0..100.
func ClampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

var deadlineLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDeadline parses the accepted deadline formats. Unparseable input
// yields nil so the posting sorts as having no deadline.
func ParseDeadline(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
