package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownView is returned by ParseView for unrecognized input.
var ErrUnknownView = errors.New("unknown view")

// View names a preset filter shape used by callers.
type View string

// Supported views.
const (
	ViewRecommendations View = "recommendations"
	ViewDashboard       View = "dashboard"
	ViewFilter          View = "filter"
)

// ParseView maps user input to a View. Empty input means recommendations.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recommendations", "all":
		return ViewRecommendations, nil
	case "dashboard":
		return ViewDashboard, nil
	case "filter", "range":
		return ViewFilter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}
