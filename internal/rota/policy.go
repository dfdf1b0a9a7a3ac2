package rota

import (
	"fmt"
	"strings"
)

// ClashMode selects how the clash detector compares time windows.
type ClashMode string

const (
	// ClashBoundary tests only the candidate's start and end against each
	// committed talk's [start, end+gap] window.
	ClashBoundary ClashMode = "boundary"
	// ClashOverlap additionally rejects candidates that fully contain a
	// committed talk's widened window.
	ClashOverlap ClashMode = "overlap"
)

// ParseClashMode maps a config string to a ClashMode.
func ParseClashMode(s string) (ClashMode, error) {
	switch ClashMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClashBoundary:
		return ClashBoundary, nil
	case ClashOverlap:
		return ClashOverlap, nil
	default:
		return "", fmt.Errorf("unknown clash mode %q", s)
	}
}

// Policy bundles the settings and strategy tags the validators and the
// selector run with. It holds no mutable state; every decision is a function
// of the Policy and the Board passed in.
type Policy struct {
	Settings  Settings
	ClashMode ClashMode
}

// NewPolicy returns a Policy using the boundary clash test.
func NewPolicy(s Settings) Policy {
	return Policy{Settings: s, ClashMode: ClashBoundary}
}
