// Package compat evaluates Y-site compatibility for a selection of drugs
// against the pairwise rule table of a registry.
package compat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientSelection is returned when fewer than two distinct drugs are evaluated.
	ErrInsufficientSelection = errors.New("add at least two drugs to compare")
	// ErrIndexOutOfRange is returned when removing a selection entry that does not exist.
	ErrIndexOutOfRange = errors.New("selection index out of range")
	ErrInvalidPolicy   = errors.New("invalid policy mode")
	ErrInvalidFluid    = errors.New("invalid carrier fluid")
)

// Policy decides how rules with limited/conflicting data are aggregated.
type Policy string

const (
	PolicyStandard     Policy = "standard"
	PolicyConservative Policy = "conservative"
)

// ParsePolicy accepts "standard" or "conservative"; empty means standard
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyStandard):
		return PolicyStandard, nil
	case string(PolicyConservative):
		return PolicyConservative, nil
	}
	return "", fmt.Errorf("%w: %q (expected standard or conservative)", ErrInvalidPolicy, s)
}
