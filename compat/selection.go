package compat

import (
	"fmt"
	"slices"

	"github.com/giygas/vetref-api/registry"
)

// Resolver maps a free-text name to a canonical drug name.
type Resolver interface {
	Resolve(input string) (string, error)
}

// Selection is the ordered list of drugs chosen for one check. It is owned
// by a single request or CLI invocation and is not safe for concurrent use.
type Selection struct {
	resolver Resolver
	items    []string
}

// NewSelection creates an empty selection backed by resolver
func NewSelection(resolver Resolver) *Selection {
	return &Selection{resolver: resolver}
}

// Add resolves name and appends its canonical form. A drug already in the
// selection is ignored and reported as not added. Unrecognized names leave
// the selection untouched and return registry.ErrUnrecognizedDrug.
func (s *Selection) Add(name string) (bool, error) {
	canonical, err := s.resolver.Resolve(name)
	if err != nil {
		return false, err
	}

	if s.Contains(canonical) {
		return false, nil
	}

	s.items = append(s.items, canonical)
	return true, nil
}

// Contains reports whether name is selected, ignoring case
func (s *Selection) Contains(name string) bool {
	key := registry.Normalize(name)
	return slices.ContainsFunc(s.items, func(item string) bool {
		return registry.Normalize(item) == key
	})
}

// Remove deletes the entry at index, keeping the order of the rest
func (s *Selection) Remove(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, len(s.items))
	}
	s.items = slices.Delete(s.items, index, index+1)
	return nil
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.items = s.items[:0]
}

// List returns a copy of the selected canonical names in insertion order
func (s *Selection) List() []string {
	return slices.Clone(s.items)
}

// Len returns the number of selected drugs
func (s *Selection) Len() int {
	return len(s.items)
}
