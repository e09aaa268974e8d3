// Package validation checks user input before it reaches the registry and
// reports data quality gaps in a loaded registry.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/giygas/vetref-api/interfaces"
	"github.com/giygas/vetref-api/registry"
)

// Limits on user-supplied drug names and selections
const (
	MaxNameLength = 80
	MaxSelection  = 50
)

var (
	// letters in any script, digits, spaces and the punctuation found in drug names
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+'/%(),]+$`)

	// substring checks are cheaper than a regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(",
		"`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput checks one free-text drug name
func (v *DataValidatorImpl) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return fmt.Errorf("input too long: maximum %d characters", MaxNameLength)
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !nameRegex.MatchString(trimmed) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' / %% ( ) , are allowed")
	}

	if hasExcessiveRepetition(trimmed) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateSelection checks the drug list of a compatibility request. Blank
// names are left to the resolver, which reports them as unrecognized.
func (v *DataValidatorImpl) ValidateSelection(names []string) error {
	if len(names) > MaxSelection {
		return fmt.Errorf("too many drugs: maximum %d per check", MaxSelection)
	}

	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if err := v.ValidateInput(name); err != nil {
			return fmt.Errorf("drug %d: %w", i+1, err)
		}
	}
	return nil
}

// ReportDataQuality lists catalog entries without guidance or rules and
// counts rules per level. The caller logs the result.
func (v *DataValidatorImpl) ReportDataQuality(reg *registry.Registry) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DrugsWithoutGuidance: []string{},
		DrugsWithoutRules:    []string{},
		RulesByLevel:         make(map[registry.Level]int),
	}
	if reg == nil {
		return report
	}

	inRule := make(map[registry.DrugID]bool)
	for _, rule := range reg.Rules() {
		report.RulesByLevel[rule.Level]++
		if strings.TrimSpace(rule.Reference) == "" {
			report.RulesWithoutReference++
		}
		a, b := rule.Key().Drugs()
		inRule[a] = true
		inRule[b] = true
	}

	for _, drug := range reg.Drugs() {
		if strings.TrimSpace(drug.BolusGuidance) == "" || strings.TrimSpace(drug.MonitoringGuidance) == "" {
			report.DrugsWithoutGuidance = append(report.DrugsWithoutGuidance, drug.CanonicalName)
		}
		if !inRule[drug.ID()] {
			report.DrugsWithoutRules = append(report.DrugsWithoutRules, drug.CanonicalName)
		}
		if drug.CRIDoseRange != nil {
			report.DrugsWithCRIRange++
		}
	}

	slices.Sort(report.DrugsWithoutGuidance)
	slices.Sort(report.DrugsWithoutRules)
	return report
}

// hasExcessiveRepetition reports the same rune repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}
