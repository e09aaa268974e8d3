package compat

import (
	"fmt"
	"strings"

	"github.com/giygas/vetref-api/registry"
)

// Bucket is the aggregation class a verdict is counted in.
type Bucket string

const (
	BucketCompatible   Bucket = "compatible"
	BucketCaution      Bucket = "caution"
	BucketIncompatible Bucket = "incompatible"
)

// Overall is the aggregate outcome of a check.
type Overall string

const (
	OverallHighRisk    Overall = "HIGH RISK"
	OverallUseCaution  Overall = "USE CAUTION"
	OverallNoConflicts Overall = "NO CONFLICTS FOUND"
)

// Default verdict text for pairs without a rule.
const (
	NoRuleReason         = "No known conflict in the reference rules."
	NoRuleRecommendation = "Validate concentration and carrier fluid before co-infusion."
)

// RuleLookup finds the rule for an unordered pair of canonical names.
type RuleLookup interface {
	Lookup(a, b string) (registry.PairRule, bool)
}

// RuleBook resolves names and finds pair rules. *registry.Registry
// satisfies it.
type RuleBook interface {
	Resolver
	RuleLookup
}

// Verdict is the evaluation of one pair of selected drugs. DrugA and DrugB
// follow selection order, not the rule's storage order.
type Verdict struct {
	DrugA          string            `json:"drugA"`
	DrugB          string            `json:"drugB"`
	Level          registry.Level    `json:"level"`
	Evidence       registry.Evidence `json:"evidence,omitempty"`
	Reason         string            `json:"reason"`
	Recommendation string            `json:"recommendation"`
	Reference      string            `json:"reference,omitempty"`
	ChartStatus    string            `json:"chartStatus,omitempty"`
	RuleFound      bool              `json:"ruleFound"`
	Bucket         Bucket            `json:"bucket"`
	Escalated      bool              `json:"policyEscalated"`
	Label          string            `json:"label"`
}

// String renders the verdict as one line of text
func (v Verdict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s + %s", v.Label, v.DrugA, v.DrugB)
	if v.Evidence != "" {
		fmt.Fprintf(&b, " [evidence: %s]", v.Evidence)
	}
	fmt.Fprintf(&b, " - %s %s", v.Reason, v.Recommendation)
	return b.String()
}

// Counts tallies verdicts per bucket.
type Counts struct {
	Incompatible int `json:"incompatible"`
	Caution      int `json:"caution"`
	Compatible   int `json:"compatible"`
}

// Overall derives the aggregate outcome; incompatible outranks caution
func (c Counts) Overall() Overall {
	switch {
	case c.Incompatible > 0:
		return OverallHighRisk
	case c.Caution > 0:
		return OverallUseCaution
	default:
		return OverallNoConflicts
	}
}

// Result is the outcome of evaluating a whole selection.
type Result struct {
	Policy   Policy    `json:"policy"`
	Verdicts []Verdict `json:"pairs"`
	Counts   Counts    `json:"counts"`
	Overall  Overall   `json:"overall"`
}

// Evaluator computes pairwise verdicts against a rule table.
type Evaluator struct {
	rules RuleBook
}

// NewEvaluator creates an evaluator over rules
func NewEvaluator(rules RuleBook) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate checks every pair (i, j), i < j, of the selection in selection
// order. Names are resolved to canonical form first, so aliases of one drug
// collapse into a single entry. An unrecognized name fails the whole call
// with registry.ErrUnrecognizedDrug. The rule table is only read; policy
// affects buckets and labels, never the rule's level.
func (e *Evaluator) Evaluate(selection []string, policy Policy) (Result, error) {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return Result{}, err
	}
	if policy == "" {
		policy = PolicyStandard
	}

	drugs, err := e.resolve(selection)
	if err != nil {
		return Result{}, err
	}
	if len(drugs) < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInsufficientSelection, len(drugs))
	}

	result := Result{
		Policy:   policy,
		Verdicts: make([]Verdict, 0, len(drugs)*(len(drugs)-1)/2),
	}

	for i := 0; i < len(drugs); i++ {
		for j := i + 1; j < len(drugs); j++ {
			v := e.verdict(drugs[i], drugs[j], policy)
			switch v.Bucket {
			case BucketIncompatible:
				result.Counts.Incompatible++
			case BucketCaution:
				result.Counts.Caution++
			default:
				result.Counts.Compatible++
			}
			result.Verdicts = append(result.Verdicts, v)
		}
	}

	result.Overall = result.Counts.Overall()
	return result, nil
}

func (e *Evaluator) verdict(a, b string, policy Policy) Verdict {
	rule, found := e.rules.Lookup(a, b)
	if !found {
		return Verdict{
			DrugA:          a,
			DrugB:          b,
			Level:          registry.LevelCompatible,
			Reason:         NoRuleReason,
			Recommendation: NoRuleRecommendation,
			Bucket:         BucketCompatible,
			Label:          "No known conflict",
		}
	}

	v := Verdict{
		DrugA:          a,
		DrugB:          b,
		Level:          rule.Level,
		Evidence:       rule.Evidence,
		Reason:         rule.Reason,
		Recommendation: rule.Recommendation,
		Reference:      rule.Reference,
		ChartStatus:    rule.ChartStatus,
		RuleFound:      true,
	}

	switch rule.Level {
	case registry.LevelIncompatible:
		v.Bucket, v.Label = BucketIncompatible, "Incompatible"
	case registry.LevelCaution:
		v.Bucket, v.Label = BucketCaution, "Caution"
	case registry.LevelLimited:
		if policy == PolicyConservative {
			v.Bucket, v.Label, v.Escalated = BucketIncompatible, "Incompatible (policy-escalated, limited data)", true
		} else {
			v.Bucket, v.Label = BucketCaution, "Conflicting/limited data"
		}
	case registry.LevelCompatible:
		v.Bucket, v.Label = BucketCompatible, "Compatible"
	default:
		v.Bucket, v.Label = BucketCaution, fmt.Sprintf("Unrecognized rule level %q", rule.Level)
	}

	return v
}

// resolve maps names to canonical form and keeps the first occurrence of
// each drug. Blank names are skipped.
func (e *Evaluator) resolve(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		canonical, err := e.rules.Resolve(name)
		if err != nil {
			return nil, err
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out, nil
}
