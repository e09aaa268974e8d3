package compat

import (
	"fmt"
	"strings"

	"github.com/giygas/vetref-api/registry"
)

// Report bundles everything shown for one compatibility check.
type Report struct {
	Overall    Overall             `json:"overall"`
	Pairs      []Verdict           `json:"pairs"`
	FluidNote  string              `json:"fluidNote"`
	Disclaimer string              `json:"disclaimer"`
	Fluid      Fluid               `json:"fluid"`
	Policy     Policy              `json:"policy"`
	Counts     Counts              `json:"counts"`
	Selection  []string            `json:"selection"`
	Guidance   []registry.Guidance `json:"guidance"`
	Source     registry.Source     `json:"source"`
}

// Check runs the full flow on reg: resolve each name into a fresh selection,
// evaluate it and attach the fluid note and per-drug guidance. The first
// unrecognized name aborts the check.
func Check(reg *registry.Registry, names []string, policy Policy, fluid Fluid) (Report, error) {
	sel := NewSelection(reg)
	for _, name := range names {
		if _, err := sel.Add(name); err != nil {
			return Report{}, err
		}
	}

	result, err := NewEvaluator(reg).Evaluate(sel.List(), policy)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Overall:    result.Overall,
		Pairs:      result.Verdicts,
		FluidNote:  Note(fluid),
		Disclaimer: Disclaimer,
		Fluid:      fluid,
		Policy:     result.Policy,
		Counts:     result.Counts,
		Selection:  sel.List(),
		Guidance:   reg.Guidance(sel.List()),
		Source:     reg.Source(),
	}, nil
}

// Text renders the report as plain lines: one per pair, then the summary
// and the fluid note.
func (r Report) Text() string {
	var b strings.Builder
	for _, v := range r.Pairs {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Overall: %s (%d incompatible, %d caution, %d compatible; policy %s)\n",
		r.Overall, r.Counts.Incompatible, r.Counts.Caution, r.Counts.Compatible, r.Policy)
	b.WriteString(r.FluidNote)
	b.WriteByte('\n')
	b.WriteString(r.Disclaimer)
	b.WriteByte('\n')
	return b.String()
}
