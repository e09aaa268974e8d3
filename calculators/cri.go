package calculators

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/vetref-api/registry"
)

var ErrInvalidCRIInput = errors.New("invalid CRI input")

// RecordFinder resolves a drug name to its catalog record.
type RecordFinder interface {
	Record(name string) (registry.DrugRecord, error)
}

// CRIInput describes one constant-rate infusion. Dose is in mcg/kg/min and
// concentration is the final bag concentration in mg/mL.
type CRIInput struct {
	Drug             string  `json:"drug"`
	WeightKg         float64 `json:"weight_kg"`
	Dose             float64 `json:"dose_mcg_kg_min"`
	Concentration    float64 `json:"concentration_mg_ml"`
	VerifierInitials string  `json:"verifier_initials"`
}

type CRIResult struct {
	Drug          string              `json:"drug,omitempty"`
	PumpRateMLHr  float64             `json:"pump_rate_ml_hr"`
	DeliveryMgMin float64             `json:"delivery_mg_min"`
	TypicalRange  *registry.DoseRange `json:"typical_range,omitempty"`
	Warnings      []string            `json:"warnings"`
}

// Text renders the result the way it is read back at the pump
func (r CRIResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pump Rate: %.2f mL/hr\nDrug delivery: %.3f mg/min\n", r.PumpRateMLHr, r.DeliveryMgMin)
	for _, w := range r.Warnings {
		b.WriteString(w)
		b.WriteByte('\n')
	}
	return b.String()
}

// CRI computes the pump rate for in. When in.Drug is set it is resolved
// through drugs and the dose is checked against the record's typical range;
// drugs without a range produce no range warning.
func CRI(drugs RecordFinder, in CRIInput) (CRIResult, error) {
	if in.WeightKg <= 0 || in.Dose <= 0 || in.Concentration <= 0 {
		return CRIResult{}, fmt.Errorf("%w: enter weight, dose, concentration", ErrInvalidCRIInput)
	}

	res := CRIResult{Warnings: []string{}}

	if strings.TrimSpace(in.Drug) != "" {
		rec, err := drugs.Record(in.Drug)
		if err != nil {
			return CRIResult{}, err
		}
		res.Drug = rec.CanonicalName
		if rng := rec.CRIDoseRange; rng != nil {
			res.TypicalRange = &registry.DoseRange{Min: rng.Min, Max: rng.Max, Unit: rng.Unit}
			if !rng.Contains(in.Dose) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"Dose outside typical %s range (%g-%g %s).",
					strings.ToLower(rec.CanonicalName), rng.Min, rng.Max, rng.Unit))
			}
		}
	}

	if strings.TrimSpace(in.VerifierInitials) == "" {
		res.Warnings = append(res.Warnings, "Second verifier initials not entered.")
	}

	mgMin := in.Dose / 1000 * in.WeightKg
	res.DeliveryMgMin = roundTo(mgMin, 3)
	res.PumpRateMLHr = roundTo(mgMin/in.Concentration*60, 2)
	return res, nil
}
