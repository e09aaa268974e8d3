// Package calculators implements the bedside ICU calculators: canine
// transfusion volume, CRI pump rate and the rounding handoff sheet.
package calculators

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrInvalidTransfusionInput = errors.New("invalid transfusion input")
	ErrInvalidBloodVolume      = errors.New("blood volume must be 85, 90 or 95 mL/kg")
)

// Transfusion defaults applied when the field is left at zero.
const (
	DefaultTargetPCV   = 25.0
	DefaultDonorPCV    = 45.0
	DefaultBloodVolume = 90.0
)

// BloodVolumes lists the accepted canine blood volume estimates in mL/kg.
var BloodVolumes = []float64{85, 90, 95}

// TransfusionInput holds the PCV values in percent.
type TransfusionInput struct {
	WeightKg     float64 `json:"weight_kg"`
	RecipientPCV float64 `json:"recipient_pcv"`
	TargetPCV    float64 `json:"target_pcv"`
	DonorPCV     float64 `json:"donor_pcv"`
	BloodVolume  float64 `json:"blood_volume_ml_kg"`
}

type TransfusionResult struct {
	Input   TransfusionInput `json:"input"`
	ExactML float64          `json:"exact_ml"`
	ML      int              `json:"ml"`
	Text    string           `json:"text"`
}

func (in TransfusionInput) withDefaults() TransfusionInput {
	if in.TargetPCV == 0 {
		in.TargetPCV = DefaultTargetPCV
	}
	if in.DonorPCV == 0 {
		in.DonorPCV = DefaultDonorPCV
	}
	if in.BloodVolume == 0 {
		in.BloodVolume = DefaultBloodVolume
	}
	return in
}

// Transfusion estimates whole blood volume as
// weight * bloodVolume * (target - recipient) / donor.
func Transfusion(in TransfusionInput) (TransfusionResult, error) {
	in = in.withDefaults()

	if in.WeightKg <= 0 || in.DonorPCV <= 0 || in.TargetPCV <= in.RecipientPCV {
		return TransfusionResult{}, fmt.Errorf("%w: need weight > 0, donor PCV > 0, and target > recipient", ErrInvalidTransfusionInput)
	}
	if !slices.Contains(BloodVolumes, in.BloodVolume) {
		return TransfusionResult{}, fmt.Errorf("%w: got %g", ErrInvalidBloodVolume, in.BloodVolume)
	}

	ml := in.WeightKg * in.BloodVolume * (in.TargetPCV - in.RecipientPCV) / in.DonorPCV
	res := TransfusionResult{
		Input:   in,
		ExactML: roundTo(ml, 1),
		ML:      int(math.Round(ml)),
	}
	res.Text = fmt.Sprintf("Estimated transfusion volume: %d mL (exact %.1f mL)", res.ML, ml)
	return res, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
