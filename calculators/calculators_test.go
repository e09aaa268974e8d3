package calculators

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/giygas/vetref-api/registry"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTransfusion(t *testing.T) {
	tests := []struct {
		name     string
		input    TransfusionInput
		wantML   int
		wantText string
	}{
		{
			name:     "reference case",
			input:    TransfusionInput{WeightKg: 20, RecipientPCV: 15, TargetPCV: 25, DonorPCV: 45, BloodVolume: 90},
			wantML:   400,
			wantText: "Estimated transfusion volume: 400 mL (exact 400.0 mL)",
		},
		{
			name:     "defaults for target donor and blood volume",
			input:    TransfusionInput{WeightKg: 20, RecipientPCV: 15},
			wantML:   400,
			wantText: "Estimated transfusion volume: 400 mL (exact 400.0 mL)",
		},
		{
			name:     "rounded result",
			input:    TransfusionInput{WeightKg: 7.3, RecipientPCV: 12, TargetPCV: 20, DonorPCV: 40, BloodVolume: 85},
			wantML:   124,
			wantText: "Estimated transfusion volume: 124 mL (exact 124.1 mL)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Transfusion(tt.input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if res.ML != tt.wantML {
				t.Errorf("Expected %d mL, got %d", tt.wantML, res.ML)
			}
			if res.Text != tt.wantText {
				t.Errorf("Expected %q, got %q", tt.wantText, res.Text)
			}
		})
	}
}

func TestTransfusionInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   TransfusionInput
		wantErr error
	}{
		{"zero weight", TransfusionInput{RecipientPCV: 15}, ErrInvalidTransfusionInput},
		{"negative donor", TransfusionInput{WeightKg: 10, RecipientPCV: 15, DonorPCV: -1}, ErrInvalidTransfusionInput},
		{"target equals recipient", TransfusionInput{WeightKg: 10, RecipientPCV: 25, TargetPCV: 25}, ErrInvalidTransfusionInput},
		{"target below recipient", TransfusionInput{WeightKg: 10, RecipientPCV: 30}, ErrInvalidTransfusionInput},
		{"unsupported blood volume", TransfusionInput{WeightKg: 10, RecipientPCV: 15, BloodVolume: 80}, ErrInvalidBloodVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transfusion(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	_, err := Transfusion(TransfusionInput{})
	if err == nil || !strings.Contains(err.Error(), "need weight > 0, donor PCV > 0, and target > recipient") {
		t.Errorf("Unexpected message: %v", err)
	}
}

func defaultRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("registry.Default() error = %v", err)
	}
	return reg
}

func TestCRI(t *testing.T) {
	reg := defaultRegistry(t)

	res, err := CRI(reg, CRIInput{Drug: "Intropin", WeightKg: 20, Dose: 5, Concentration: 0.5, VerifierInitials: "JD"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Drug != "Dopamine" {
		t.Errorf("Expected Dopamine, got %q", res.Drug)
	}
	if !almostEqual(res.DeliveryMgMin, 0.1) {
		t.Errorf("Expected 0.1 mg/min, got %v", res.DeliveryMgMin)
	}
	if !almostEqual(res.PumpRateMLHr, 12) {
		t.Errorf("Expected 12 mL/hr, got %v", res.PumpRateMLHr)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", res.Warnings)
	}
	if res.TypicalRange == nil || res.TypicalRange.Min != 2 || res.TypicalRange.Max != 20 {
		t.Errorf("Unexpected range %+v", res.TypicalRange)
	}
	if !strings.Contains(res.Text(), "Pump Rate: 12.00 mL/hr") {
		t.Errorf("Unexpected text %q", res.Text())
	}
}

func TestCRIWarnings(t *testing.T) {
	reg := defaultRegistry(t)

	tests := []struct {
		name  string
		input CRIInput
		want  []string
	}{
		{
			name:  "dose above range",
			input: CRIInput{Drug: "lidocaine", WeightKg: 10, Dose: 100, Concentration: 2, VerifierInitials: "AB"},
			want:  []string{"Dose outside typical lidocaine range (20-80 mcg/kg/min)."},
		},
		{
			name:  "dose below range without verifier",
			input: CRIInput{Drug: "Regular Insulin", WeightKg: 10, Dose: 0.01, Concentration: 0.1},
			want: []string{
				"Dose outside typical regular insulin range (0.02-0.2 mcg/kg/min).",
				"Second verifier initials not entered.",
			},
		},
		{
			name:  "range boundaries are inclusive",
			input: CRIInput{Drug: "Fentanyl", WeightKg: 10, Dose: 10, Concentration: 0.05, VerifierInitials: "AB"},
			want:  nil,
		},
		{
			name:  "drug without range",
			input: CRIInput{Drug: "Ketamine", WeightKg: 10, Dose: 500, Concentration: 2, VerifierInitials: " "},
			want:  []string{"Second verifier initials not entered."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CRI(reg, tt.input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if strings.Join(res.Warnings, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Expected warnings %v, got %v", tt.want, res.Warnings)
			}
		})
	}
}

func TestCRIInvalidInput(t *testing.T) {
	reg := defaultRegistry(t)

	for _, in := range []CRIInput{
		{Drug: "Dopamine", Dose: 5, Concentration: 1},
		{Drug: "Dopamine", WeightKg: 10, Concentration: 1},
		{Drug: "Dopamine", WeightKg: 10, Dose: 5},
		{Drug: "Dopamine", WeightKg: -1, Dose: 5, Concentration: 1},
	} {
		if _, err := CRI(reg, in); !errors.Is(err, ErrInvalidCRIInput) {
			t.Errorf("CRI(%+v): expected ErrInvalidCRIInput, got %v", in, err)
		}
	}

	_, err := CRI(reg, CRIInput{Drug: "Aspirin", WeightKg: 10, Dose: 5, Concentration: 1})
	if !errors.Is(err, registry.ErrUnrecognizedDrug) {
		t.Errorf("Expected ErrUnrecognizedDrug, got %v", err)
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestRoundingSheetValidate(t *testing.T) {
	valid := RoundingSheet{
		PatientName:   "Bella",
		SpeciesBreed:  "Canine / Labrador",
		WeightKg:      28.4,
		TempC:         38.6,
		HeartRate:     110,
		RespRate:      24,
		BloodPressure: "120/75",
		PainScore:     intPtr(0),
		UrineOutput:   floatPtr(1.5),
		NextRecheck:   "14:30",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid sheet, got %v", err)
	}

	bad := RoundingSheet{
		HeartRate:     -5,
		BloodPressure: "75/120",
		PainScore:     intPtr(11),
		UrineOutput:   floatPtr(-1),
		NextRecheck:   "25:00",
	}
	err := bad.Validate()
	if !errors.Is(err, ErrInvalidRoundingSheet) {
		t.Fatalf("Expected ErrInvalidRoundingSheet, got %v", err)
	}

	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("Expected FieldErrors, got %T", err)
	}
	got := make(map[string]bool)
	for _, f := range fields {
		got[f.Field] = true
	}
	for _, want := range []string{"patient_name", "heart_rate", "blood_pressure", "pain_score", "urine_output_ml_kg_hr", "next_recheck"} {
		if !got[want] {
			t.Errorf("Expected error for %s, got %v", want, fields)
		}
	}
}

func TestRoundingSheetSummary(t *testing.T) {
	sheet := RoundingSheet{
		PatientName:   "Bella",
		WeightKg:      28.4,
		BloodPressure: "120 / 75",
		PainScore:     intPtr(3),
		NextRecheck:   "14:30",
	}

	summary := sheet.Summary()
	for _, want := range []string{"Bella", "28.4 kg", "120/75 mmHg", "3/10", "14:30"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}
	if !strings.Contains(summary, "Diagnosis:         -") {
		t.Errorf("Expected placeholder for empty diagnosis:\n%s", summary)
	}
}
