package calculators

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidRoundingSheet = errors.New("invalid rounding sheet")

var (
	bpPattern   = regexp.MustCompile(`^\s*(\d{2,3})\s*/\s*(\d{2,3})\s*$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// RoundingSheet is one ICU round / handoff entry. Numeric vitals left at
// zero are treated as not recorded. Nothing is persisted.
type RoundingSheet struct {
	PatientName    string   `json:"patient_name"`
	SpeciesBreed   string   `json:"species_breed"`
	WeightKg       float64  `json:"weight_kg"`
	Diagnosis      string   `json:"diagnosis"`
	TempC          float64  `json:"temp_c"`
	HeartRate      int      `json:"heart_rate"`
	RespRate       int      `json:"resp_rate"`
	BloodPressure  string   `json:"blood_pressure"`
	PainScore      *int     `json:"pain_score,omitempty"`
	UrineOutput    *float64 `json:"urine_output_ml_kg_hr,omitempty"`
	FluidPlan      string   `json:"fluid_plan"`
	NextRecheck    string   `json:"next_recheck"`
	TechnicianNote string   `json:"technician_notes"`
}

// FieldError reports one invalid sheet field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is returned by Validate; it matches ErrInvalidRoundingSheet.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRoundingSheet, strings.Join(parts, "; "))
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalidRoundingSheet
}

// Validate checks every field and returns all problems at once, or nil
func (s RoundingSheet) Validate() error {
	var errs FieldErrors
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	if strings.TrimSpace(s.PatientName) == "" {
		add("patient_name", "required")
	}
	if s.WeightKg < 0 {
		add("weight_kg", "must not be negative")
	}
	if s.TempC < 0 {
		add("temp_c", "must not be negative")
	}
	if s.HeartRate < 0 {
		add("heart_rate", "must not be negative")
	}
	if s.RespRate < 0 {
		add("resp_rate", "must not be negative")
	}
	if s.BloodPressure != "" {
		if _, _, ok := parseBP(s.BloodPressure); !ok {
			add("blood_pressure", `expected "systolic/diastolic", e.g. 120/75`)
		}
	}
	if s.PainScore != nil && (*s.PainScore < 0 || *s.PainScore > 10) {
		add("pain_score", "must be between 0 and 10")
	}
	if s.UrineOutput != nil && *s.UrineOutput < 0 {
		add("urine_output_ml_kg_hr", "must not be negative")
	}
	if s.NextRecheck != "" && !timePattern.MatchString(strings.TrimSpace(s.NextRecheck)) {
		add("next_recheck", "expected HH:MM")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// parseBP accepts "sys/dia" with systolic above diastolic
func parseBP(s string) (int, int, bool) {
	m := bpPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	sys, _ := strconv.Atoi(m[1])
	dia, _ := strconv.Atoi(m[2])
	return sys, dia, sys > dia
}

// Summary renders the sheet as a plain-text handoff block. Fields that were
// not recorded are shown as "-".
func (s RoundingSheet) Summary() string {
	var b strings.Builder
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-18s %s\n", label+":", value)
	}
	num := func(v float64, unit string) string {
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64) + " " + unit
	}
	count := func(v int, unit string) string {
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v) + " " + unit
	}

	b.WriteString("ICU ROUND / HANDOFF\n")
	line("Patient", s.PatientName)
	line("Species/Breed", s.SpeciesBreed)
	line("Weight", num(s.WeightKg, "kg"))
	line("Diagnosis", s.Diagnosis)
	line("Temp", num(s.TempC, "°C"))
	line("HR", count(s.HeartRate, "bpm"))
	line("RR", count(s.RespRate, "/min"))
	if s.BloodPressure != "" {
		line("BP", strings.ReplaceAll(s.BloodPressure, " ", "")+" mmHg")
	} else {
		line("BP", "")
	}
	if s.PainScore != nil {
		line("Pain", fmt.Sprintf("%d/10", *s.PainScore))
	} else {
		line("Pain", "")
	}
	if s.UrineOutput != nil {
		line("Urine output", strconv.FormatFloat(*s.UrineOutput, 'f', -1, 64)+" mL/kg/hr")
	} else {
		line("Urine output", "")
	}
	line("Fluid plan", s.FluidPlan)
	line("Next recheck", s.NextRecheck)
	line("Notes", s.TechnicianNote)
	return b.String()
}
