package compat

import (
	"fmt"
	"strings"
)

// Fluid is the carrier fluid of the infusion line.
type Fluid string

const (
	FluidNS  Fluid = "NS"
	FluidLRS Fluid = "LRS"
	FluidD5W Fluid = "D5W"
)

// Disclaimer is appended to every compatibility result.
const Disclaimer = "Always verify with hospital formulary + current compatibility reference before administration."

var fluidNotes = map[Fluid]string{
	FluidNS:  "Fluid note: 0.9% NaCl is commonly preferred for many ICU infusions.",
	FluidLRS: "Fluid note: LRS contains calcium; verify compatibility carefully.",
	FluidD5W: "Fluid note: D5W may alter stability for some medications.",
}

// ParseFluid accepts the usual spellings of the three carrier fluids.
// Empty input selects normal saline.
func ParseFluid(s string) (Fluid, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ns", "nacl", "0.9% nacl", "0.9% sodium chloride", "saline":
		return FluidNS, nil
	case "lrs", "lactated ringer's", "lactated ringers":
		return FluidLRS, nil
	case "d5w", "d5", "dextrose 5%":
		return FluidD5W, nil
	}
	return "", fmt.Errorf("%w: %q (expected NS, LRS or D5W)", ErrInvalidFluid, s)
}

// Note returns the fixed advisory sentence for fluid. It never affects
// verdicts. Unknown values fall back to the saline note.
func Note(fluid Fluid) string {
	if note, ok := fluidNotes[fluid]; ok {
		return note
	}
	return fluidNotes[FluidNS]
}
