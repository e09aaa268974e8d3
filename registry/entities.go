// Package registry holds the veterinary drug catalog and the pairwise Y-site
// compatibility rule table. A Registry is built once from a versioned data
// file and is read-only afterwards; reloads build a new Registry.
package registry

import (
	"fmt"
	"strings"
)

// DrugID is the identity key of a drug: its normalized canonical name.
type DrugID string

// Level is the severity level stored on a pair rule.
type Level string

const (
	LevelCompatible   Level = "compatible"
	LevelCaution      Level = "caution"
	LevelLimited      Level = "limited"
	LevelIncompatible Level = "incompatible"
)

// ParseLevel converts a data-file value into a Level
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelCompatible:
		return LevelCompatible, nil
	case LevelCaution:
		return LevelCaution, nil
	case LevelLimited:
		return LevelLimited, nil
	case LevelIncompatible:
		return LevelIncompatible, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Evidence is the qualitative confidence tier attached to a rule. It is
// independent of the rule's Level.
type Evidence string

const (
	EvidenceStrong   Evidence = "strong"
	EvidenceModerate Evidence = "moderate"
	EvidenceLimited  Evidence = "limited"
)

// ParseEvidence converts a data-file value into an Evidence tier
func ParseEvidence(s string) (Evidence, error) {
	switch Evidence(strings.ToLower(strings.TrimSpace(s))) {
	case EvidenceStrong:
		return EvidenceStrong, nil
	case EvidenceModerate:
		return EvidenceModerate, nil
	case EvidenceLimited:
		return EvidenceLimited, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEvidence, s)
}

// DoseRange is a typical continuous-rate dose window for a drug.
type DoseRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Contains reports whether dose lies inside the inclusive range
func (r DoseRange) Contains(dose float64) bool {
	return dose >= r.Min && dose <= r.Max
}

// DrugRecord is one catalog entry.
type DrugRecord struct {
	CanonicalName      string     `json:"canonicalName"`
	CommonName         string     `json:"commonName"`
	BrandAliases       []string   `json:"brandAliases"`
	BolusGuidance      string     `json:"bolusGuidance"`
	MonitoringGuidance string     `json:"monitoringGuidance"`
	CRIDoseRange       *DoseRange `json:"criDoseRange,omitempty"`
}

// ID returns the identity key of the record
func (d DrugRecord) ID() DrugID {
	return DrugID(Normalize(d.CanonicalName))
}

// Fallback guidance for drugs the data file has no guidance for.
const (
	DefaultBolusGuidance      = "No guidance loaded yet for this drug."
	DefaultMonitoringGuidance = "Use hospital protocol and monitor patient closely."
)

// Guidance is the bolus/monitoring advice shown for a selected drug.
type Guidance struct {
	Drug       string `json:"drug"`
	Bolus      string `json:"bolus"`
	Monitoring string `json:"monitoring"`
}

// Guidance returns the record's advice with defaults filled in
func (d DrugRecord) Guidance() Guidance {
	g := Guidance{
		Drug:       d.CanonicalName,
		Bolus:      d.BolusGuidance,
		Monitoring: d.MonitoringGuidance,
	}
	if strings.TrimSpace(g.Bolus) == "" {
		g.Bolus = DefaultBolusGuidance
	}
	if strings.TrimSpace(g.Monitoring) == "" {
		g.Monitoring = DefaultMonitoringGuidance
	}
	return g
}

// PairRule is the compatibility verdict for one unordered drug pair.
type PairRule struct {
	DrugA          string   `json:"drugA"`
	DrugB          string   `json:"drugB"`
	Level          Level    `json:"level"`
	Evidence       Evidence `json:"evidence"`
	Reason         string   `json:"reason"`
	Recommendation string   `json:"recommendation"`
	ChartStatus    string   `json:"chartStatus,omitempty"`
	Reference      string   `json:"reference,omitempty"`
}

// Key returns the unordered lookup key of the rule
func (r PairRule) Key() PairKey {
	return NewPairKey(DrugID(Normalize(r.DrugA)), DrugID(Normalize(r.DrugB)))
}

// Source describes where the registry data comes from.
type Source struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Date    string   `json:"date,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}

// LegendEntry maps a chart symbol to the level used by the rule table.
type LegendEntry struct {
	Status      string `json:"status"`
	ChartSymbol string `json:"chartSymbol"`
	Level       Level  `json:"mappedLevel"`
	Color       string `json:"uiColor,omitempty"`
	Guidance    string `json:"guidance"`
}
