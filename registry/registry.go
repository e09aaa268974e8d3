package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Registry is an immutable snapshot of the drug catalog, its alias index and
// the pairwise rule table. Build it with New; every accessor returns copies.
type Registry struct {
	source  Source
	legend  []LegendEntry
	drugs   []DrugRecord
	byID    map[DrugID]int
	aliases map[string]DrugID
	rules   []PairRule
	byPair  map[PairKey]int
}

// New validates the catalog and rules and builds the lookup indexes.
// Rule drug names may be any alias; they are stored as canonical names.
func New(source Source, legend []LegendEntry, drugs []DrugRecord, rules []PairRule) (*Registry, error) {
	if len(drugs) == 0 {
		return nil, ErrEmptyCatalog
	}

	reg := &Registry{
		source:  cloneSource(source),
		legend:  slices.Clone(legend),
		drugs:   make([]DrugRecord, 0, len(drugs)),
		byID:    make(map[DrugID]int, len(drugs)),
		aliases: make(map[string]DrugID, len(drugs)*3),
		rules:   make([]PairRule, 0, len(rules)),
		byPair:  make(map[PairKey]int, len(rules)),
	}

	for i, d := range drugs {
		id := d.ID()
		if id == "" {
			return nil, fmt.Errorf("drug #%d has an empty canonical name", i)
		}
		if _, exists := reg.byID[id]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDrug, d.CanonicalName)
		}
		if d.CRIDoseRange != nil && (d.CRIDoseRange.Min < 0 || d.CRIDoseRange.Max < d.CRIDoseRange.Min) {
			return nil, fmt.Errorf("%w for %q: %v-%v", ErrInvalidRange, d.CanonicalName, d.CRIDoseRange.Min, d.CRIDoseRange.Max)
		}

		record := cloneRecord(d)
		record.CanonicalName = strings.TrimSpace(record.CanonicalName)
		reg.byID[id] = len(reg.drugs)
		reg.drugs = append(reg.drugs, record)
	}

	// Canonical names are indexed before any other alias so that a brand
	// name colliding with another drug's canonical name is reported.
	for _, d := range reg.drugs {
		if err := reg.addAlias(d.CanonicalName, d.ID()); err != nil {
			return nil, err
		}
	}
	for _, d := range reg.drugs {
		names := append([]string{d.CommonName}, d.BrandAliases...)
		for _, name := range names {
			if err := reg.addAlias(name, d.ID()); err != nil {
				return nil, err
			}
		}
	}

	for i, r := range rules {
		a, errA := reg.Resolve(r.DrugA)
		b, errB := reg.Resolve(r.DrugB)
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("%w: rule #%d (%q, %q)", ErrUnknownRuleDrug, i, r.DrugA, r.DrugB)
		}
		r.DrugA, r.DrugB = a, b

		key := r.Key()
		if key.IsSelf() {
			return nil, fmt.Errorf("%w: rule #%d (%q)", ErrSelfPair, i, a)
		}
		level, err := ParseLevel(string(r.Level))
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s): %w", i, key, err)
		}
		evidence, err := ParseEvidence(string(r.Evidence))
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s): %w", i, key, err)
		}
		r.Level, r.Evidence = level, evidence
		if prev, exists := reg.byPair[key]; exists {
			return nil, fmt.Errorf("%w: %s (rules #%d and #%d)", ErrDuplicateRule, key, prev, i)
		}

		reg.byPair[key] = len(reg.rules)
		reg.rules = append(reg.rules, r)
	}

	return reg, nil
}

func (reg *Registry) addAlias(alias string, id DrugID) error {
	key := Normalize(alias)
	if key == "" {
		return nil
	}
	if owner, exists := reg.aliases[key]; exists && owner != id {
		return fmt.Errorf("%w: %q claimed by %q and %q", ErrAmbiguousAlias, alias, owner, id)
	}
	reg.aliases[key] = id
	return nil
}

// Resolve maps a free-text name to the canonical name of a catalog drug.
// Only exact matches after normalization count: canonical names first,
// then common names and brand aliases.
func (reg *Registry) Resolve(input string) (string, error) {
	key := Normalize(input)
	if key == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnrecognizedDrug)
	}

	if idx, ok := reg.byID[DrugID(key)]; ok {
		return reg.drugs[idx].CanonicalName, nil
	}
	if id, ok := reg.aliases[key]; ok {
		return reg.drugs[reg.byID[id]].CanonicalName, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnrecognizedDrug, strings.TrimSpace(input))
}

// Record resolves name and returns the owning catalog record
func (reg *Registry) Record(name string) (DrugRecord, error) {
	canonical, err := reg.Resolve(name)
	if err != nil {
		return DrugRecord{}, err
	}
	return cloneRecord(reg.drugs[reg.byID[DrugID(Normalize(canonical))]]), nil
}

// Lookup returns the rule for the unordered pair of canonical names a and b
func (reg *Registry) Lookup(a, b string) (PairRule, bool) {
	return reg.LookupKey(NewPairKey(DrugID(Normalize(a)), DrugID(Normalize(b))))
}

// LookupKey returns the rule stored under key
func (reg *Registry) LookupKey(key PairKey) (PairRule, bool) {
	idx, ok := reg.byPair[key]
	if !ok {
		return PairRule{}, false
	}
	return reg.rules[idx], true
}

// Guidance returns bolus/monitoring advice for each name, in order.
// Names that do not resolve get the default advice.
func (reg *Registry) Guidance(names []string) []Guidance {
	out := make([]Guidance, 0, len(names))
	for _, name := range names {
		rec, err := reg.Record(name)
		if err != nil {
			rec = DrugRecord{CanonicalName: strings.TrimSpace(name)}
		}
		out = append(out, rec.Guidance())
	}
	return out
}

// Source returns the provenance of the registry data
func (reg *Registry) Source() Source {
	return cloneSource(reg.source)
}

// Legend returns the chart symbol legend
func (reg *Registry) Legend() []LegendEntry {
	return slices.Clone(reg.legend)
}

// Drugs returns the catalog in data-file order
func (reg *Registry) Drugs() []DrugRecord {
	out := make([]DrugRecord, len(reg.drugs))
	for i, d := range reg.drugs {
		out[i] = cloneRecord(d)
	}
	return out
}

// Rules returns the pair rules in data-file order
func (reg *Registry) Rules() []PairRule {
	return slices.Clone(reg.rules)
}

// Search returns the records whose canonical, common or brand name contains
// query after normalization. An empty query matches every drug.
func (reg *Registry) Search(query string) []DrugRecord {
	needle := Normalize(query)
	out := make([]DrugRecord, 0)
	for _, d := range reg.drugs {
		if d.matches(needle) {
			out = append(out, cloneRecord(d))
		}
	}
	return out
}

func (d DrugRecord) matches(needle string) bool {
	if strings.Contains(Normalize(d.CanonicalName), needle) ||
		strings.Contains(Normalize(d.CommonName), needle) {
		return true
	}
	for _, b := range d.BrandAliases {
		if strings.Contains(Normalize(b), needle) {
			return true
		}
	}
	return false
}

// DrugCount returns the number of catalog drugs
func (reg *Registry) DrugCount() int {
	return len(reg.drugs)
}

// RuleCount returns the number of pair rules
func (reg *Registry) RuleCount() int {
	return len(reg.rules)
}

func cloneRecord(d DrugRecord) DrugRecord {
	d.BrandAliases = slices.Clone(d.BrandAliases)
	if d.CRIDoseRange != nil {
		r := *d.CRIDoseRange
		d.CRIDoseRange = &r
	}
	return d
}

func cloneSource(s Source) Source {
	s.Notes = slices.Clone(s.Notes)
	return s
}
