package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixtureYAML = `
source:
  name: Fixture chart
  version: "0.1"
drugs:
  - name: Alpha
    commonName: Alphamine
    brands: [Alfa-X]
    bolus: Slow IV.
    monitor: HR.
    criRange: {min: 1, max: 5, unit: mcg/kg/min}
  - name: Beta
    brands: [Betazol]
  - name: Gamma
rules:
  - {a: Alpha, b: Beta, level: incompatible, evidence: strong, reason: Precipitates., recommendation: Separate lines.}
  - {a: Gamma, b: Betazol, level: limited, evidence: limited, reason: Unknown., recommendation: Avoid.}
`

func mustParse(t *testing.T, doc string) *Registry {
	t.Helper()
	reg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return reg
}

func TestDefaultRegistryLoads(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if reg.DrugCount() != 41 {
		t.Errorf("Expected 41 drugs, got %d", reg.DrugCount())
	}
	if reg.RuleCount() != 22 {
		t.Errorf("Expected 22 rules, got %d", reg.RuleCount())
	}
	if reg.Source().Version != "2.1" {
		t.Errorf("Expected source version 2.1, got %q", reg.Source().Version)
	}
	if len(reg.Legend()) != 4 || reg.Legend()[0].Status != "compatible" {
		t.Errorf("Unexpected legend: %+v", reg.Legend())
	}
}

func TestResolve(t *testing.T) {
	reg := mustParse(t, fixtureYAML)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical", "Alpha", "Alpha", false},
		{"canonical lower case", "alpha", "Alpha", false},
		{"surrounding whitespace", "  ALPHA \t", "Alpha", false},
		{"common name", "alphamine", "Alpha", false},
		{"brand alias", "ALFA-X", "Alpha", false},
		{"second drug brand", "betazol", "Beta", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"unknown", "Aspirin", "", true},
		{"partial match is not a match", "Alph", "", true},
		{"inner whitespace kept", "Alfa - X", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Resolve(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnrecognizedDrug) {
					t.Fatalf("Resolve(%q) error = %v, want ErrUnrecognizedDrug", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	for _, d := range reg.Drugs() {
		names := append([]string{d.CanonicalName, d.CommonName}, d.BrandAliases...)
		for _, name := range names {
			if name == "" {
				continue
			}
			first, err := reg.Resolve(name)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", name, err)
			}
			second, err := reg.Resolve(first)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", first, err)
			}
			if first != second || first != d.CanonicalName {
				t.Errorf("Resolve not idempotent for %q: %q then %q", name, first, second)
			}
		}
	}
}

func TestLookupIsSymmetric(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	drugs := reg.Drugs()
	for _, a := range drugs {
		for _, b := range drugs {
			ruleAB, okAB := reg.Lookup(a.CanonicalName, b.CanonicalName)
			ruleBA, okBA := reg.Lookup(b.CanonicalName, a.CanonicalName)
			if okAB != okBA || ruleAB != ruleBA {
				t.Fatalf("Lookup(%q, %q) differs from reverse order", a.CanonicalName, b.CanonicalName)
			}
		}
	}

	rule, ok := reg.Lookup("sodium bicarbonate", "DOPAMINE")
	if !ok {
		t.Fatal("Expected rule for dopamine + sodium bicarbonate")
	}
	if rule.Level != LevelIncompatible {
		t.Errorf("Expected incompatible, got %s", rule.Level)
	}
}

func TestRulesStoreCanonicalNames(t *testing.T) {
	reg := mustParse(t, fixtureYAML)

	rule, ok := reg.Lookup("Gamma", "Beta")
	if !ok {
		t.Fatal("Expected rule declared via brand alias to be indexed under canonical name")
	}
	if rule.DrugA != "Gamma" || rule.DrugB != "Beta" {
		t.Errorf("Expected canonical names on rule, got %q + %q", rule.DrugA, rule.DrugB)
	}
}

// New accepts rule levels in any case and stores the canonical value
func TestNewStoresCanonicalLevels(t *testing.T) {
	drugs := []DrugRecord{{CanonicalName: "Alpha"}, {CanonicalName: "Beta"}, {CanonicalName: "Gamma"}}
	rules := []PairRule{
		{DrugA: "Alpha", DrugB: "Beta", Level: "Incompatible", Evidence: "STRONG"},
		{DrugA: "Alpha", DrugB: "Gamma", Level: " LIMITED ", Evidence: "Moderate"},
	}
	reg, err := New(Source{Name: "mixed case"}, nil, drugs, rules)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		a, b         string
		wantLevel    Level
		wantEvidence Evidence
	}{
		{"Alpha", "Beta", LevelIncompatible, EvidenceStrong},
		{"Gamma", "Alpha", LevelLimited, EvidenceModerate},
	}

	for _, tt := range tests {
		rule, ok := reg.Lookup(tt.a, tt.b)
		if !ok {
			t.Fatalf("Lookup(%s, %s) found no rule", tt.a, tt.b)
		}
		if rule.Level != tt.wantLevel || rule.Evidence != tt.wantEvidence {
			t.Errorf("Lookup(%s, %s) = %q/%q, want %q/%q", tt.a, tt.b, rule.Level, rule.Evidence, tt.wantLevel, tt.wantEvidence)
		}
	}
}

func TestNewRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "empty catalog",
			doc:     "source: {name: x}\ndrugs: []\n",
			wantErr: ErrEmptyCatalog,
		},
		{
			name:    "duplicate drug",
			doc:     "drugs:\n  - name: Alpha\n  - name: alpha\n",
			wantErr: ErrDuplicateDrug,
		},
		{
			name:    "brand shared by two drugs",
			doc:     "drugs:\n  - name: Alpha\n    brands: [Shared]\n  - name: Beta\n    brands: [shared]\n",
			wantErr: ErrAmbiguousAlias,
		},
		{
			name:    "brand equal to another canonical name",
			doc:     "drugs:\n  - name: Alpha\n    brands: [Beta]\n  - name: Beta\n",
			wantErr: ErrAmbiguousAlias,
		},
		{
			name: "duplicate rule in reverse order",
			doc: "drugs:\n  - name: Alpha\n  - name: Beta\nrules:\n" +
				"  - {a: Alpha, b: Beta, level: caution, evidence: strong}\n" +
				"  - {a: Beta, b: Alpha, level: caution, evidence: strong}\n",
			wantErr: ErrDuplicateRule,
		},
		{
			name:    "self pair through alias",
			doc:     "drugs:\n  - name: Alpha\n    brands: [Alf]\nrules:\n  - {a: Alpha, b: Alf, level: caution, evidence: strong}\n",
			wantErr: ErrSelfPair,
		},
		{
			name:    "rule drug not in catalog",
			doc:     "drugs:\n  - name: Alpha\nrules:\n  - {a: Alpha, b: Omega, level: caution, evidence: strong}\n",
			wantErr: ErrUnknownRuleDrug,
		},
		{
			name:    "invalid level",
			doc:     "drugs:\n  - name: Alpha\n  - name: Beta\nrules:\n  - {a: Alpha, b: Beta, level: fatal, evidence: strong}\n",
			wantErr: ErrInvalidLevel,
		},
		{
			name:    "invalid evidence",
			doc:     "drugs:\n  - name: Alpha\n  - name: Beta\nrules:\n  - {a: Alpha, b: Beta, level: caution, evidence: anecdotal}\n",
			wantErr: ErrInvalidEvidence,
		},
		{
			name:    "inverted CRI range",
			doc:     "drugs:\n  - name: Alpha\n    criRange: {min: 5, max: 1}\n",
			wantErr: ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("drugs:\n  - name: Alpha\n    dose: 3\n"))
	if err == nil {
		t.Fatal("Expected error for unknown field")
	}
}

func TestGuidanceDefaults(t *testing.T) {
	reg := mustParse(t, fixtureYAML)

	got := reg.Guidance([]string{"Alpha", "Gamma", "Not a drug"})
	if len(got) != 3 {
		t.Fatalf("Expected 3 guidance entries, got %d", len(got))
	}
	if got[0].Bolus != "Slow IV." || got[0].Monitoring != "HR." {
		t.Errorf("Unexpected guidance for Alpha: %+v", got[0])
	}
	if got[1].Bolus != DefaultBolusGuidance || got[1].Monitoring != DefaultMonitoringGuidance {
		t.Errorf("Expected default guidance for Gamma, got %+v", got[1])
	}
	if got[2].Drug != "Not a drug" || got[2].Bolus != DefaultBolusGuidance {
		t.Errorf("Expected default guidance for unknown drug, got %+v", got[2])
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	reg := mustParse(t, fixtureYAML)

	drugs := reg.Drugs()
	drugs[0].BrandAliases[0] = "mutated"
	drugs[0].CRIDoseRange.Max = 1000

	rec, err := reg.Record("Alpha")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.BrandAliases[0] != "Alfa-X" {
		t.Errorf("Registry aliases were mutated through Drugs(): %v", rec.BrandAliases)
	}
	if rec.CRIDoseRange.Max != 5 {
		t.Errorf("Registry CRI range was mutated through Drugs(): %v", rec.CRIDoseRange.Max)
	}
	if _, err := reg.Resolve("mutated"); err == nil {
		t.Error("Mutating a returned record must not add aliases")
	}
}

func TestSearch(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	tests := []struct {
		query string
		want  string
		count int
	}{
		{"", "", 41},
		{"baytril", "Enrofloxacin", 1},
		{"  FENTANYL ", "Fentanyl", 1},
		{"aspirin", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := reg.Search(tt.query)
			if len(got) != tt.count {
				t.Fatalf("Search(%q) returned %d drugs, want %d", tt.query, len(got), tt.count)
			}
			if tt.want != "" && got[0].CanonicalName != tt.want {
				t.Errorf("Search(%q)[0] = %s, want %s", tt.query, got[0].CanonicalName, tt.want)
			}
		})
	}
}

func TestPairKey(t *testing.T) {
	if NewPairKey("b", "a") != NewPairKey("a", "b") {
		t.Error("PairKey must not depend on argument order")
	}
	if NewPairKey("a|b", "c") == NewPairKey("a", "b|c") {
		t.Error("PairKey must not collide on separator characters")
	}
	if !NewPairKey("a", "a").IsSelf() {
		t.Error("Expected IsSelf for identical members")
	}
	first, second := NewPairKey("zeta", "alpha").Drugs()
	if first != "alpha" || second != "zeta" {
		t.Errorf("Expected ordered members, got %q, %q", first, second)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Dopamine ", "dopamine"},
		{"DEXAMETHASONE SP", "dexamethasone sp"},
		{"Céfazolin", "céfazolin"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := NewFileLoader(path)
	reg, sum, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reg.DrugCount() != 3 {
		t.Errorf("Expected 3 drugs, got %d", reg.DrugCount())
	}

	again, err := loader.Checksum()
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	if again != sum {
		t.Errorf("Checksum changed for identical content: %d != %d", again, sum)
	}

	if err := os.WriteFile(path, []byte(fixtureYAML+"\n# edited\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	changed, err := loader.Checksum()
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	if changed == sum {
		t.Error("Expected checksum to change after edit")
	}
}

func TestFileLoaderErrors(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := NewFileLoader(filepath.Join(dir, "missing.yaml")).Load(); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, _, err := NewFileLoader(filepath.Join(dir, "registry.json")).Load(); err == nil {
		t.Error("Expected error for non-YAML extension")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("drugs:\n  - name: A\n    brands: [x]\n  - name: B\n    brands: [X]\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, _, err := NewFileLoader(bad).Load(); !errors.Is(err, ErrAmbiguousAlias) {
		t.Errorf("Expected ErrAmbiguousAlias, got %v", err)
	}
}

func TestEmbeddedLoader(t *testing.T) {
	loader := NewFileLoader("")
	if loader.Describe() != "embedded registry" {
		t.Errorf("Unexpected description %q", loader.Describe())
	}
	reg, _, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := reg.Resolve("Baytril"); err != nil {
		t.Errorf("Expected Baytril to resolve, got %v", err)
	}
}
