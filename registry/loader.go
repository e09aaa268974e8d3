package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

//go:embed data/registry.yaml
var defaultRegistryYAML []byte

// yamlRegistry mirrors the on-disk data file layout
type yamlRegistry struct {
	Source struct {
		Name    string   `yaml:"name"`
		Version string   `yaml:"version"`
		Date    string   `yaml:"date"`
		Notes   []string `yaml:"notes"`
	} `yaml:"source"`
	Legend map[string]yamlLegend `yaml:"legend"`
	Drugs  []yamlDrug            `yaml:"drugs"`
	Rules  []yamlRule            `yaml:"rules"`
}

type yamlLegend struct {
	ChartSymbol string `yaml:"chartSymbol"`
	MappedLevel string `yaml:"mappedLevel"`
	UIColor     string `yaml:"uiColor"`
	Guidance    string `yaml:"guidance"`
}

type yamlDrug struct {
	Name       string   `yaml:"name"`
	CommonName string   `yaml:"commonName"`
	Brands     []string `yaml:"brands"`
	Bolus      string   `yaml:"bolus"`
	Monitor    string   `yaml:"monitor"`
	CRIRange   *struct {
		Min  float64 `yaml:"min"`
		Max  float64 `yaml:"max"`
		Unit string  `yaml:"unit"`
	} `yaml:"criRange"`
}

type yamlRule struct {
	A              string `yaml:"a"`
	B              string `yaml:"b"`
	ChartStatus    string `yaml:"chartStatus"`
	Level          string `yaml:"level"`
	Evidence       string `yaml:"evidence"`
	Reason         string `yaml:"reason"`
	Recommendation string `yaml:"recommendation"`
	Reference      string `yaml:"reference"`
}

// legendOrder keeps the legend output stable regardless of map iteration
var legendOrder = []string{"compatible", "incompatible", "variable", "unknown"}

// Parse decodes a YAML data file and builds a Registry from it
func Parse(r io.Reader) (*Registry, error) {
	var dto yamlRegistry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&dto); err != nil {
		return nil, fmt.Errorf("failed to decode registry data: %w", err)
	}
	return dto.toRegistry()
}

func (dto yamlRegistry) toRegistry() (*Registry, error) {
	source := Source{
		Name:    strings.TrimSpace(dto.Source.Name),
		Version: strings.TrimSpace(dto.Source.Version),
		Date:    strings.TrimSpace(dto.Source.Date),
		Notes:   dto.Source.Notes,
	}

	legend := make([]LegendEntry, 0, len(dto.Legend))
	seen := make(map[string]bool, len(dto.Legend))
	appendLegend := func(status string, l yamlLegend) error {
		level, err := ParseLevel(l.MappedLevel)
		if err != nil {
			return fmt.Errorf("legend %q: %w", status, err)
		}
		legend = append(legend, LegendEntry{
			Status:      status,
			ChartSymbol: l.ChartSymbol,
			Level:       level,
			Color:       l.UIColor,
			Guidance:    l.Guidance,
		})
		seen[status] = true
		return nil
	}
	for _, status := range legendOrder {
		if l, ok := dto.Legend[status]; ok {
			if err := appendLegend(status, l); err != nil {
				return nil, err
			}
		}
	}
	for status, l := range dto.Legend {
		if !seen[status] {
			if err := appendLegend(status, l); err != nil {
				return nil, err
			}
		}
	}

	drugs := make([]DrugRecord, 0, len(dto.Drugs))
	for _, d := range dto.Drugs {
		rec := DrugRecord{
			CanonicalName:      d.Name,
			CommonName:         d.CommonName,
			BrandAliases:       d.Brands,
			BolusGuidance:      d.Bolus,
			MonitoringGuidance: d.Monitor,
		}
		if d.CRIRange != nil {
			rec.CRIDoseRange = &DoseRange{Min: d.CRIRange.Min, Max: d.CRIRange.Max, Unit: d.CRIRange.Unit}
		}
		drugs = append(drugs, rec)
	}

	rules := make([]PairRule, 0, len(dto.Rules))
	for i, r := range dto.Rules {
		level, err := ParseLevel(r.Level)
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s + %s): %w", i, r.A, r.B, err)
		}
		evidence, err := ParseEvidence(r.Evidence)
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s + %s): %w", i, r.A, r.B, err)
		}
		rules = append(rules, PairRule{
			DrugA:          r.A,
			DrugB:          r.B,
			Level:          level,
			Evidence:       evidence,
			Reason:         r.Reason,
			Recommendation: r.Recommendation,
			ChartStatus:    r.ChartStatus,
			Reference:      r.Reference,
		})
	}

	return New(source, legend, drugs, rules)
}

// Default returns the registry embedded in the binary
func Default() (*Registry, error) {
	return Parse(bytes.NewReader(defaultRegistryYAML))
}

// FileLoader reads the registry from a YAML file, or from the embedded data
// when Path is empty.
type FileLoader struct {
	Path string
}

// NewFileLoader creates a loader for path ("" means embedded data)
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// Load reads and parses the data file. The returned checksum identifies the
// raw file content so callers can skip rebuilding unchanged data.
func (l *FileLoader) Load() (*Registry, uint64, error) {
	raw, err := l.read()
	if err != nil {
		return nil, 0, err
	}

	reg, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("invalid registry data in %s: %w", l.Describe(), err)
	}

	return reg, xxhash.Sum64(raw), nil
}

// Checksum hashes the current data without parsing it
func (l *FileLoader) Checksum() (uint64, error) {
	raw, err := l.read()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(raw), nil
}

// Describe names the data origin for logs
func (l *FileLoader) Describe() string {
	if l.Path == "" {
		return "embedded registry"
	}
	return l.Path
}

func (l *FileLoader) read() ([]byte, error) {
	if l.Path == "" {
		return defaultRegistryYAML, nil
	}

	cleanPath := filepath.Clean(l.Path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("registry file must be YAML, got: %s", cleanPath)
	}

	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", cleanPath, err)
	}
	return raw, nil
}
