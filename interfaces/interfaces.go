// Package interfaces defines the contracts between the registry store, the
// reload scheduler, the HTTP layer and the health checker.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/vetref-api/registry"
)

// DataQualityReport summarizes gaps in the loaded registry. None of these
// block a load; they are reported on /health and logged after each reload.
type DataQualityReport struct {
	DrugsWithoutGuidance  []string               `json:"drugs_without_guidance"`
	DrugsWithoutRules     []string               `json:"drugs_without_rules"`
	RulesWithoutReference int                    `json:"rules_without_reference"`
	DrugsWithCRIRange     int                    `json:"drugs_with_cri_range"`
	RulesByLevel          map[registry.Level]int `json:"rules_by_level"`
}

// RegistryStore holds the active registry snapshot. Readers always see a
// complete registry; a reload swaps it in one step.
type RegistryStore interface {
	GetRegistry() *registry.Registry
	GetChecksum() uint64
	GetQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(reg *registry.Registry, checksum uint64, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// RegistryLoader reads a registry from its source.
type RegistryLoader interface {
	// Load parses and validates the source and returns the content checksum
	Load() (*registry.Registry, uint64, error)

	// Checksum hashes the source without parsing it
	Checksum() (uint64, error)

	// Describe names the source for logs and health output
	Describe() string
}

// Scheduler runs the periodic registry reload.
type Scheduler interface {
	Start() error
	Stop()

	// NextRun returns the next scheduled reload, zero when disabled
	NextRun() time.Time
}

// HTTPHandler defines the API endpoints.
type HTTPHandler interface {
	ServeDashboard(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)

	ServeDrugsV1(w http.ResponseWriter, r *http.Request)
	ServeDrugV1(w http.ResponseWriter, r *http.Request)
	ServeRulesV1(w http.ResponseWriter, r *http.Request)
	CheckCompatibilityV1(w http.ResponseWriter, r *http.Request)
	TransfusionV1(w http.ResponseWriter, r *http.Request)
	CRIV1(w http.ResponseWriter, r *http.Request)
	RoundingSummaryV1(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health.
type HealthChecker interface {
	// HealthCheck returns the status word, the response body fields and the
	// HTTP status to send
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator validates user input and reports registry data quality.
type DataValidator interface {
	// ValidateInput checks a free-text drug name before it is resolved
	ValidateInput(input string) error

	// ValidateSelection checks the drug list of a compatibility request
	ValidateSelection(names []string) error

	// ReportDataQuality inspects a loaded registry
	ReportDataQuality(reg *registry.Registry) *DataQualityReport
}
