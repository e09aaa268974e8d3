// Package health reports whether the service has a usable registry loaded.
package health

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/giygas/vetref-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store     interfaces.RegistryStore
	scheduler interfaces.Scheduler
}

// NewHealthChecker creates a health checker. scheduler may be nil when the
// periodic reload is disabled.
func NewHealthChecker(store interfaces.RegistryStore, scheduler interfaces.Scheduler) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:     store,
		scheduler: scheduler,
	}
}

// HealthCheck returns the data used by the /health endpoint.
// Without a registry the service cannot answer anything and is unhealthy;
// a registry with no rules can only ever report "no conflicts" and is
// degraded.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	reg := h.store.GetRegistry()
	lastUpdate := h.store.GetLastUpdated()
	isUpdating := h.store.IsUpdating()

	data = map[string]any{
		"is_updating": isUpdating,
	}

	if start := h.store.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(time.Since(start).Seconds())
	}

	if reg == nil {
		return "unhealthy", data, http.StatusServiceUnavailable
	}

	source := reg.Source()
	dataAge := time.Since(lastUpdate)
	data["drugs"] = reg.DrugCount()
	data["rules"] = reg.RuleCount()
	data["source"] = source.Name
	data["source_version"] = source.Version
	data["checksum"] = fmt.Sprintf("%016x", h.store.GetChecksum())
	data["last_update"] = lastUpdate.Format(time.RFC3339)
	data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10

	if h.scheduler != nil {
		if next := h.scheduler.NextRun(); !next.IsZero() {
			data["next_reload"] = next.Format(time.RFC3339)
		}
	}

	if report := h.store.GetQualityReport(); report != nil {
		data["data_quality"] = map[string]any{
			"drugs_without_guidance":  len(report.DrugsWithoutGuidance),
			"drugs_without_rules":     len(report.DrugsWithoutRules),
			"rules_without_reference": report.RulesWithoutReference,
			"drugs_with_cri_range":    report.DrugsWithCRIRange,
			"rules_by_level":          report.RulesByLevel,
		}
	}

	if reg.RuleCount() == 0 {
		return "degraded", data, http.StatusServiceUnavailable
	}

	return "healthy", data, http.StatusOK
}
