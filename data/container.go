// Package data holds the active registry snapshot. A reload builds a new
// immutable registry and swaps it in atomically, so requests never see a
// half-updated catalog or rule table.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/vetref-api/interfaces"
	"github.com/giygas/vetref-api/logging"
	"github.com/giygas/vetref-api/registry"
)

// Compile-time check to ensure DataContainer implements RegistryStore
var _ interfaces.RegistryStore = (*DataContainer)(nil)

// snapshot groups everything that must change together on a reload
type snapshot struct {
	registry *registry.Registry
	checksum uint64
	report   *interfaces.DataQualityReport
	loadedAt time.Time
}

// DataContainer holds the registry snapshot behind an atomic pointer
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates an empty container; GetRegistry returns nil
// until the first UpdateData.
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetRegistry returns the active registry, or nil before the first load.
// Callers report the missing registry themselves; it is not logged here.
func (dc *DataContainer) GetRegistry() *registry.Registry {
	return dc.current.Load().registry
}

// GetChecksum returns the content hash of the active registry source
func (dc *DataContainer) GetChecksum() uint64 {
	return dc.current.Load().checksum
}

// GetQualityReport returns the data quality report of the active registry
func (dc *DataContainer) GetQualityReport() *interfaces.DataQualityReport {
	return dc.current.Load().report
}

// GetLastUpdated returns when the active registry was installed
func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.current.Load().loadedAt
}

// IsUpdating returns true if a reload is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if startTime, ok := dc.serverStartTime.Load().(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

// UpdateData swaps in a new registry. A nil registry is ignored so a failed
// load can never clear the active snapshot.
func (dc *DataContainer) UpdateData(reg *registry.Registry, checksum uint64, report *interfaces.DataQualityReport) {
	if reg == nil {
		logging.Error("Refusing to install a nil registry")
		return
	}
	dc.current.Store(&snapshot{
		registry: reg,
		checksum: checksum,
		report:   report,
		loadedAt: time.Now(),
	})
}

// BeginUpdate marks the start of a reload.
// Returns true if the reload can proceed, false if another is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
