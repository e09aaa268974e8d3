// Package scheduler loads the registry at startup and reloads it
// periodically. It also runs housekeeping sweeps such as pruning idle rate
// limiter buckets.
package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/vetref-api/interfaces"
	"github.com/giygas/vetref-api/logging"
	"github.com/giygas/vetref-api/metrics"
	"github.com/giygas/vetref-api/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Sweeper drops idle state and reports how much is left
type Sweeper interface {
	Sweep() int
}

type sweep struct {
	name    string
	every   time.Duration
	sweeper Sweeper
}

// Scheduler handles registry reloads using dependency injection
type Scheduler struct {
	store     interfaces.RegistryStore
	loader    interfaces.RegistryLoader
	validator interfaces.DataValidator
	interval  time.Duration
	sweeps    []sweep

	scheduler *gocron.Scheduler
	mu        sync.Mutex
	reloadJob *gocron.Job
	running   atomic.Bool
}

// NewScheduler creates a scheduler. An interval of zero disables periodic
// reloads; the registry is then loaded once by Start.
func NewScheduler(store interfaces.RegistryStore, loader interfaces.RegistryLoader, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	s.WaitForScheduleAll()
	s.SingletonModeAll()

	return &Scheduler{
		store:     store,
		loader:    loader,
		validator: validation.NewDataValidator(),
		interval:  interval,
		scheduler: s,
	}
}

// AddSweep registers a housekeeping job. It must be called before Start.
func (s *Scheduler) AddSweep(name string, every time.Duration, sw Sweeper) {
	s.sweeps = append(s.sweeps, sweep{name: name, every: every, sweeper: sw})
}

// Start performs the initial load and then schedules the periodic jobs.
// A failed initial load is fatal since there is nothing to serve.
func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		logging.Error("Failed to perform initial registry load", "error", err)
		return fmt.Errorf("initial registry load failed: %w", err)
	}

	if s.interval > 0 {
		job, err := s.scheduler.Every(s.interval).Do(func() {
			if err := s.Reload(); err != nil {
				logging.Error("Failed to reload registry", "error", err)
			}
		})
		if err != nil {
			logging.Error("Failed to schedule registry reload", "error", err)
			return fmt.Errorf("failed to schedule registry reload: %w", err)
		}
		s.mu.Lock()
		s.reloadJob = job
		s.mu.Unlock()
	}

	for _, sw := range s.sweeps {
		if _, err := s.scheduler.Every(sw.every).Do(func() {
			left := sw.sweeper.Sweep()
			logging.Debug("Sweep completed", "job", sw.name, "remaining", left)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s sweep: %w", sw.name, err)
		}
	}

	s.scheduler.StartAsync()
	s.running.Store(true)

	logging.Info("Scheduler started",
		"source", s.loader.Describe(),
		"reload_interval", s.interval.String(),
		"sweeps", len(s.sweeps))

	return nil
}

// Stop stops all scheduled jobs
func (s *Scheduler) Stop() {
	s.running.Store(false)
	s.scheduler.Stop()
}

// NextRun returns the next scheduled reload, or zero when periodic reloads
// are disabled or the scheduler is stopped
func (s *Scheduler) NextRun() time.Time {
	if !s.running.Load() {
		return time.Time{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reloadJob == nil {
		return time.Time{}
	}
	return s.reloadJob.NextRun()
}

// Reload loads the registry and swaps it in when the content changed.
// On failure the active snapshot is left untouched.
func (s *Scheduler) Reload() error {
	// Prevent concurrent reloads
	if !s.store.BeginUpdate() {
		logging.Info("Reload already in progress, skipping...")
		return nil
	}
	defer s.store.EndUpdate()

	if s.store.GetRegistry() != nil {
		if sum, err := s.loader.Checksum(); err == nil && sum == s.store.GetChecksum() {
			metrics.RecordReload(metrics.ReloadUnchanged, 0, 0)
			logging.Debug("Registry unchanged, skipping reload", "source", s.loader.Describe())
			return nil
		}
	}

	start := time.Now()

	reg, checksum, err := s.loader.Load()
	if err != nil {
		metrics.RecordReload(metrics.ReloadFailure, 0, 0)
		return fmt.Errorf("failed to load %s: %w", s.loader.Describe(), err)
	}

	report := s.validator.ReportDataQuality(reg)
	logQualityReport(report)

	s.store.UpdateData(reg, checksum, report)
	metrics.RecordReload(metrics.ReloadSuccess, reg.DrugCount(), reg.RuleCount())

	logging.Info("Registry loaded",
		"source", s.loader.Describe(),
		"version", reg.Source().Version,
		"drugs", reg.DrugCount(),
		"rules", reg.RuleCount(),
		"checksum", fmt.Sprintf("%016x", checksum),
		"duration", time.Since(start).String())

	return nil
}

func logQualityReport(report *interfaces.DataQualityReport) {
	if report == nil {
		return
	}

	if len(report.DrugsWithoutGuidance) > 0 {
		logging.Warn("Drugs without administration guidance",
			"count", len(report.DrugsWithoutGuidance),
			"drugs", report.DrugsWithoutGuidance,
		)
	}

	if len(report.DrugsWithoutRules) > 0 {
		logging.Info("Drugs without any pair rule",
			"count", len(report.DrugsWithoutRules),
			"drugs", report.DrugsWithoutRules,
		)
	}

	if report.RulesWithoutReference > 0 {
		logging.Warn("Rules without a reference", "count", report.RulesWithoutReference)
	}

	logging.Info("Registry data quality",
		"drugs_with_cri_range", report.DrugsWithCRIRange,
		"rules_by_level", report.RulesByLevel,
	)
}
