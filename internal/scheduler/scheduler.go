// Package scheduler keeps recurring task series topped up in the background.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/suhass434/journal-assistant/internal/models"
	"github.com/suhass434/journal-assistant/internal/server"
	"github.com/suhass434/journal-assistant/internal/store"
)

// Config defines the scheduler configuration.
type Config struct {
	// Interval is how often templates are checked.
	Interval time.Duration `yaml:"interval"`
	// HorizonDays is how far ahead each recurring series should have
	// instances generated.
	HorizonDays int `yaml:"horizon_days"`
	// Occurrences is how many instances are generated per pass for a
	// series that has fallen behind.
	Occurrences int `yaml:"occurrences"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		Interval:    time.Hour,
		HorizonDays: 7,
		Occurrences: server.RecurrenceOccurrences,
	}
}

// Scheduler periodically finds recurrence templates whose generated series
// has fallen behind the horizon and expands further instances.
type Scheduler struct {
	store   *store.Store
	service *server.Service
	config  *Config
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler.
func New(st *store.Store, svc *server.Service, cfg *Config, logger zerolog.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:   st,
		service: svc,
		config:  cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the maintenance loop.
func (sch *Scheduler) Start() {
	sch.wg.Add(1)
	go sch.loop()
	sch.logger.Info().Dur("interval", sch.config.Interval).Msg("recurrence scheduler started")
}

// Stop gracefully stops the scheduler.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.logger.Info().Msg("recurrence scheduler stopped")
}

func (sch *Scheduler) loop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.config.Interval)
	defer ticker.Stop()

	// Run once at startup so a freshly restarted daemon catches up.
	sch.Sweep()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			sch.Sweep()
		}
	}
}

// Sweep runs one maintenance pass: every template whose newest generated
// instance falls before the horizon gets further instances expanded from
// wherever the series left off. A failure on one template does not stop the
// pass; instances created before an error stay.
func (sch *Scheduler) Sweep() {
	horizon := time.Now().AddDate(0, 0, sch.config.HorizonDays).Format(models.DateFormat)

	templates, err := sch.store.ListRecurrenceTemplatesBehind(horizon)
	if err != nil {
		sch.logger.Error().Err(err).Msg("template scan failed")
		return
	}

	for _, template := range templates {
		latest, err := sch.store.LatestInstanceDate(template.ID)
		if err != nil {
			sch.logger.Error().Err(err).Str("task_id", template.ID).Msg("latest instance lookup failed")
			continue
		}
		// Expand from the end of the series, not from the template date.
		seed := template
		if latest != "" {
			seed.ScheduledDate = latest
		}

		created, err := sch.service.ExpandRecurrence(&seed, sch.config.Occurrences)
		if err != nil {
			sch.logger.Error().Err(err).Str("task_id", template.ID).Msg("recurrence expansion failed")
			continue
		}
		if len(created) > 0 {
			sch.logger.Info().Str("task_id", template.ID).Int("created", len(created)).Msg("extended recurring series")
		}
	}
}
