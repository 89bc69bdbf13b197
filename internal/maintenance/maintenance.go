// Package maintenance runs the periodic housekeeping sweeps: finished-task
// retention, orphaned update files, and expired idempotency records.
//
// Sweeps are idempotent and independent, so a failed step is logged and the
// others still run. The update-file sweep only removes files past a grace
// period, leaving a window for the race between spooling a payload and
// registering its task.
package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/repo"
)

// Options configures the sweeper. Zero values fall back to a 30 day task
// retention, an hourly sweep and a one hour orphan grace period.
type Options struct {
	TaskRetention time.Duration // how long terminal tasks are kept
	SweepInterval time.Duration // how often the sweep runs
	OrphanGrace   time.Duration // minimum age before an unreferenced update file is removed
}

// Sweeper owns the periodic sweep schedule. The individual sweep steps are
// exported so they can be run (and tested) without the schedule.
type Sweeper struct {
	db    *gorm.DB
	store *blobstore.Store
	opts  Options
	sched gocron.Scheduler
	log   zerolog.Logger
}

// NewSweeper builds a sweeper over db and store and registers its periodic
// job. Nothing runs until Start.
func NewSweeper(db *gorm.DB, store *blobstore.Store, opts Options) (*Sweeper, error) {
	if opts.TaskRetention <= 0 {
		opts.TaskRetention = 30 * 24 * time.Hour
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Hour
	}
	if opts.OrphanGrace <= 0 {
		opts.OrphanGrace = time.Hour
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("maintenance: create scheduler: %w", err)
	}
	s := &Sweeper{
		db:    db,
		store: store,
		opts:  opts,
		sched: sched,
		log:   log.With().Str("component", "maintenance").Logger(),
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(opts.SweepInterval),
		gocron.NewTask(s.sweep),
		gocron.WithName("maintenance-sweep"),
	); err != nil {
		return nil, fmt.Errorf("maintenance: register sweep job: %w", err)
	}
	return s, nil
}

// Start begins the periodic sweeps.
func (s *Sweeper) Start() {
	s.log.Info().
		Dur("interval", s.opts.SweepInterval).
		Dur("retention", s.opts.TaskRetention).
		Msg("maintenance sweeps scheduled")
	s.sched.Start()
}

// Stop shuts the schedule down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() error {
	return s.sched.Shutdown()
}

// sweep runs one full housekeeping pass.
func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if n, err := s.SweepTasks(ctx); err != nil {
		s.log.Error().Err(err).Msg("task retention sweep")
	} else if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("task retention sweep")
	}

	if n, err := s.SweepUpdateFiles(ctx); err != nil {
		s.log.Error().Err(err).Msg("update file sweep")
	} else if n > 0 {
		s.log.Info().Int("deleted", n).Msg("update file sweep")
	}

	if n, err := s.SweepIdempotency(ctx); err != nil {
		s.log.Error().Err(err).Msg("idempotency sweep")
	} else if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("idempotency sweep")
	}
}

// SweepTasks deletes terminal tasks older than the retention window and
// returns how many were removed.
func (s *Sweeper) SweepTasks(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.opts.TaskRetention)
	return repo.DeleteFinishedTasksBefore(ctx, s.db, cutoff)
}

// SweepUpdateFiles removes spooled payloads no pending task references,
// provided they are older than the orphan grace period.
func (s *Sweeper) SweepUpdateFiles(ctx context.Context) (int, error) {
	pending, err := repo.PendingUpdateFiles(ctx, s.db)
	if err != nil {
		return 0, err
	}
	files, err := s.store.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, uid := range files {
		if _, ok := pending[uid]; ok {
			continue
		}
		info, err := os.Stat(filepath.Join(s.store.Dir(), uid))
		if err != nil || time.Since(info.ModTime()) < s.opts.OrphanGrace {
			continue
		}
		if err := s.store.Delete(uid); err != nil {
			s.log.Warn().Err(err).Str("update_file", uid).Msg("delete orphaned update file")
			continue
		}
		removed++
	}
	return removed, nil
}

// SweepIdempotency deletes idempotency records whose TTL elapsed.
func (s *Sweeper) SweepIdempotency(ctx context.Context) (int64, error) {
	return repo.DeleteExpiredIdempotency(ctx, s.db, time.Now().UTC())
}
