// Package scheduler owns the asynchronous task queue: it persists every
// accepted task, fans work out to a fixed pool of workers, and guarantees
// that tasks touching the same index run one at a time, in submission order.
//
// Ordering comes from routing, not locking: each task is dispatched to the
// worker selected by hashing its index UID, and every worker drains its queue
// sequentially. Two indexes may progress in parallel; two tasks of the same
// index never do.
//
// Registration is synchronous and cheap (one INSERT); execution happens later
// on a worker goroutine through the Executor. The database row is the source
// of truth for task state, so a crash between the two loses nothing: Recover
// re-dispatches every non-terminal task at startup.
package scheduler

import (
	"context"
	"errors"
	"hash/fnv"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/repo"
)

// Lifecycle stages reported to the Notifier.
const (
	StageEnqueued = "enqueued"
	StageStarted  = "started"
	StageFinished = "finished"
)

// Executor runs a single task to completion. Implementations return the
// progress details to record on success, or an error to fail the task with;
// errors implementing errcode.Coder keep their code in the task record.
type Executor interface {
	Execute(ctx context.Context, t *domain.Task) (repo.TaskDetails, error)
}

// Notifier receives task lifecycle events. The task value is a snapshot;
// implementations must not retain or mutate it. Notifiers are called from
// request and worker goroutines and should return quickly.
type Notifier interface {
	NotifyTask(stage string, t *domain.Task)
}

// Options configures a Scheduler. Zero values fall back to one worker and a
// queue of 1024 tasks; a nil Notifier disables notifications.
type Options struct {
	Workers   int
	QueueSize int
	Notifier  Notifier
}

// Scheduler dispatches registered tasks to a fixed worker pool.
//
// The pending counter tracks every task between Register and its terminal
// transition. It gates admission (queue-full fast fail) and, because each
// per-worker channel holds queueSize slots, guarantees that a send after a
// successful admission never blocks.
type Scheduler struct {
	db    *gorm.DB
	exec  Executor
	store *blobstore.Store
	notif Notifier
	log   zerolog.Logger

	queueSize int
	queues    []chan uint64
	backlog   [][]uint64 // recovered task UIDs, drained before the queues

	mu      sync.Mutex
	pending int

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Scheduler over db, executing tasks with exec. The store is
// used to discard spooled update payloads once their task is terminal; it may
// be nil when no task type spools payloads.
func New(db *gorm.DB, exec Executor, store *blobstore.Store, opts Options) *Scheduler {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := opts.QueueSize
	if queueSize < 1 {
		queueSize = 1024
	}
	s := &Scheduler{
		db:        db,
		exec:      exec,
		store:     store,
		notif:     opts.Notifier,
		log:       log.With().Str("component", "scheduler").Logger(),
		queueSize: queueSize,
		queues:    make([]chan uint64, workers),
		backlog:   make([][]uint64, workers),
		quit:      make(chan struct{}),
	}
	for i := range s.queues {
		s.queues[i] = make(chan uint64, queueSize)
	}
	return s
}

// Register persists t as an enqueued task and dispatches it for execution.
// The task UID is assigned by the database and written back into t. When the
// queue is at capacity the task is rejected without touching the database and
// the caller receives a KindQueueFull error.
func (s *Scheduler) Register(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	if s.pending >= s.queueSize {
		s.mu.Unlock()
		return NewQueueFull(t.IndexUID)
	}
	s.pending++
	s.mu.Unlock()

	t.Status = domain.TaskEnqueued
	t.EnqueuedAt = time.Now().UTC()
	if err := repo.CreateTask(ctx, s.db, t); err != nil {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
		return Wrap(t.IndexUID, err)
	}
	queueDepth.Inc()

	s.log.Debug().
		Uint64("task_uid", t.UID).
		Str("index_uid", t.IndexUID).
		Str("type", string(t.Type)).
		Msg("task enqueued")
	s.notify(StageEnqueued, t)

	s.queues[s.workerFor(t.IndexUID)] <- t.UID
	return nil
}

// Recover reloads every non-terminal task from the database and schedules it
// for execution, oldest first. Tasks interrupted mid-run are moved back to
// enqueued. It must be called before Start and returns how many tasks were
// re-dispatched.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	tasks, err := repo.PendingTasks(ctx, s.db)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range tasks {
		t := &tasks[i]
		if t.Status == domain.TaskProcessing {
			if err := repo.ResetTaskEnqueued(ctx, s.db, t.UID); err != nil {
				s.log.Error().Err(err).Uint64("task_uid", t.UID).Msg("reset interrupted task")
				continue
			}
		}
		w := s.workerFor(t.IndexUID)
		s.backlog[w] = append(s.backlog[w], t.UID)
		s.mu.Lock()
		s.pending++
		s.mu.Unlock()
		queueDepth.Inc()
		n++
	}
	if n > 0 {
		s.log.Info().Int("tasks", n).Msg("recovered pending tasks")
	}
	return n, nil
}

// Start launches the worker goroutines. Call Recover first so interrupted
// tasks run before anything registered after boot.
func (s *Scheduler) Start() {
	for i := range s.queues {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop signals the workers to finish their current task and waits for them
// until ctx expires. Tasks still waiting in the queues stay enqueued in the
// database and are picked up by Recover on the next start. Safe to call more
// than once.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.quit) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many tasks are currently between registration and
// their terminal transition.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Scheduler) workerFor(indexUID string) int {
	h := fnv.New32a()
	h.Write([]byte(indexUID))
	return int(h.Sum32() % uint32(len(s.queues)))
}

func (s *Scheduler) worker(i int) {
	defer s.wg.Done()
	for _, uid := range s.backlog[i] {
		s.run(uid)
	}
	s.backlog[i] = nil
	for {
		select {
		case uid := <-s.queues[i]:
			s.run(uid)
		case <-s.quit:
			return
		}
	}
}

// run executes one task end to end: claim it, hand it to the executor, record
// the terminal state, discard the spooled payload, and emit telemetry.
func (s *Scheduler) run(uid uint64) {
	defer s.release()
	ctx := context.Background()

	t, err := repo.GetTask(ctx, s.db, uid)
	if err != nil {
		s.log.Error().Err(err).Uint64("task_uid", uid).Msg("load task")
		return
	}
	start := time.Now().UTC()
	if err := repo.MarkTaskProcessing(ctx, s.db, uid, start); err != nil {
		// No longer enqueued: already handled (e.g. swept or raced). Skip.
		s.log.Warn().Err(err).Uint64("task_uid", uid).Msg("claim task")
		return
	}
	t.Status = domain.TaskProcessing
	t.StartedAt = &start
	s.notify(StageStarted, t)

	details, execErr := s.exec.Execute(ctx, t)

	finished := time.Now().UTC()
	t.FinishedAt = &finished
	if execErr != nil {
		code := errcode.From(execErr)
		if err := repo.MarkTaskFailed(ctx, s.db, uid, finished, code.Name(), string(code.Type()), execErr.Error()); err != nil {
			s.log.Error().Err(err).Uint64("task_uid", uid).Msg("mark task failed")
		}
		t.Status = domain.TaskFailed
		t.ErrorCode = code.Name()
		t.ErrorType = string(code.Type())
		t.ErrorMessage = execErr.Error()
		tasksTotal.WithLabelValues(string(t.Type), string(domain.TaskFailed)).Inc()
		s.log.Warn().
			Err(execErr).
			Uint64("task_uid", uid).
			Str("index_uid", t.IndexUID).
			Str("type", string(t.Type)).
			Str("code", code.Name()).
			Msg("task failed")
	} else {
		if err := repo.MarkTaskSucceeded(ctx, s.db, uid, finished, details); err != nil {
			s.log.Error().Err(err).Uint64("task_uid", uid).Msg("mark task succeeded")
		}
		t.Status = domain.TaskSucceeded
		if details.ReceivedDocuments != nil {
			t.ReceivedDocuments = details.ReceivedDocuments
		}
		if details.IndexedDocuments != nil {
			t.IndexedDocuments = details.IndexedDocuments
		}
		if details.DeletedDocuments != nil {
			t.DeletedDocuments = details.DeletedDocuments
		}
		tasksTotal.WithLabelValues(string(t.Type), string(domain.TaskSucceeded)).Inc()
		s.log.Info().
			Uint64("task_uid", uid).
			Str("index_uid", t.IndexUID).
			Str("type", string(t.Type)).
			Dur("took", finished.Sub(start)).
			Msg("task succeeded")
	}
	taskDuration.WithLabelValues(string(t.Type)).Observe(finished.Sub(start).Seconds())

	if t.UpdateFile != "" && s.store != nil {
		if err := s.store.Delete(t.UpdateFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("update_file", t.UpdateFile).Msg("delete update file")
		}
	}

	s.notify(StageFinished, t)
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
	queueDepth.Dec()
}

func (s *Scheduler) notify(stage string, t *domain.Task) {
	if s.notif == nil {
		return
	}
	s.notif.NotifyTask(stage, t)
}
