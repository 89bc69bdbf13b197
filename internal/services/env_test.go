package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/search"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Index{}, &domain.Document{}, &domain.Task{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// env wires a real executor, blob store, search registry and a running
// scheduler around a temp database, the way main assembles them.
type env struct {
	db    *gorm.DB
	store *blobstore.Store
	reg   *search.Registry
	exec  *TaskExecutor
	queue *scheduler.Scheduler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := newServiceDB(t)
	store, err := blobstore.New(filepath.Join(t.TempDir(), "updates"))
	if err != nil {
		t.Fatalf("blobstore: %v", err)
	}
	reg := search.NewRegistry()
	exec := &TaskExecutor{DB: db, Store: store, Search: reg}
	queue := scheduler.New(db, exec, store, scheduler.Options{Workers: 2, QueueSize: 64})
	queue.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = queue.Stop(ctx)
	})
	return &env{db: db, store: store, reg: reg, exec: exec, queue: queue}
}

// waitTask polls until the task reaches a terminal state and returns it.
func waitTask(t *testing.T, db *gorm.DB, uid uint64) *domain.Task {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := repo.GetTask(context.Background(), db, uid)
		if err == nil && task.Finished() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %d did not finish within 2s", uid)
	return nil
}

// spool marshals v and writes it to the store, returning the update file UID.
func spool(t *testing.T, store *blobstore.Store, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal spool payload: %v", err)
	}
	uid, _, err := store.PutBytes(data)
	if err != nil {
		t.Fatalf("spool payload: %v", err)
	}
	return uid
}

func strPtr(s string) *string { return &s }
