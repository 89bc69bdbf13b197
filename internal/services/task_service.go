// Package services – TaskService
//
// This file implements TaskService, the read side of the task queue. Tasks are
// created by the other services through the scheduler; this service only looks
// them up and lists them for the tasks API, with keyset pagination on the task
// UID (newest first).

package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TaskService reads tasks for the polling API.
type TaskService struct {
	DB *gorm.DB
}

// Get fetches a single task by UID.
func (s *TaskService) Get(ctx context.Context, uid uint64) (*domain.Task, error) {
	tr := otel.Tracer("services/TaskService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("task.uid", int64(uid))),
	)
	defer span.End()

	t, err := repo.GetTask(ctx, s.DB, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, scheduler.NewTaskNotFound(uid)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns tasks matching the filter, newest first, plus the UID to pass
// as `from` for the next page. next is nil when this page is the last one.
//
// The repository fetches one extra row past the requested limit; that row is
// not returned, it only proves another page exists and provides the cursor.
func (s *TaskService) List(ctx context.Context, f repo.TaskFilter) ([]domain.Task, *uint64, error) {
	tr := otel.Tracer("services/TaskService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.Int("limit", f.Limit)),
	)
	defer span.End()

	if f.Limit <= 0 {
		f.Limit = 20
	}

	rows, err := repo.ListTasks(ctx, s.DB, f)
	if err != nil {
		return nil, nil, err
	}

	var next *uint64
	if len(rows) > f.Limit {
		cursor := rows[f.Limit].UID
		next = &cursor
		rows = rows[:f.Limit]
	}
	if rows == nil {
		rows = []domain.Task{}
	}
	return rows, next, nil
}
