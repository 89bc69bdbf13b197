// Package services – IndexService
//
// This file implements IndexService, the application-level component that owns
// the index lifecycle. Index mutations never touch the indexes table directly:
// the service validates the request, answers the checks that must fail
// synchronously (duplicate creation, missing index), and registers a task the
// scheduler executes in the background. Reads go straight to the repository.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the index UID and pagination parameters where applicable.

package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IndexService coordinates index lifecycle operations and task registration.
type IndexService struct {
	DB    *gorm.DB
	Queue *scheduler.Scheduler
}

// Create validates uid, rejects duplicates, and registers an indexCreation
// task. The duplicate check here answers the request synchronously; the
// executor re-checks on execution so a race between two creations still
// resolves to exactly one index and one failed task.
func (s *IndexService) Create(ctx context.Context, uid string, primaryKey *string) (*domain.Task, error) {
	tr := otel.Tracer("services/IndexService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("index.uid", uid)),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(uid); err != nil {
		return nil, err
	}
	exists, err := repo.IndexExists(ctx, s.DB, uid)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, scheduler.NewIndexAlreadyExists(uid)
	}

	task := &domain.Task{
		IndexUID:   uid,
		Type:       domain.TaskIndexCreation,
		PrimaryKey: primaryKey,
	}
	if err := s.Queue.Register(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdatePrimaryKey registers an indexUpdate task that sets the index's
// primary-key attribute. The index must already exist.
func (s *IndexService) UpdatePrimaryKey(ctx context.Context, uid string, primaryKey *string) (*domain.Task, error) {
	tr := otel.Tracer("services/IndexService")
	ctx, span := tr.Start(ctx, "UpdatePrimaryKey",
		trace.WithAttributes(attribute.String("index.uid", uid)),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(uid); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, uid); err != nil {
		return nil, err
	}

	task := &domain.Task{
		IndexUID:   uid,
		Type:       domain.TaskIndexUpdate,
		PrimaryKey: primaryKey,
	}
	if err := s.Queue.Register(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete registers an indexDeletion task. The index must exist when the
// request is made; documents and search data are removed by the executor.
func (s *IndexService) Delete(ctx context.Context, uid string) (*domain.Task, error) {
	tr := otel.Tracer("services/IndexService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("index.uid", uid)),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(uid); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, uid); err != nil {
		return nil, err
	}

	task := &domain.Task{
		IndexUID: uid,
		Type:     domain.TaskIndexDeletion,
	}
	if err := s.Queue.Register(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get fetches a single index by UID.
func (s *IndexService) Get(ctx context.Context, uid string) (*domain.Index, error) {
	tr := otel.Tracer("services/IndexService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("index.uid", uid)),
	)
	defer span.End()

	idx, err := repo.GetIndex(ctx, s.DB, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, scheduler.NewIndexNotFound(uid)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// ListPage returns paginated indexes ordered by UID.
func (s *IndexService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Index, int64, error) {
	tr := otel.Tracer("services/IndexService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.PageOffset(page, pageSize)

	total, err := repo.CountIndexes(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Index{}, 0, nil
	}

	items, err := repo.ListIndexesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// mustExist resolves a UID to a not-found error without loading the row.
func (s *IndexService) mustExist(ctx context.Context, uid string) error {
	exists, err := repo.IndexExists(ctx, s.DB, uid)
	if err != nil {
		return err
	}
	if !exists {
		return scheduler.NewIndexNotFound(uid)
	}
	return nil
}
