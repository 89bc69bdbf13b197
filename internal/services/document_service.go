// Package services – DocumentService
//
// This file implements DocumentService, the ingestion front door. Payloads are
// parsed on the worker pool while the request waits, normalized to a JSON
// array, and spooled to the blob store; only then is a task registered. The
// request therefore fails fast on malformed payloads, while everything that
// needs the indexes table (primary-key resolution, the upsert itself) runs on
// the scheduler.
//
// Adding documents to an index that does not exist yet is allowed and creates
// the index; deleting documents from a missing index fails on the task.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/docformat"
	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/httperr"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/utils"
	"github.com/tbourn/go-index-backend/internal/worker"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DocumentService owns document ingestion, retrieval, and deletion.
type DocumentService struct {
	DB    *gorm.DB
	Queue *scheduler.Scheduler
	Store *blobstore.Store
	Pool  *worker.Pool

	// MaxPageSize caps the page size of document listings; zero falls back
	// to 1000.
	MaxPageSize int
}

// EnqueueDocuments parses data as format, spools the normalized batch, and
// registers a documentAddition (replace) or documentUpdate (merge) task.
//
// Parse failures surface synchronously as *docformat.Error; the task is only
// created once the payload is known to be well formed and durably spooled.
func (s *DocumentService) EnqueueDocuments(ctx context.Context, indexUID string, format docformat.PayloadType, data []byte, primaryKey *string, replace bool) (*domain.Task, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "EnqueueDocuments",
		trace.WithAttributes(
			attribute.String("index.uid", indexUID),
			attribute.String("payload.format", format.String()),
			attribute.Int("payload.bytes", len(data)),
		),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(indexUID); err != nil {
		return nil, err
	}

	var (
		spooled  string
		received int64
	)
	job := s.Pool.Go(func() error {
		docs, derr := docformat.ReadObjects(format, bytes.NewReader(data))
		if derr != nil {
			return derr
		}
		if docs == nil {
			docs = []map[string]any{}
		}
		normalized, err := json.Marshal(docs)
		if err != nil {
			return fmt.Errorf("normalize %s payload: %w", format, err)
		}
		uid, _, err := s.Store.PutBytes(normalized)
		if err != nil {
			return err
		}
		spooled = uid
		received = int64(len(docs))
		return nil
	})
	if err := job.Join(ctx); err != nil {
		var ferr *docformat.Error
		var jerr *worker.JoinError
		switch {
		case errors.As(err, &ferr):
			return nil, ferr
		case errors.As(err, &jerr):
			return nil, jerr
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, httperr.NewStore(err)
		}
	}

	taskType := domain.TaskDocumentUpdate
	if replace {
		taskType = domain.TaskDocumentAddition
	}
	task := &domain.Task{
		IndexUID:          indexUID,
		Type:              taskType,
		PrimaryKey:        primaryKey,
		UpdateFile:        spooled,
		ReceivedDocuments: &received,
	}
	if err := s.Queue.Register(ctx, task); err != nil {
		s.discard(spooled)
		return nil, err
	}
	return task, nil
}

// DeleteDocuments validates the given document ids, spools them, and registers
// a documentDeletion task. Whether the index exists is checked on execution.
func (s *DocumentService) DeleteDocuments(ctx context.Context, indexUID string, ids []any) (*domain.Task, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "DeleteDocuments",
		trace.WithAttributes(
			attribute.String("index.uid", indexUID),
			attribute.Int("ids", len(ids)),
		),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(indexUID); err != nil {
		return nil, err
	}

	docIDs := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, ok := documentIDValue(raw)
		if !ok {
			return nil, NewInvalidDocumentID(fmt.Sprintf("%v", raw))
		}
		if err := ValidateDocumentID(id); err != nil {
			return nil, err
		}
		docIDs = append(docIDs, id)
	}

	payloadBytes, err := json.Marshal(docIDs)
	if err != nil {
		return nil, fmt.Errorf("normalize deletion payload: %w", err)
	}
	spooled, _, err := s.Store.PutBytes(payloadBytes)
	if err != nil {
		return nil, httperr.NewStore(err)
	}

	received := int64(len(docIDs))
	task := &domain.Task{
		IndexUID:          indexUID,
		Type:              domain.TaskDocumentDeletion,
		UpdateFile:        spooled,
		ReceivedDocuments: &received,
	}
	if err := s.Queue.Register(ctx, task); err != nil {
		s.discard(spooled)
		return nil, err
	}
	return task, nil
}

// Get fetches one document as its decoded field map.
func (s *DocumentService) Get(ctx context.Context, indexUID, docID string) (map[string]any, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("index.uid", indexUID),
			attribute.String("doc.id", docID),
		),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(indexUID); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, indexUID); err != nil {
		return nil, err
	}

	doc, err := repo.GetDocument(ctx, s.DB, indexUID, docID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &DocumentNotFoundError{IndexUID: indexUID, DocID: docID}
	}
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(doc.Fields), &fields); err != nil {
		return nil, fmt.Errorf("decode stored document %s/%s: %w", indexUID, docID, err)
	}
	return fields, nil
}

// ListPage returns a page of an index's documents as decoded field maps,
// ordered by document id.
func (s *DocumentService) ListPage(ctx context.Context, indexUID string, page, pageSize int) ([]map[string]any, int64, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("index.uid", indexUID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if err := scheduler.ValidateIndexUID(indexUID); err != nil {
		return nil, 0, err
	}
	if err := s.mustExist(ctx, indexUID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if max := s.maxPageSize(); pageSize > max {
		pageSize = max
	}
	offset := utils.PageOffset(page, pageSize)

	total, err := repo.CountDocuments(ctx, s.DB, indexUID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []map[string]any{}, 0, nil
	}

	rows, err := repo.ListDocumentsPage(ctx, s.DB, indexUID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, d := range rows {
		var fields map[string]any
		if err := json.Unmarshal([]byte(d.Fields), &fields); err != nil {
			return nil, 0, fmt.Errorf("decode stored document %s/%s: %w", indexUID, d.DocID, err)
		}
		out = append(out, fields)
	}
	return out, total, nil
}

func (s *DocumentService) maxPageSize() int {
	if s.MaxPageSize <= 0 {
		return 1000
	}
	return s.MaxPageSize
}

func (s *DocumentService) mustExist(ctx context.Context, uid string) error {
	exists, err := repo.IndexExists(ctx, s.DB, uid)
	if err != nil {
		return err
	}
	if !exists {
		return scheduler.NewIndexNotFound(uid)
	}
	return nil
}

// discard removes a spooled payload after task registration failed. Failures
// are ignored; the maintenance sweep collects orphaned update files.
func (s *DocumentService) discard(uid string) {
	_ = s.Store.Delete(uid)
}
