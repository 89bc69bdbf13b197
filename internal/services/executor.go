// Package services – TaskExecutor
//
// This file implements TaskExecutor, the scheduler's execution callback. Every
// mutating API operation becomes a task, and this is where the task's effect
// actually happens: index rows, document rows, and the in-memory search
// registry all change here and nowhere else.
//
// Errors returned from Execute are recorded on the task as a (code, type,
// message) triple, so each branch fails with the typed error whose rendering
// the API documents.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/payload"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/search"
)

// TaskExecutor applies tasks to the database and the search registry.
type TaskExecutor struct {
	DB     *gorm.DB
	Store  *blobstore.Store
	Search *search.Registry
}

// Execute runs one task to completion. It is called from scheduler workers;
// tasks for the same index arrive strictly in registration order.
func (e *TaskExecutor) Execute(ctx context.Context, t *domain.Task) (repo.TaskDetails, error) {
	switch t.Type {
	case domain.TaskIndexCreation:
		return e.createIndex(ctx, t)
	case domain.TaskIndexUpdate:
		return e.updateIndex(ctx, t)
	case domain.TaskIndexDeletion:
		return e.deleteIndex(ctx, t)
	case domain.TaskDocumentAddition:
		return e.ingestDocuments(ctx, t, true)
	case domain.TaskDocumentUpdate:
		return e.ingestDocuments(ctx, t, false)
	case domain.TaskDocumentDeletion:
		return e.deleteDocuments(ctx, t)
	default:
		return repo.TaskDetails{}, fmt.Errorf("unknown task type %q", t.Type)
	}
}

func (e *TaskExecutor) createIndex(ctx context.Context, t *domain.Task) (repo.TaskDetails, error) {
	_, err := repo.CreateIndex(ctx, e.DB, t.IndexUID, t.PrimaryKey)
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.TaskDetails{}, scheduler.NewIndexAlreadyExists(t.IndexUID)
	}
	return repo.TaskDetails{}, err
}

func (e *TaskExecutor) updateIndex(ctx context.Context, t *domain.Task) (repo.TaskDetails, error) {
	idx, err := repo.GetIndex(ctx, e.DB, t.IndexUID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.TaskDetails{}, scheduler.NewIndexNotFound(t.IndexUID)
	}
	if err != nil {
		return repo.TaskDetails{}, err
	}

	// Changing an established primary key would orphan the ids of every
	// document already stored under the old one.
	if idx.PrimaryKey != nil && t.PrimaryKey != nil && *idx.PrimaryKey != *t.PrimaryKey {
		total, err := repo.CountDocuments(ctx, e.DB, t.IndexUID)
		if err != nil {
			return repo.TaskDetails{}, err
		}
		if total > 0 {
			return repo.TaskDetails{}, NewPrimaryKeyConflict(*t.PrimaryKey, *idx.PrimaryKey)
		}
	}

	err = repo.UpdateIndexPrimaryKey(ctx, e.DB, t.IndexUID, t.PrimaryKey)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.TaskDetails{}, scheduler.NewIndexNotFound(t.IndexUID)
	}
	return repo.TaskDetails{}, err
}

func (e *TaskExecutor) deleteIndex(ctx context.Context, t *domain.Task) (repo.TaskDetails, error) {
	deleted, err := repo.DeleteAllDocuments(ctx, e.DB, t.IndexUID)
	if err != nil {
		return repo.TaskDetails{}, err
	}
	err = repo.DeleteIndex(ctx, e.DB, t.IndexUID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.TaskDetails{}, scheduler.NewIndexNotFound(t.IndexUID)
	}
	if err != nil {
		return repo.TaskDetails{}, err
	}
	e.Search.Drop(t.IndexUID)
	return repo.TaskDetails{DeletedDocuments: &deleted}, nil
}

// ingestDocuments applies a documentAddition (replace=true) or documentUpdate
// (replace=false) task. The spooled payload is the normalized JSON array the
// request handler wrote; failing to read it back means the update file was
// lost or damaged after the request was accepted.
func (e *TaskExecutor) ingestDocuments(ctx context.Context, t *domain.Task, replace bool) (repo.TaskDetails, error) {
	details := repo.TaskDetails{}

	idx, err := repo.GetIndex(ctx, e.DB, t.IndexUID)
	if errors.Is(err, repo.ErrNotFound) {
		// Adding documents to a missing index creates it. The primary key
		// stays unset until resolved below.
		idx, err = repo.CreateIndex(ctx, e.DB, t.IndexUID, nil)
		if errors.Is(err, repo.ErrDuplicate) {
			idx, err = repo.GetIndex(ctx, e.DB, t.IndexUID)
		}
	}
	if err != nil {
		return details, err
	}

	docs, err := e.readSpooledDocs(t)
	if err != nil {
		return details, err
	}

	received := int64(len(docs))
	details.ReceivedDocuments = &received
	if len(docs) == 0 {
		indexed := int64(0)
		details.IndexedDocuments = &indexed
		return details, nil
	}

	pk, declared, err := resolvePrimaryKey(idx, t, docs[0])
	if err != nil {
		return details, err
	}

	// Collapse the batch by document id, last entry winning. Update tasks
	// merge into the stored fields; within a batch later entries merge into
	// earlier ones.
	order := make([]string, 0, len(docs))
	pending := make(map[string]map[string]any, len(docs))
	for _, doc := range docs {
		raw, ok := doc[pk]
		if !ok {
			return details, NewMissingDocumentID(pk)
		}
		id, ok := documentIDValue(raw)
		if !ok {
			return details, NewInvalidDocumentID(fmt.Sprintf("%v", raw))
		}
		if err := ValidateDocumentID(id); err != nil {
			return details, err
		}

		base, seen := pending[id]
		if !seen {
			order = append(order, id)
			if !replace {
				stored, err := repo.GetDocument(ctx, e.DB, t.IndexUID, id)
				if err == nil {
					if uerr := json.Unmarshal([]byte(stored.Fields), &base); uerr != nil {
						return details, fmt.Errorf("decode stored document %s/%s: %w", t.IndexUID, id, uerr)
					}
				} else if !errors.Is(err, repo.ErrNotFound) {
					return details, err
				}
			}
		}
		if replace || base == nil {
			pending[id] = doc
			continue
		}
		merged := make(map[string]any, len(base)+len(doc))
		for k, v := range base {
			merged[k] = v
		}
		for k, v := range doc {
			merged[k] = v
		}
		pending[id] = merged
	}

	now := time.Now().UTC()
	rows := make([]domain.Document, 0, len(order))
	for _, id := range order {
		fields, err := json.Marshal(pending[id])
		if err != nil {
			return details, fmt.Errorf("encode document %s/%s: %w", t.IndexUID, id, err)
		}
		rows = append(rows, domain.Document{
			IndexUID:  t.IndexUID,
			DocID:     id,
			Fields:    string(fields),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if idx.PrimaryKey == nil && declared {
		if err := repo.UpdateIndexPrimaryKey(ctx, e.DB, t.IndexUID, &pk); err != nil {
			return details, err
		}
	}
	if err := repo.UpsertDocuments(ctx, e.DB, rows); err != nil {
		return details, err
	}
	if err := repo.TouchIndex(ctx, e.DB, t.IndexUID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return details, err
	}

	sidx := e.Search.GetOrCreate(t.IndexUID)
	for _, id := range order {
		sidx.Add(id, search.DocumentText(pending[id]))
	}

	indexed := int64(len(order))
	details.IndexedDocuments = &indexed
	return details, nil
}

func (e *TaskExecutor) deleteDocuments(ctx context.Context, t *domain.Task) (repo.TaskDetails, error) {
	details := repo.TaskDetails{}

	exists, err := repo.IndexExists(ctx, e.DB, t.IndexUID)
	if err != nil {
		return details, err
	}
	if !exists {
		return details, scheduler.NewIndexNotFound(t.IndexUID)
	}

	ids, err := e.readSpooledIDs(t)
	if err != nil {
		return details, err
	}

	deleted, err := repo.DeleteDocuments(ctx, e.DB, t.IndexUID, ids)
	if err != nil {
		return details, err
	}
	if err := repo.TouchIndex(ctx, e.DB, t.IndexUID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return details, err
	}

	if sidx, ok := e.Search.Get(t.IndexUID); ok {
		for _, id := range ids {
			sidx.Remove(id)
		}
	}

	details.DeletedDocuments = &deleted
	return details, nil
}

// readSpooledDocs loads a document batch back from the blob store.
func (e *TaskExecutor) readSpooledDocs(t *domain.Task) ([]map[string]any, error) {
	data, err := e.readSpooled(t.UpdateFile)
	if err != nil {
		return nil, scheduler.NewCorruptedUpdate(t.IndexUID, err)
	}
	var docs []map[string]any
	if derr := payload.DecodeJSON(data, &docs); derr != nil {
		return nil, scheduler.NewCorruptedUpdate(t.IndexUID, derr)
	}
	return docs, nil
}

// readSpooledIDs loads a deletion id list back from the blob store.
func (e *TaskExecutor) readSpooledIDs(t *domain.Task) ([]string, error) {
	data, err := e.readSpooled(t.UpdateFile)
	if err != nil {
		return nil, scheduler.NewCorruptedUpdate(t.IndexUID, err)
	}
	var ids []string
	if derr := payload.DecodeJSON(data, &ids); derr != nil {
		return nil, scheduler.NewCorruptedUpdate(t.IndexUID, derr)
	}
	return ids, nil
}

func (e *TaskExecutor) readSpooled(uid string) ([]byte, error) {
	rc, err := e.Store.Open(uid)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// resolvePrimaryKey picks the primary key for an ingestion batch: the index's
// established key wins, then the key declared on the task, then inference from
// the first document. declared reports whether the index row should be updated
// with the result.
//
// A task key that contradicts an established index key fails the task instead
// of silently writing ids from the wrong field.
func resolvePrimaryKey(idx *domain.Index, t *domain.Task, first map[string]any) (pk string, declared bool, err error) {
	if idx.PrimaryKey != nil {
		if t.PrimaryKey != nil && *t.PrimaryKey != *idx.PrimaryKey {
			return "", false, NewPrimaryKeyConflict(*t.PrimaryKey, *idx.PrimaryKey)
		}
		return *idx.PrimaryKey, false, nil
	}
	if t.PrimaryKey != nil {
		return *t.PrimaryKey, true, nil
	}
	inferred, ok := inferPrimaryKey(first)
	if !ok {
		return "", false, NewPrimaryKeyInferenceFailed()
	}
	return inferred, true, nil
}

// inferPrimaryKey returns the first field (in lexical order, for determinism)
// whose name contains "id" case-insensitively.
func inferPrimaryKey(doc map[string]any) (string, bool) {
	candidates := make([]string, 0, len(doc))
	for k := range doc {
		if strings.Contains(strings.ToLower(k), "id") {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}
