// Index HTTP handlers.
//
// This file exposes REST endpoints for index resources:
//   - POST   /indexes                 (register indexCreation task)
//   - GET    /indexes                 (list, paginated, ETag support)
//   - GET    /indexes/{indexUid}      (fetch one)
//   - PATCH  /indexes/{indexUid}      (register indexUpdate task)
//   - DELETE /indexes/{indexUid}      (register indexDeletion task)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
// Mutations never touch the store directly; they register tasks and answer 202
// with the task view so clients poll /tasks/{taskUid} for the outcome.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/docformat"
	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/httperr"
	"github.com/tbourn/go-index-backend/internal/payload"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/services"
	"github.com/tbourn/go-index-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// IndexService defines index lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IndexService interface {
	// Create registers an indexCreation task after synchronous validation.
	Create(ctx context.Context, uid string, primaryKey *string) (*domain.Task, error)
	// UpdatePrimaryKey registers an indexUpdate task for an existing index.
	UpdatePrimaryKey(ctx context.Context, uid string, primaryKey *string) (*domain.Task, error)
	// Delete registers an indexDeletion task for an existing index.
	Delete(ctx context.Context, uid string) (*domain.Task, error)
	// Get returns one index by uid.
	Get(ctx context.Context, uid string) (*domain.Index, error)
	// ListPage returns a page of indexes and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Index, int64, error)
}

// DocumentService defines document ingestion and retrieval operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DocumentService interface {
	// EnqueueDocuments parses, spools, and registers a document batch.
	EnqueueDocuments(ctx context.Context, indexUID string, format docformat.PayloadType, data []byte, primaryKey *string, replace bool) (*domain.Task, error)
	// DeleteDocuments registers a documentDeletion task for the given ids.
	DeleteDocuments(ctx context.Context, indexUID string, ids []any) (*domain.Task, error)
	// Get returns one stored document as the original JSON object.
	Get(ctx context.Context, indexUID, docID string) (map[string]any, error)
	// ListPage returns a page of documents and the total count.
	ListPage(ctx context.Context, indexUID string, page, pageSize int) ([]map[string]any, int64, error)
}

// TaskService defines task retrieval operations.
type TaskService interface {
	// Get returns one task by uid.
	Get(ctx context.Context, uid uint64) (*domain.Task, error)
	// List returns a filtered page of tasks plus the next cursor, if any.
	List(ctx context.Context, f repo.TaskFilter) ([]domain.Task, *uint64, error)
}

// SearchServiceAPI defines the search operation consumed by HTTP handlers.
type SearchServiceAPI interface {
	// Search ranks documents of an index against a free-form query.
	Search(ctx context.Context, indexUID, query string, limit int) (*services.SearchResult, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for indexes, documents, tasks, and search.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
//
// MaxPayloadBytes caps document upload bodies (default 100 MiB when zero).
// IdempotencyTTL bounds how long Idempotency-Key replays stay valid (default
// 24h when zero).
type Handlers struct {
	idxSvc    IndexService
	docSvc    DocumentService
	taskSvc   TaskService
	searchSvc SearchServiceAPI

	MaxPayloadBytes int64
	IdempotencyTTL  time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(idxSvc IndexService, docSvc DocumentService, taskSvc TaskService, searchSvc SearchServiceAPI) *Handlers {
	return &Handlers{idxSvc: idxSvc, docSvc: docSvc, taskSvc: taskSvc, searchSvc: searchSvc}
}

// maxPayload returns the effective body cap for document uploads.
func (h *Handlers) maxPayload() int64 {
	if h.MaxPayloadBytes > 0 {
		return h.MaxPayloadBytes
	}
	return 100 << 20
}

// idemTTL returns the effective idempotency replay window.
func (h *Handlers) idemTTL() time.Duration {
	if h.IdempotencyTTL > 0 {
		return h.IdempotencyTTL
	}
	return 24 * time.Hour
}

//
// DTOs
//

// CreateIndexRequest is the JSON payload for creating an index.
type CreateIndexRequest struct {
	// UID names the index; restricted to [a-zA-Z0-9_-], at most 400 bytes.
	UID string `json:"uid" example:"movies"`
	// PrimaryKey optionally declares the document id field up front.
	PrimaryKey *string `json:"primaryKey,omitempty" example:"movie_id"`
}

// UpdateIndexRequest is the JSON payload for updating an index.
type UpdateIndexRequest struct {
	// PrimaryKey declares the document id field for an index that has none.
	PrimaryKey *string `json:"primaryKey" example:"movie_id"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListIndexesResponse wraps a page of indexes and pagination information.
type ListIndexesResponse struct {
	Results    []domain.Index `json:"results"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationFor assembles the standard pagination block.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// readJSON decodes a JSON request body into v, translating any failure into
// the payload error chain (missing payload, malformed payload with position,
// overflow, wrong content type).
func (h *Handlers) readJSON(c *gin.Context, v any) bool {
	if jerr := payload.ReadJSON(c.Writer, c.Request, h.maxPayload(), v); jerr != nil {
		failErr(c, httperr.FromPayload(httperr.FromJSON(jerr)))
		return false
	}
	return true
}

//
// Handlers
//

// CreateIndex godoc
// @ID          createIndex
// @Summary     Create an index
// @Description Registers an indexCreation task. The index exists once the task succeeds; a duplicate uid fails synchronously with 409.
// @Tags        Indexes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateIndexRequest  true  "Index uid and optional primary key"
//
// @Success     202  {object}  handlers.TaskView
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid uid or payload"
// @Failure     409  {object}  handlers.ErrorResponse  "Index already exists"
// @Failure     429  {object}  handlers.ErrorResponse  "Task queue full"
// @Router      /indexes [post]
func (h *Handlers) CreateIndex(c *gin.Context) {
	var req CreateIndexRequest
	if !h.readJSON(c, &req) {
		return
	}

	task, err := h.idxSvc.Create(c.Request.Context(), req.UID, req.PrimaryKey)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, taskView(task))
}

// ListIndexes godoc
// @ID          listIndexes
// @Summary     List indexes (paginated)
// @Description Returns a page of indexes. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Indexes
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListIndexesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /indexes [get]
func (h *Handlers) ListIndexes(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, okSvc := h.idxSvc.(*services.IndexService); okSvc && svc.DB != nil {
		if count, maxTS, err := repo.IndexesStats(ctx, svc.DB); err == nil {
			if notModified(c, "indexes", count, maxTS) {
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.idxSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, ListIndexesResponse{
		Results:    items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetIndex godoc
// @ID          getIndex
// @Summary     Fetch one index
// @Description Returns the index resource, including its primary key once declared or inferred.
// @Tags        Indexes
// @Produce     json
//
// @Param       indexUid  path  string  true  "Index UID"  example(movies)
//
// @Success     200  {object} domain.Index
// @Failure     400  {object} handlers.ErrorResponse "Invalid index uid"
// @Failure     404  {object} handlers.ErrorResponse "Index not found"
// @Router      /indexes/{indexUid} [get]
func (h *Handlers) GetIndex(c *gin.Context) {
	idx, err := h.idxSvc.Get(c.Request.Context(), c.Param("indexUid"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, idx)
}

// UpdateIndex godoc
// @ID          updateIndex
// @Summary     Update an index
// @Description Registers an indexUpdate task that declares the primary key. Fails synchronously with 404 when the index does not exist; the task fails when documents already pin a different key.
// @Tags        Indexes
// @Accept      json
// @Produce     json
//
// @Param       indexUid  path  string                        true  "Index UID"  example(movies)
// @Param       body      body  handlers.UpdateIndexRequest   true  "New primary key"
//
// @Success     202  {object} handlers.TaskView
// @Failure     400  {object} handlers.ErrorResponse "Invalid uid or payload"
// @Failure     404  {object} handlers.ErrorResponse "Index not found"
// @Failure     429  {object} handlers.ErrorResponse "Task queue full"
// @Router      /indexes/{indexUid} [patch]
func (h *Handlers) UpdateIndex(c *gin.Context) {
	var req UpdateIndexRequest
	if !h.readJSON(c, &req) {
		return
	}

	task, err := h.idxSvc.UpdatePrimaryKey(c.Request.Context(), c.Param("indexUid"), req.PrimaryKey)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, taskView(task))
}

// DeleteIndex godoc
// @ID          deleteIndex
// @Summary     Delete an index
// @Description Registers an indexDeletion task that removes the index and all of its documents.
// @Tags        Indexes
// @Produce     json
//
// @Param       indexUid  path  string  true  "Index UID"  example(movies)
//
// @Success     202  {object} handlers.TaskView
// @Failure     400  {object} handlers.ErrorResponse "Invalid index uid"
// @Failure     404  {object} handlers.ErrorResponse "Index not found"
// @Failure     429  {object} handlers.ErrorResponse "Task queue full"
// @Router      /indexes/{indexUid} [delete]
func (h *Handlers) DeleteIndex(c *gin.Context) {
	task, err := h.idxSvc.Delete(c.Request.Context(), c.Param("indexUid"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, taskView(task))
}
