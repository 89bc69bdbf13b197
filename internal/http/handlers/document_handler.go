// Document HTTP handlers.
//
// This file exposes REST endpoints for document resources:
//   - POST   /indexes/{indexUid}/documents          (add or replace, 202)
//   - PUT    /indexes/{indexUid}/documents          (add or update, 202)
//   - GET    /indexes/{indexUid}/documents          (list, paginated)
//   - GET    /indexes/{indexUid}/documents/{docId}  (fetch one)
//   - DELETE /indexes/{indexUid}/documents          (delete by ids, 202)
//
// The upload routes negotiate the payload format from the Content-Type header
// (application/json, application/x-ndjson, text/csv) and stream the body
// through the payload pipeline: transport failures, oversize bodies, and
// parse failures each keep their own error code. Accepted payloads become
// tasks; nothing is indexed synchronously.
//
// When a request carries an Idempotency-Key that matches a previous
// registration for the same index, the original task is served again instead
// of enqueueing a duplicate batch.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/docformat"
	"github.com/tbourn/go-index-backend/internal/http/middleware"
	"github.com/tbourn/go-index-backend/internal/httperr"
	"github.com/tbourn/go-index-backend/internal/payload"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/services"
)

// ListDocumentsResponse wraps a page of documents and pagination information.
// Each result is the original JSON object that was ingested.
type ListDocumentsResponse struct {
	Results    []map[string]any `json:"results"`
	Pagination Pagination       `json:"pagination"`
}

// negotiateFormat resolves the payload format from the Content-Type header.
// A missing header and an unsupported media type are distinct errors, each
// listing the accepted types.
func negotiateFormat(c *gin.Context) (docformat.PayloadType, bool) {
	header := c.GetHeader("Content-Type")
	if strings.TrimSpace(header) == "" {
		failErr(c, httperr.NewMissingContentType(docformat.AcceptedContentTypes()))
		return 0, false
	}
	format, okFmt := docformat.FromContentType(payload.MediaType(header))
	if !okFmt {
		failErr(c, httperr.NewInvalidContentType(payload.MediaType(header), docformat.AcceptedContentTypes()))
		return 0, false
	}
	return format, true
}

// serveReplay answers with the previously registered task when the
// idempotency middleware matched one. Returns true when the response was
// written. A stored uid whose task has since been swept falls through to a
// fresh registration.
func (h *Handlers) serveReplay(c *gin.Context) bool {
	uid, replay := middleware.ReplayTaskUID(c)
	if !replay {
		return false
	}
	task, err := h.taskSvc.Get(c.Request.Context(), uid)
	if err != nil {
		return false
	}
	ok(c, http.StatusAccepted, taskView(task))
	return true
}

// rememberIdempotency records (index, key) -> task after a successful
// registration so retries replay it. Best effort: a write failure only costs
// the replay, never the request.
func (h *Handlers) rememberIdempotency(c *gin.Context, indexUID string, taskUID uint64) {
	key, okKey := middleware.GetIdempotencyKey(c)
	if !okKey {
		return
	}
	svc, okSvc := h.docSvc.(*services.DocumentService)
	if !okSvc || svc.DB == nil {
		return
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), svc.DB, indexUID, key,
		taskUID, http.StatusAccepted, h.idemTTL()); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not saved")
	}
}

// enqueueDocuments implements the shared body of the POST and PUT routes.
func (h *Handlers) enqueueDocuments(c *gin.Context, replace bool) {
	if h.serveReplay(c) {
		return
	}

	format, okFmt := negotiateFormat(c)
	if !okFmt {
		return
	}

	data, berr := payload.ReadBody(c.Writer, c.Request, h.maxPayload())
	if berr != nil {
		failErr(c, httperr.FromPayload(httperr.FromBody(berr)))
		return
	}
	if len(data) == 0 {
		failErr(c, httperr.FromPayload(httperr.NewMissingPayload()))
		return
	}

	var primaryKey *string
	if v := c.Query("primaryKey"); v != "" {
		primaryKey = &v
	}

	indexUID := c.Param("indexUid")
	task, err := h.docSvc.EnqueueDocuments(c.Request.Context(), indexUID, format, data, primaryKey, replace)
	if err != nil {
		failErr(c, err)
		return
	}
	h.rememberIdempotency(c, indexUID, task.UID)
	ok(c, http.StatusAccepted, taskView(task))
}

// AddDocuments godoc
// @ID          addDocuments
// @Summary     Add or replace documents
// @Description Registers a documentAddition task. Existing documents with the same id are fully replaced. The index is created on first addition; its primary key is taken from the primaryKey query parameter or inferred from the first document.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       indexUid         path    string  true   "Index UID"  example(movies)
// @Param       primaryKey       query   string  false  "Primary-key field for a new index"  example(movie_id)
// @Param       Idempotency-Key  header  string  false  "Replay token for safe retries"
// @Param       body             body    []map[string]any  true  "Document batch (json, ndjson or csv per Content-Type)"
//
// @Success     202  {object} handlers.TaskView
// @Failure     400  {object} handlers.ErrorResponse "Missing or malformed payload"
// @Failure     413  {object} handlers.ErrorResponse "Payload too large"
// @Failure     415  {object} handlers.ErrorResponse "Missing or invalid Content-Type"
// @Failure     429  {object} handlers.ErrorResponse "Task queue full"
// @Router      /indexes/{indexUid}/documents [post]
func (h *Handlers) AddDocuments(c *gin.Context) {
	h.enqueueDocuments(c, true)
}

// UpdateDocuments godoc
// @ID          updateDocuments
// @Summary     Add or update documents
// @Description Registers a documentUpdate task. Existing documents with the same id keep their other fields; uploaded fields are merged over them.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       indexUid         path    string  true   "Index UID"  example(movies)
// @Param       primaryKey       query   string  false  "Primary-key field for a new index"  example(movie_id)
// @Param       Idempotency-Key  header  string  false  "Replay token for safe retries"
// @Param       body             body    []map[string]any  true  "Document batch (json, ndjson or csv per Content-Type)"
//
// @Success     202  {object} handlers.TaskView
// @Failure     400  {object} handlers.ErrorResponse "Missing or malformed payload"
// @Failure     413  {object} handlers.ErrorResponse "Payload too large"
// @Failure     415  {object} handlers.ErrorResponse "Missing or invalid Content-Type"
// @Failure     429  {object} handlers.ErrorResponse "Task queue full"
// @Router      /indexes/{indexUid}/documents [put]
func (h *Handlers) UpdateDocuments(c *gin.Context) {
	h.enqueueDocuments(c, false)
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List documents (paginated)
// @Description Returns a page of documents ordered by document id. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Documents
// @Produce     json
//
// @Param       indexUid       path    string  true  "Index UID"  example(movies)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDocumentsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid index uid"
// @Failure     404  {object} handlers.ErrorResponse "Index not found"
// @Router      /indexes/{indexUid}/documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	indexUID := c.Param("indexUid")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Gated on count so a request for a
	// missing index still reaches the service and 404s.
	if svc, okSvc := h.docSvc.(*services.DocumentService); okSvc && svc.DB != nil {
		if count, maxTS, err := repo.DocumentsStats(ctx, svc.DB, indexUID); err == nil && count > 0 {
			if notModified(c, "documents:"+indexUID, count, maxTS) {
				return
			}
		}
	}

	items, total, err := h.docSvc.ListPage(ctx, indexUID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, ListDocumentsResponse{
		Results:    items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetDocument godoc
// @ID          getDocument
// @Summary     Fetch one document
// @Description Returns the original JSON object stored under the given document id.
// @Tags        Documents
// @Produce     json
//
// @Param       indexUid  path  string  true  "Index UID"    example(movies)
// @Param       docId     path  string  true  "Document id"  example(25684)
//
// @Success     200  {object} map[string]any
// @Failure     400  {object} handlers.ErrorResponse "Invalid document id"
// @Failure     404  {object} handlers.ErrorResponse "Index or document not found"
// @Router      /indexes/{indexUid}/documents/{docId} [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	docID := c.Param("docId")
	if err := services.ValidateDocumentID(docID); err != nil {
		failErr(c, err)
		return
	}

	doc, err := h.docSvc.Get(c.Request.Context(), c.Param("indexUid"), docID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// DeleteDocuments godoc
// @ID          deleteDocuments
// @Summary     Delete documents by id
// @Description Registers a documentDeletion task for the given ids. Unknown ids are skipped; the task records how many documents were actually deleted.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       indexUid  path  string   true  "Index UID"  example(movies)
// @Param       body      body  []string true  "Document ids (strings or integers)"
//
// @Success     202  {object} handlers.TaskView
// @Failure     400  {object} handlers.ErrorResponse "Missing payload or invalid id"
// @Failure     429  {object} handlers.ErrorResponse "Task queue full"
// @Router      /indexes/{indexUid}/documents [delete]
func (h *Handlers) DeleteDocuments(c *gin.Context) {
	var ids []any
	if !h.readJSON(c, &ids) {
		return
	}

	task, err := h.docSvc.DeleteDocuments(c.Request.Context(), c.Param("indexUid"), ids)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, taskView(task))
}
