package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/docformat"
	"github.com/tbourn/go-index-backend/internal/http/middleware"
	"github.com/tbourn/go-index-backend/internal/httperr"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/services"
)

// serveErr routes err through failErr and decodes the envelope.
func serveErr(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/x", func(c *gin.Context) { failErr(c, err) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	var resp ErrorResponse
	if jerr := json.Unmarshal(w.Body.Bytes(), &resp); jerr != nil {
		t.Fatalf("invalid envelope: %v (body %q)", jerr, w.Body.String())
	}
	return w.Code, resp
}

func TestFailErr_ClassifiedLeaves(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantType   string
	}{
		{
			name:       "scheduler index not found",
			err:        scheduler.NewIndexNotFound("movies"),
			wantStatus: http.StatusNotFound,
			wantCode:   "index_not_found",
			wantType:   "invalid_request",
		},
		{
			name:       "scheduler duplicate index",
			err:        scheduler.NewIndexAlreadyExists("movies"),
			wantStatus: http.StatusConflict,
			wantCode:   "index_already_exists",
			wantType:   "invalid_request",
		},
		{
			name:       "scheduler queue full",
			err:        scheduler.NewQueueFull("movies"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "task_queue_full",
			wantType:   "system",
		},
		{
			name:       "ingest invalid document id",
			err:        services.NewInvalidDocumentID("a b"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_document_id",
			wantType:   "invalid_request",
		},
		{
			name:       "document not found",
			err:        &services.DocumentNotFoundError{IndexUID: "movies", DocID: "42"},
			wantStatus: http.StatusNotFound,
			wantCode:   "document_not_found",
			wantType:   "invalid_request",
		},
		{
			name:       "missing content type",
			err:        httperr.NewMissingContentType(docformat.AcceptedContentTypes()),
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "missing_content_type",
			wantType:   "invalid_request",
		},
		{
			name:       "missing payload",
			err:        httperr.FromPayload(httperr.NewMissingPayload()),
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_payload",
			wantType:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := serveErr(t, tt.err)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if resp.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Type != tt.wantType {
				t.Fatalf("type = %q, want %q", resp.Type, tt.wantType)
			}
			if resp.Message == "" || resp.Message == internalMessage {
				t.Fatalf("client error should keep its diagnostic, got %q", resp.Message)
			}
			if resp.RequestID == "" {
				t.Fatalf("expected request_id in envelope")
			}
		})
	}
}

func TestFailErr_ClientMessageSurvivesVerbatim(t *testing.T) {
	_, resp := serveErr(t, scheduler.NewIndexNotFound("movies"))
	if resp.Message != "Index `movies` not found." {
		t.Fatalf("message = %q", resp.Message)
	}

	_, resp = serveErr(t, httperr.NewInvalidContentType("text/plain", docformat.AcceptedContentTypes()))
	want := "The Content-Type `text/plain` is invalid. Accepted values for the Content-Type header are: " +
		"`application/json`, `application/x-ndjson`, `text/csv`"
	if resp.Message != want {
		t.Fatalf("message = %q, want %q", resp.Message, want)
	}
}

func TestFailErr_ServerErrorsAreGeneric(t *testing.T) {
	// A spool failure is classified (Internal) but its diagnostic must not
	// reach the body.
	status, resp := serveErr(t, httperr.NewStore(errors.New("disk on fire: /var/spool/x")))
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if resp.Code != "internal" || resp.Message != internalMessage {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestFailErr_UnclassifiedAndContext(t *testing.T) {
	status, resp := serveErr(t, errors.New("plain failure"))
	if status != http.StatusInternalServerError || resp.Code != "internal" {
		t.Fatalf("unclassified: %d %+v", status, resp)
	}

	status, resp = serveErr(t, context.Canceled)
	if status != http.StatusInternalServerError || resp.Message != internalMessage {
		t.Fatalf("context: %d %+v", status, resp)
	}
}
