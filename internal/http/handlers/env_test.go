package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/http/middleware"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/search"
	"github.com/tbourn/go-index-backend/internal/services"
	"github.com/tbourn/go-index-backend/internal/worker"
)

// apiEnv mounts the handlers on a gin engine backed by real services, a temp
// database and a running scheduler, so tests exercise the full request path
// from transport decoding down to task execution.
type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	h      *Handlers
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("api_test_%d.db", time.Now().UnixNano()))
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
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	store, err := blobstore.New(filepath.Join(t.TempDir(), "updates"))
	if err != nil {
		t.Fatalf("blobstore: %v", err)
	}
	reg := search.NewRegistry()
	exec := &services.TaskExecutor{DB: db, Store: store, Search: reg}
	queue := scheduler.New(db, exec, store, scheduler.Options{Workers: 2, QueueSize: 64})
	queue.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = queue.Stop(ctx)
	})

	h := New(
		&services.IndexService{DB: db, Queue: queue},
		&services.DocumentService{DB: db, Queue: queue, Store: store, Pool: worker.NewPool(2)},
		&services.TaskService{DB: db},
		&services.SearchService{DB: db, Registry: reg},
	)

	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, indexUID, key string, now time.Time) (uint64, bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, indexUID, key, now)
			if err != nil {
				return 0, false, err
			}
			return rec.TaskUID, true, nil
		})

	r := gin.New()
	r.Use(middleware.RequestID())

	r.POST("/indexes", h.CreateIndex)
	r.GET("/indexes", h.ListIndexes)
	r.GET("/indexes/:indexUid", h.GetIndex)
	r.PATCH("/indexes/:indexUid", h.UpdateIndex)
	r.DELETE("/indexes/:indexUid", h.DeleteIndex)

	r.POST("/indexes/:indexUid/documents", idem, h.AddDocuments)
	r.PUT("/indexes/:indexUid/documents", idem, h.UpdateDocuments)
	r.GET("/indexes/:indexUid/documents", h.ListDocuments)
	r.GET("/indexes/:indexUid/documents/:docId", h.GetDocument)
	r.DELETE("/indexes/:indexUid/documents", h.DeleteDocuments)

	r.GET("/indexes/:indexUid/search", h.SearchDocuments)
	r.GET("/tasks", h.ListTasks)
	r.GET("/tasks/:taskUid", h.GetTask)

	return &apiEnv{db: db, router: r, h: h}
}

// do performs a request against the mounted router.
func (e *apiEnv) do(method, path, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeTask parses a 202 body into its TaskView.
func decodeTask(t *testing.T, w *httptest.ResponseRecorder) TaskView {
	t.Helper()
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", w.Code, w.Body.String())
	}
	var v TaskView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode task view: %v (body %s)", err, w.Body.String())
	}
	return v
}

// decodeError parses an error envelope.
func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, w.Body.String())
	}
	return resp
}

// waitFinished polls until the task reaches a terminal state.
func (e *apiEnv) waitFinished(t *testing.T, uid uint64) *domain.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := repo.GetTask(context.Background(), e.db, uid)
		if err == nil && task.Finished() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %d did not finish within 2s", uid)
	return nil
}

// seedIndex creates an index through the API and waits for the task.
func (e *apiEnv) seedIndex(t *testing.T, uid string, primaryKey *string) {
	t.Helper()
	body := fmt.Sprintf(`{"uid":%q}`, uid)
	if primaryKey != nil {
		body = fmt.Sprintf(`{"uid":%q,"primaryKey":%q}`, uid, *primaryKey)
	}
	w := e.do(http.MethodPost, "/indexes", "application/json", body)
	v := decodeTask(t, w)
	done := e.waitFinished(t, v.UID)
	if done.Status != domain.TaskSucceeded {
		t.Fatalf("seed index %s: task %s (%s)", uid, done.Status, done.ErrorMessage)
	}
}

// seedDocuments uploads a JSON batch and waits for the task.
func (e *apiEnv) seedDocuments(t *testing.T, indexUID, body string) TaskView {
	t.Helper()
	w := e.do(http.MethodPost, "/indexes/"+indexUID+"/documents", "application/json", body)
	v := decodeTask(t, w)
	done := e.waitFinished(t, v.UID)
	if done.Status != domain.TaskSucceeded {
		t.Fatalf("seed documents into %s: task %s (%s)", indexUID, done.Status, done.ErrorMessage)
	}
	return v
}
