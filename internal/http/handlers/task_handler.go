// Task HTTP handlers.
//
// This file exposes REST endpoints for task resources:
//   - GET /tasks            (filtered list with a keyset cursor)
//   - GET /tasks/{taskUid}  (fetch one)
//
// Tasks are the polling surface for every mutation: each registering route
// answers 202 with a TaskView, and clients follow up here until the task
// reaches a terminal state. A failed task renders the same {code, type,
// message} triple the synchronous error path would have produced.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/domain"
	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/httperr"
	"github.com/tbourn/go-index-backend/internal/payload"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
)

//
// Task views
//

// TaskError is the failure recorded on a task, mirroring ErrorResponse.
type TaskError struct {
	Code    string `json:"code" example:"index_not_found"`
	Type    string `json:"type" example:"invalid_request"`
	Message string `json:"message" example:"Index movies not found."`
}

// TaskDetails carries per-type progress counters; only the fields relevant
// to the task type are present.
type TaskDetails struct {
	PrimaryKey        *string `json:"primary_key,omitempty" example:"movie_id"`
	ReceivedDocuments *int64  `json:"received_documents,omitempty" example:"1000"`
	IndexedDocuments  *int64  `json:"indexed_documents,omitempty" example:"998"`
	DeletedDocuments  *int64  `json:"deleted_documents,omitempty" example:"2"`
}

// TaskView is the wire representation of a task.
type TaskView struct {
	UID        uint64       `json:"uid" example:"7"`
	IndexUID   string       `json:"index_uid" example:"movies"`
	Type       string       `json:"type" example:"documentAddition"`
	Status     string       `json:"status" example:"enqueued"`
	Details    *TaskDetails `json:"details,omitempty"`
	Error      *TaskError   `json:"error,omitempty"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// ListTasksResponse wraps a filtered task page. Next, when set, is the `from`
// value of the following page; its absence means the listing is exhausted.
type ListTasksResponse struct {
	Results []TaskView `json:"results"`
	Limit   int        `json:"limit"`
	From    *uint64    `json:"from,omitempty"`
	Next    *uint64    `json:"next,omitempty"`
}

// taskView converts a persisted task into its wire form, nesting details and
// the recorded failure.
func taskView(t *domain.Task) TaskView {
	v := TaskView{
		UID:        t.UID,
		IndexUID:   t.IndexUID,
		Type:       string(t.Type),
		Status:     string(t.Status),
		EnqueuedAt: t.EnqueuedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
	}
	if t.PrimaryKey != nil || t.ReceivedDocuments != nil || t.IndexedDocuments != nil || t.DeletedDocuments != nil {
		v.Details = &TaskDetails{
			PrimaryKey:        t.PrimaryKey,
			ReceivedDocuments: t.ReceivedDocuments,
			IndexedDocuments:  t.IndexedDocuments,
			DeletedDocuments:  t.DeletedDocuments,
		}
	}
	if t.Status == domain.TaskFailed && t.ErrorCode != "" {
		v.Error = &TaskError{Code: t.ErrorCode, Type: t.ErrorType, Message: t.ErrorMessage}
	}
	return v
}

// taskViews converts a slice of tasks, always returning a non-nil slice.
func taskViews(tasks []domain.Task) []TaskView {
	out := make([]TaskView, len(tasks))
	for i := range tasks {
		out[i] = taskView(&tasks[i])
	}
	return out
}

//
// Handlers
//

// ListTasks godoc
// @ID          listTasks
// @Summary     List tasks (filtered)
// @Description Returns tasks in descending uid order. Filters combine with AND; unknown filter values fail the request. Follow next as the from value of the next page.
// @Tags        Tasks
// @Produce     json
//
// @Param       status    query  string  false "Statuses (csv of enqueued,processing,succeeded,failed)"  example(succeeded,failed)
// @Param       type      query  string  false "Types (csv of indexCreation,indexUpdate,indexDeletion,documentAddition,documentUpdate,documentDeletion)"  example(documentAddition)
// @Param       indexUid  query  string  false "Index UIDs (csv)"  example(movies,books)
// @Param       from      query  int     false "Highest task uid to start from (keyset cursor)"  minimum(0)
// @Param       limit     query  int     false "Maximum number of tasks returned"  minimum(1) default(20)
//
// @Success     200  {object} handlers.ListTasksResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid filter value"
// @Router      /tasks [get]
func (h *Handlers) ListTasks(c *gin.Context) {
	values := c.Request.URL.Query()

	statuses, qerr := payload.QueryEnumCSV(values, "status", domain.TaskStatuses())
	if qerr != nil {
		failErr(c, httperr.FromPayload(httperr.FromQuery(qerr)))
		return
	}
	types, qerr := payload.QueryEnumCSV(values, "type", domain.TaskTypes())
	if qerr != nil {
		failErr(c, httperr.FromPayload(httperr.FromQuery(qerr)))
		return
	}
	indexUIDs := payload.QueryCSV(values, "indexUid")
	for _, uid := range indexUIDs {
		if err := scheduler.ValidateIndexUID(uid); err != nil {
			failErr(c, err)
			return
		}
	}

	limit, qerr := payload.QueryInt(values, "limit", 20)
	if qerr != nil {
		failErr(c, httperr.FromPayload(httperr.FromQuery(qerr)))
		return
	}
	if limit < 1 {
		limit = 20
	}

	var from *uint64
	if values.Get("from") != "" {
		v, qerr := payload.QueryUint64(values, "from", 0)
		if qerr != nil {
			failErr(c, httperr.FromPayload(httperr.FromQuery(qerr)))
			return
		}
		from = &v
	}

	tasks, next, err := h.taskSvc.List(c.Request.Context(), repo.TaskFilter{
		IndexUIDs: indexUIDs,
		Statuses:  statuses,
		Types:     types,
		FromUID:   from,
		Limit:     limit,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, ListTasksResponse{
		Results: taskViews(tasks),
		Limit:   limit,
		From:    from,
		Next:    next,
	})
}

// GetTask godoc
// @ID          getTask
// @Summary     Fetch one task
// @Description Returns a task, including details and the recorded error for failed tasks.
// @Tags        Tasks
// @Produce     json
//
// @Param       taskUid  path  int  true  "Task UID"  example(7)
//
// @Success     200  {object} handlers.TaskView
// @Failure     400  {object} handlers.ErrorResponse "Task uid is not an integer"
// @Failure     404  {object} handlers.ErrorResponse "Task not found"
// @Router      /tasks/{taskUid} [get]
func (h *Handlers) GetTask(c *gin.Context) {
	raw := c.Param("taskUid")
	uid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		fail(c, errcode.BadRequest,
			fmt.Sprintf("The task uid `%s` is invalid. Task uids are non-negative integers.", raw))
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, taskView(task))
}
