// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Task model:
// registration, status transitions, filtered listing for the tasks API, and
// retention cleanup.
//
// Status transitions are guarded by the current status in the WHERE clause so
// a task can never move out of a terminal state, even if two goroutines race.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/domain"
)

// TaskFilter narrows ListTasks. Zero values mean "no constraint".
type TaskFilter struct {
	IndexUIDs []string // match any of these index UIDs
	Statuses  []string // match any of these statuses
	Types     []string // match any of these types
	FromUID   *uint64  // start listing at this UID (inclusive), descending
	Limit     int      // max rows returned; <= 0 falls back to 20
}

func applyTaskFilter(q *gorm.DB, f TaskFilter) *gorm.DB {
	if len(f.IndexUIDs) > 0 {
		q = q.Where("index_uid IN ?", f.IndexUIDs)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if f.FromUID != nil {
		q = q.Where("uid <= ?", *f.FromUID)
	}
	return q
}

// CreateTask inserts a new task row. The UID is assigned by the database
// (autoincrement) and written back into t.
func CreateTask(ctx context.Context, db *gorm.DB, t *domain.Task) error {
	return db.WithContext(ctx).Create(t).Error
}

// GetTask fetches a single task by UID, or ErrNotFound if missing.
func GetTask(ctx context.Context, db *gorm.DB, uid uint64) (*domain.Task, error) {
	var t domain.Task
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns tasks matching the filter, newest first (descending UID).
// It returns up to Limit+1 rows so the caller can tell whether another page
// exists and compute the next "from" cursor.
func ListTasks(ctx context.Context, db *gorm.DB, f TaskFilter) ([]domain.Task, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Task
	err := applyTaskFilter(db.WithContext(ctx).Model(&domain.Task{}), f).
		Order("uid desc").
		Limit(limit + 1).
		Find(&out).Error
	return out, err
}

// MarkTaskProcessing transitions an enqueued task to processing and records
// the start time. Returns ErrNotFound if the task is missing or no longer
// enqueued.
func MarkTaskProcessing(ctx context.Context, db *gorm.DB, uid uint64, startedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("uid = ? AND status = ?", uid, domain.TaskEnqueued).
		Updates(map[string]any{
			"status":     domain.TaskProcessing,
			"started_at": startedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TaskDetails carries the per-type progress counters recorded on success.
// Nil fields are left untouched.
type TaskDetails struct {
	ReceivedDocuments *int64
	IndexedDocuments  *int64
	DeletedDocuments  *int64
}

// MarkTaskSucceeded transitions a processing task to succeeded, recording the
// finish time and any progress details. Returns ErrNotFound if the task is
// missing or not processing.
func MarkTaskSucceeded(ctx context.Context, db *gorm.DB, uid uint64, finishedAt time.Time, details TaskDetails) error {
	updates := map[string]any{
		"status":      domain.TaskSucceeded,
		"finished_at": finishedAt,
	}
	if details.ReceivedDocuments != nil {
		updates["received_documents"] = *details.ReceivedDocuments
	}
	if details.IndexedDocuments != nil {
		updates["indexed_documents"] = *details.IndexedDocuments
	}
	if details.DeletedDocuments != nil {
		updates["deleted_documents"] = *details.DeletedDocuments
	}
	res := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("uid = ? AND status = ?", uid, domain.TaskProcessing).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkTaskFailed transitions a processing task to failed, recording the
// finish time and the (code, type, message) error triple. Returns ErrNotFound
// if the task is missing or not processing.
func MarkTaskFailed(ctx context.Context, db *gorm.DB, uid uint64, finishedAt time.Time, code, typ, msg string) error {
	res := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("uid = ? AND status = ?", uid, domain.TaskProcessing).
		Updates(map[string]any{
			"status":        domain.TaskFailed,
			"finished_at":   finishedAt,
			"error_code":    code,
			"error_type":    typ,
			"error_message": msg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PendingTasks returns every task not yet in a terminal state, oldest first,
// for crash recovery at startup. Tasks found in processing state were
// interrupted mid-run; the scheduler re-enqueues them.
func PendingTasks(ctx context.Context, db *gorm.DB) ([]domain.Task, error) {
	var out []domain.Task
	err := db.WithContext(ctx).
		Where("status IN ?", []domain.TaskStatus{domain.TaskEnqueued, domain.TaskProcessing}).
		Order("uid asc").
		Find(&out).Error
	return out, err
}

// ResetTaskEnqueued moves an interrupted processing task back to enqueued so
// recovery can dispatch it again.
func ResetTaskEnqueued(ctx context.Context, db *gorm.DB, uid uint64) error {
	res := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("uid = ? AND status = ?", uid, domain.TaskProcessing).
		Updates(map[string]any{
			"status":     domain.TaskEnqueued,
			"started_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountTasksByStatus returns how many tasks currently hold the given status.
func CountTasksByStatus(ctx context.Context, db *gorm.DB, status domain.TaskStatus) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

// DeleteFinishedTasksBefore removes terminal tasks that finished before the
// cutoff and returns how many rows were deleted. Used by the retention
// sweeper.
func DeleteFinishedTasksBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Unscoped().
		Where("status IN ? AND finished_at < ?", []domain.TaskStatus{domain.TaskSucceeded, domain.TaskFailed}, cutoff).
		Delete(&domain.Task{})
	return res.RowsAffected, res.Error
}

// PendingUpdateFiles returns the blobstore UIDs referenced by tasks that have
// not reached a terminal state. Files on disk outside this set are orphans
// once past a grace period.
func PendingUpdateFiles(ctx context.Context, db *gorm.DB) (map[string]struct{}, error) {
	var uids []string
	err := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("status IN ? AND update_file <> ''", []domain.TaskStatus{domain.TaskEnqueued, domain.TaskProcessing}).
		Pluck("update_file", &uids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(uids))
	for _, u := range uids {
		out[u] = struct{}{}
	}
	return out, nil
}
