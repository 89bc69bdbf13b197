// Package domain defines the persistence models for indexes, documents, and
// ingestion tasks. These types are mapped with GORM and form the core data
// layer of the indexing backend.
package domain

import (
	"time"
)

// Index represents a named collection of documents. The UID is chosen by the
// client at creation time and doubles as the primary key; the primary-key
// field name for documents is either declared explicitly or inferred from the
// first batch of documents added.
//
// Fields:
//   - UID: client-chosen identifier, restricted to [a-zA-Z0-9_-].
//   - PrimaryKey: name of the document field holding document ids; nil until
//     declared or inferred.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Index struct {
	UID        string    `json:"uid"         gorm:"type:varchar(400);primaryKey"`
	PrimaryKey *string   `json:"primary_key" gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Index.
func (Index) TableName() string { return "indexes" }

// Document is a single stored document within an index. The raw JSON object
// is kept verbatim in Fields so retrieval returns exactly what was ingested;
// the (IndexUID, DocID) pair is the composite primary key.
//
// Fields:
//   - IndexUID: owning index (cascade-deleted with it).
//   - DocID: the document's primary-key value rendered as a string.
//   - Fields: the full document as compact JSON.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Document struct {
	IndexUID  string    `json:"index_uid" gorm:"type:varchar(400);primaryKey;index:idx_index_docs,priority:1"`
	DocID     string    `json:"id"        gorm:"type:varchar(511);primaryKey"`
	Fields    string    `json:"-"         gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_index_docs,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	Index Index `json:"-" gorm:"foreignKey:IndexUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// TaskType identifies the kind of work a task performs.
type TaskType string

// Task types, one per mutating API operation.
const (
	TaskIndexCreation    TaskType = "indexCreation"
	TaskIndexUpdate      TaskType = "indexUpdate"
	TaskIndexDeletion    TaskType = "indexDeletion"
	TaskDocumentAddition TaskType = "documentAddition" // add or fully replace
	TaskDocumentUpdate   TaskType = "documentUpdate"   // add or merge fields
	TaskDocumentDeletion TaskType = "documentDeletion"
)

// TaskTypes lists every valid task type, in a stable order, for query-string
// filter validation.
func TaskTypes() []string {
	return []string{
		string(TaskIndexCreation),
		string(TaskIndexUpdate),
		string(TaskIndexDeletion),
		string(TaskDocumentAddition),
		string(TaskDocumentUpdate),
		string(TaskDocumentDeletion),
	}
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses. A task moves enqueued -> processing -> succeeded|failed and
// never leaves a terminal state.
const (
	TaskEnqueued   TaskStatus = "enqueued"
	TaskProcessing TaskStatus = "processing"
	TaskSucceeded  TaskStatus = "succeeded"
	TaskFailed     TaskStatus = "failed"
)

// TaskStatuses lists every valid status, in lifecycle order, for query-string
// filter validation.
func TaskStatuses() []string {
	return []string{
		string(TaskEnqueued),
		string(TaskProcessing),
		string(TaskSucceeded),
		string(TaskFailed),
	}
}

// Task records one unit of asynchronous work registered by the API. Tasks are
// identified by a monotonically increasing UID so clients can poll "from" a
// known position.
//
// Document payload tasks reference a spooled update file (see the blobstore
// package) holding the normalized payload; the file is removed once the task
// reaches a terminal state.
//
// Failure details are recorded as a (code, type, message) triple mirroring
// the API's error envelope, so a task's error renders exactly like the
// synchronous error would have.
type Task struct {
	UID      uint64     `json:"uid"        gorm:"primaryKey;autoIncrement"`
	IndexUID string     `json:"index_uid"  gorm:"type:varchar(400);not null;index:idx_index_tasks,priority:1"`
	Type     TaskType   `json:"type"       gorm:"type:varchar(32);not null;index"`
	Status   TaskStatus `json:"status"     gorm:"type:varchar(16);not null;index"`

	// PrimaryKey carries the declared primary key for index creation/update
	// and document addition tasks.
	PrimaryKey *string `json:"primary_key,omitempty" gorm:"type:varchar(255)"`

	// UpdateFile is the blobstore UID of the spooled payload, empty for tasks
	// without a payload.
	UpdateFile string `json:"-" gorm:"type:char(36)"`

	// Per-type progress details; only the fields relevant to the task type
	// are set.
	ReceivedDocuments *int64 `json:"received_documents,omitempty"`
	IndexedDocuments  *int64 `json:"indexed_documents,omitempty"`
	DeletedDocuments  *int64 `json:"deleted_documents,omitempty"`

	// Recorded failure, set only when Status is failed.
	ErrorCode    string `json:"-" gorm:"type:varchar(64)"`
	ErrorType    string `json:"-" gorm:"type:varchar(32)"`
	ErrorMessage string `json:"-" gorm:"type:text"`

	EnqueuedAt time.Time  `json:"enqueued_at" gorm:"not null;index"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty" gorm:"index"`
}

// TableName returns the database table name for Task.
func (Task) TableName() string { return "tasks" }

// Finished reports whether the task reached a terminal state.
func (t *Task) Finished() bool {
	return t.Status == TaskSucceeded || t.Status == TaskFailed
}
