package scheduler

import (
	"fmt"
	"regexp"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

// Kind enumerates the failure conditions the scheduler and its executors can
// surface to callers. Each Kind maps to exactly one errcode.Code.
type Kind int

const (
	// KindInternal is the fallback for unexpected executor failures.
	KindInternal Kind = iota
	// KindIndexNotFound: the task references an index that does not exist.
	KindIndexNotFound
	// KindIndexAlreadyExists: index creation hit an existing UID.
	KindIndexAlreadyExists
	// KindInvalidIndexUID: the index UID violates the allowed format.
	KindInvalidIndexUID
	// KindTaskNotFound: the referenced task UID was never registered.
	KindTaskNotFound
	// KindQueueFull: the task queue is at capacity and rejected the task.
	KindQueueFull
	// KindCorruptedUpdate: a spooled update payload could not be read back.
	KindCorruptedUpdate
)

// Error is the scheduler's error type. It records which entity the failure is
// about so messages can name it, and implements errcode.Coder so transports
// derive status and code without inspecting Kind themselves.
type Error struct {
	Kind     Kind
	IndexUID string
	TaskUID  uint64
	err      error
}

// NewIndexNotFound reports that indexUID does not exist.
func NewIndexNotFound(indexUID string) *Error {
	return &Error{Kind: KindIndexNotFound, IndexUID: indexUID}
}

// NewIndexAlreadyExists reports a creation conflict on indexUID.
func NewIndexAlreadyExists(indexUID string) *Error {
	return &Error{Kind: KindIndexAlreadyExists, IndexUID: indexUID}
}

// NewInvalidIndexUID reports that indexUID is not a well-formed index UID.
func NewInvalidIndexUID(indexUID string) *Error {
	return &Error{Kind: KindInvalidIndexUID, IndexUID: indexUID}
}

// NewTaskNotFound reports that taskUID does not exist.
func NewTaskNotFound(taskUID uint64) *Error {
	return &Error{Kind: KindTaskNotFound, TaskUID: taskUID}
}

// NewQueueFull reports that the queue rejected a new task for indexUID.
func NewQueueFull(indexUID string) *Error {
	return &Error{Kind: KindQueueFull, IndexUID: indexUID}
}

// NewCorruptedUpdate wraps a read-back failure on a spooled update file.
func NewCorruptedUpdate(indexUID string, err error) *Error {
	return &Error{Kind: KindCorruptedUpdate, IndexUID: indexUID, err: err}
}

// Wrap attaches an underlying cause to an otherwise internal scheduler error.
func Wrap(indexUID string, err error) *Error {
	return &Error{Kind: KindInternal, IndexUID: indexUID, err: err}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIndexNotFound:
		return fmt.Sprintf("Index `%s` not found.", e.IndexUID)
	case KindIndexAlreadyExists:
		return fmt.Sprintf("Index `%s` already exists.", e.IndexUID)
	case KindInvalidIndexUID:
		return fmt.Sprintf("`%s` is not a valid index uid. Index uid can be an "+
			"integer or a string containing only alphanumeric characters, "+
			"hyphens (-) and underscores (_).", e.IndexUID)
	case KindTaskNotFound:
		return fmt.Sprintf("Task `%d` not found.", e.TaskUID)
	case KindQueueFull:
		return "The task queue is full. Retry the request once pending tasks have been processed."
	case KindCorruptedUpdate:
		return fmt.Sprintf("The update payload for index `%s` could not be read back: %v.", e.IndexUID, e.err)
	default:
		if e.err != nil {
			return e.err.Error()
		}
		return "An internal error has occurred."
	}
}

// Unwrap exposes the underlying cause, when one was recorded.
func (e *Error) Unwrap() error { return e.err }

// ErrorCode implements errcode.Coder.
func (e *Error) ErrorCode() errcode.Code {
	switch e.Kind {
	case KindIndexNotFound:
		return errcode.IndexNotFound
	case KindIndexAlreadyExists:
		return errcode.IndexAlreadyExists
	case KindInvalidIndexUID:
		return errcode.InvalidIndexUID
	case KindTaskNotFound:
		return errcode.TaskNotFound
	case KindQueueFull:
		return errcode.TaskQueueFull
	default:
		return errcode.Internal
	}
}

// indexUIDRE is the allowed shape of an index UID: alphanumerics, hyphens and
// underscores, 1 to 400 bytes. Same alphabet as document IDs, longer cap.
var indexUIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,400}$`)

// ValidateIndexUID returns nil when uid is acceptable as an index UID, or an
// *Error carrying KindInvalidIndexUID otherwise.
func ValidateIndexUID(uid string) error {
	if indexUIDRE.MatchString(uid) {
		return nil
	}
	return NewInvalidIndexUID(uid)
}
