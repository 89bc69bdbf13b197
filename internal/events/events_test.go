package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tbourn/go-index-backend/internal/domain"
)

func TestTaskSubject(t *testing.T) {
	cases := []struct {
		prefix, stage, want string
	}{
		{"indexer", "enqueued", "indexer.tasks.enqueued"},
		{"indexer", "started", "indexer.tasks.started"},
		{"indexer", "finished", "indexer.tasks.finished"},
		{"staging.search", "finished", "staging.search.tasks.finished"},
	}
	for _, tc := range cases {
		if got := TaskSubject(tc.prefix, tc.stage); got != tc.want {
			t.Errorf("TaskSubject(%q, %q) = %q, want %q", tc.prefix, tc.stage, got, tc.want)
		}
	}
}

func TestNewPublisher_RejectsEmptyURL(t *testing.T) {
	if _, err := NewPublisher("", "indexer"); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}

func TestEventFrom_SnapshotsTask(t *testing.T) {
	started := time.Date(2025, 3, 10, 12, 0, 1, 0, time.UTC)
	finished := started.Add(2 * time.Second)
	task := &domain.Task{
		UID:          9,
		IndexUID:     "movies",
		Type:         domain.TaskDocumentAddition,
		Status:       domain.TaskFailed,
		EnqueuedAt:   started.Add(-time.Second),
		StartedAt:    &started,
		FinishedAt:   &finished,
		ErrorCode:    "index_not_found",
		ErrorMessage: "Index `movies` not found.",
	}

	ev := eventFrom("finished", task)
	if ev.Stage != "finished" || ev.TaskUID != 9 || ev.IndexUID != "movies" {
		t.Fatalf("unexpected identity fields: %+v", ev)
	}
	if ev.Type != "documentAddition" || ev.Status != "failed" {
		t.Fatalf("unexpected enum fields: %+v", ev)
	}
	if ev.ErrorCode != "index_not_found" {
		t.Fatalf("error code = %q", ev.ErrorCode)
	}
	if ev.At.IsZero() {
		t.Fatalf("event timestamp not set")
	}

	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["error_message"]; ok {
		t.Fatalf("event must not carry the error message, only the code: %s", body)
	}
	if decoded["stage"] != "finished" || decoded["task_uid"] != float64(9) {
		t.Fatalf("unexpected wire shape: %s", body)
	}
}

func TestEventFrom_OmitsUnsetTimestamps(t *testing.T) {
	ev := eventFrom("enqueued", &domain.Task{
		UID:        1,
		IndexUID:   "movies",
		Type:       domain.TaskIndexCreation,
		Status:     domain.TaskEnqueued,
		EnqueuedAt: time.Now().UTC(),
	})
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"started_at", "finished_at", "error_code"} {
		if _, ok := decoded[key]; ok {
			t.Errorf("key %q should be omitted when unset: %s", key, body)
		}
	}
}
