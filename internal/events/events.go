// Package events publishes task lifecycle notifications over NATS.
//
// Publishing is fire and forget: a failed publish is logged and dropped, it
// never fails a request or blocks task execution. Consumers that need a
// complete task history should read the tasks API; the event stream exists
// for cache invalidation, dashboards and similar soft consumers.
//
// Subjects are <prefix>.tasks.<stage>, e.g. "indexer.tasks.finished", so a
// subscriber can pick one stage or wildcard the whole lifecycle.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-index-backend/internal/domain"
)

// TaskEvent is the JSON body published for every lifecycle stage.
type TaskEvent struct {
	Stage      string     `json:"stage"`
	TaskUID    uint64     `json:"task_uid"`
	IndexUID   string     `json:"index_uid"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ErrorCode  string     `json:"error_code,omitempty"`
	At         time.Time  `json:"at"`
}

// TaskSubject returns the NATS subject for a lifecycle stage. Exported so
// subscribers build the same subjects without copying the format.
func TaskSubject(prefix, stage string) string {
	return prefix + ".tasks." + stage
}

// Publisher forwards task lifecycle stages to NATS. It implements
// scheduler.Notifier.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

// NewPublisher connects to the NATS server at url. The prefix defaults to
// "indexer" when blank.
func NewPublisher(url, prefix string) (*Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("events: NATS URL must not be empty")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "indexer"
	}
	conn, err := nats.Connect(url, nats.Name("go-index-backend"))
	if err != nil {
		return nil, fmt.Errorf("events: connect to NATS at %s: %w", url, err)
	}
	return &Publisher{
		conn:   conn,
		prefix: prefix,
		log:    log.With().Str("component", "events").Logger(),
	}, nil
}

// NotifyTask publishes one lifecycle stage for t. Failures are logged, never
// returned: the task pipeline must not depend on the event bus being up.
func (p *Publisher) NotifyTask(stage string, t *domain.Task) {
	body, err := json.Marshal(eventFrom(stage, t))
	if err != nil {
		p.log.Error().Err(err).Uint64("task_uid", t.UID).Msg("marshal task event")
		return
	}
	subject := TaskSubject(p.prefix, stage)
	if err := p.conn.Publish(subject, body); err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Uint64("task_uid", t.UID).Msg("publish task event")
	}
}

// Close flushes buffered messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// eventFrom snapshots the fields of t that consumers may act on.
func eventFrom(stage string, t *domain.Task) TaskEvent {
	return TaskEvent{
		Stage:      stage,
		TaskUID:    t.UID,
		IndexUID:   t.IndexUID,
		Type:       string(t.Type),
		Status:     string(t.Status),
		EnqueuedAt: t.EnqueuedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		ErrorCode:  t.ErrorCode,
		At:         time.Now().UTC(),
	}
}
