// Package events publishes pass lifecycle events to NATS for downstream
// automation. Publishing is optional and every failure degrades to a
// warning; a pass never depends on the broker being reachable.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
)

// Subject suffixes under the configured prefix.
const (
	SubjectPassCompleted = "pass.completed"
	SubjectDanglingLink  = "link.dangling"
)

// PassCompletedEvent announces a finished pass.
type PassCompletedEvent struct {
	BuildID        string    `json:"build_id"`
	Outcome        string    `json:"outcome"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Documents      int       `json:"documents"`
	Tagged         int       `json:"tagged"`
	Tags           int       `json:"tags"`
	PagesWritten   int       `json:"pages_written"`
	PagesUnchanged int       `json:"pages_unchanged"`
	Issues         int       `json:"issues"`
	Timestamp      time.Time `json:"timestamp"`
}

// DanglingLinkEvent reports one link integrity finding.
type DanglingLinkEvent struct {
	BuildID   string    `json:"build_id"`
	Code      string    `json:"code"`
	Page      string    `json:"page"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes events on subjects under a common prefix.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect establishes the NATS connection.
func Connect(url, subjectPrefix string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("tagindex"))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryEvents, errors.SeverityWarning, "nats connect failed").
			WithContext("url", url)
	}
	slog.Info("Connected to NATS", logfields.URL(url), logfields.Subject(subjectPrefix))
	return &Publisher{conn: conn, prefix: subjectPrefix}, nil
}

// PublishPassCompleted publishes a pass summary event.
func (p *Publisher) PublishPassCompleted(ev PassCompletedEvent) error {
	ev.Timestamp = time.Now()
	return p.publish(p.Subject(SubjectPassCompleted), ev)
}

// PublishDanglingLink publishes one link finding event.
func (p *Publisher) PublishDanglingLink(ev DanglingLinkEvent) error {
	ev.Timestamp = time.Now()
	return p.publish(p.Subject(SubjectDanglingLink), ev)
}

// Subject returns the full subject for a suffix.
func (p *Publisher) Subject(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "." + suffix
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.EventPublishError(subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return errors.EventPublishError(subject, err)
	}
	slog.Debug("Published event", logfields.Subject(subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}
