package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event subjects
const (
	SubjectExportCompleted = "dashboard.export.completed"
)

// ExportFilters is the sidebar selection an export was taken with.
type ExportFilters struct {
	Products []string `json:"products"`
	Campaign string   `json:"campaign"`
}

// ExportCompletedEvent is published after a table download is written
type ExportCompletedEvent struct {
	EventID   uuid.UUID     `json:"event_id"`
	Tab       string        `json:"tab"`
	Format    string        `json:"format"` // csv, xlsx
	Filename  string        `json:"filename"`
	Rows      int           `json:"rows"`
	Filters   ExportFilters `json:"filters"`
	Timestamp time.Time     `json:"timestamp"`
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// Publisher handles publishing events to NATS
type Publisher struct {
	nc     Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher
func NewPublisher(nc Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// PublishExportCompleted publishes an export completed event. A nil
// publisher drops the event. Missing id and timestamp are filled in.
func (p *Publisher) PublishExportCompleted(event *ExportCompletedEvent) error {
	if p == nil {
		return nil
	}
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Filters.Products == nil {
		event.Filters.Products = []string{}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(SubjectExportCompleted, data); err != nil {
		return err
	}

	p.logger.Debug("Published export event",
		zap.String("event_id", event.EventID.String()),
		zap.String("tab", event.Tab),
		zap.String("format", event.Format),
		zap.Int("rows", event.Rows),
	)
	return nil
}
