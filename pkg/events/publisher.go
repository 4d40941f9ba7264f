package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

// Event types
const (
	TypeAnalysisCompleted = "analysis.completed"
	TypeAnalysisFailed    = "analysis.failed"
	TypeScamReported      = "scam.reported"
)

// Event is the envelope published on the bus
type Event struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Source string      `json:"source"`
	Time   time.Time   `json:"time"`
	Data   interface{} `json:"data"`
}

// NewEvent wraps data in an envelope
func NewEvent(eventType, source string, data interface{}) Event {
	return Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Source: source,
		Time:   time.Now().UTC(),
		Data:   data,
	}
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	IsConnected() bool
	Close()
}

// NATSPublisher publishes events to NATS subjects named <prefix>.<event type>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS
func NewNATSPublisher(cfg config.EventsConfig, clientName string) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// Subject returns the subject an event type is published on
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Publish sends the event. NATS core publish is fire-and-forget; ctx is
// honoured only before the write.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	if err := p.conn.Publish(Subject(p.prefix, event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// IsConnected reports the connection status
func (p *NATSPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NoopPublisher discards events; used when NATS is not configured
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error {
	logger.Debug("event discarded, no bus configured", zap.String("type", event.Type))
	return nil
}

func (NoopPublisher) IsConnected() bool { return true }

func (NoopPublisher) Close() {}
