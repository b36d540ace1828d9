package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/freightline/tracker/internal/core/domain"
)

// Subject roots. The contract ID is appended as the last token.
const (
	SubjectPositions  = "freight.position"
	SubjectRejections = "freight.rejected"
)

// PositionSubject returns the subject accepted reports for contractID are
// published on.
func PositionSubject(contractID string) string {
	return SubjectPositions + "." + contractID
}

// RejectionEvent is published when a report fails the plausibility check.
type RejectionEvent struct {
	Report  domain.TrackingReport `json:"report"`
	Verdict domain.Verdict        `json:"verdict"`
}

// Streams lists the JetStream streams the tracker relies on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "TRACKING_POSITIONS",
			Subjects:  []string{SubjectPositions + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    6 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "TRACKING_REJECTIONS",
			Subjects:  []string{SubjectRejections + ".>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishPosition(ctx context.Context, report *domain.TrackingReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(PositionSubject(report.ContractID), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishRejection(ctx context.Context, report *domain.TrackingReport, verdict domain.Verdict) error {
	data, err := json.Marshal(RejectionEvent{Report: *report, Verdict: verdict})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectRejections+"."+report.ContractID, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks and the
// WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
