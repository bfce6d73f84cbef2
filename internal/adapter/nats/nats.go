// Package nats publishes audit entries and breaker state changes to NATS
// JetStream so the CRM's operational dashboards and the compliance pipeline
// can consume them without polling.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/resilience"
)

const streamName = "LENDGATE"

// Publisher writes lendgate events to JetStream.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the LENDGATE stream
// exists with subjects for audit entries and breaker events.
func Connect(ctx context.Context, url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"audit.calls.>", "resilience.breaker.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Publisher{nc: nc, js: js}, nil
}

// Record implements the audit sink port by publishing the entry to
// audit.calls.<dependency>. Detached from the caller's deadline for the
// same reason the durable sink is.
func (p *Publisher) Record(ctx context.Context, entry call.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	subject := "audit.calls." + entry.Dependency
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishTransition publishes a breaker state change to
// resilience.breaker.<dependency>. Fire-and-forget: the transition path
// must not block on the broker.
func (p *Publisher) PublishTransition(ev resilience.TransitionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal transition event failed", "error", err)
		return
	}

	subject := "resilience.breaker." + ev.Dependency
	if err := p.nc.Publish(subject, data); err != nil {
		slog.Error("publish transition failed", "subject", subject, "error", err)
	}
}

// Close shuts down the NATS connection.
func (p *Publisher) Close() error {
	p.nc.Close()
	return nil
}
