package messaging

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// BrokerEmitter publishes events on one channel. Publishing is best effort:
// a broker failure is logged and counted, never returned to the caller.
type BrokerEmitter struct {
	broker  Broker
	channel string
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewEmitter(broker Broker, channel string, log *logger.Logger, m *metrics.Metrics) *BrokerEmitter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &BrokerEmitter{
		broker:  broker,
		channel: channel,
		logger:  log.With("events"),
		metrics: m,
	}
}

func (e *BrokerEmitter) Emit(ctx context.Context, eventType string, payload interface{}) {
	evt := Event{
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}

	status := "success"
	if err := e.broker.Publish(ctx, e.channel, evt); err != nil {
		status = "error"
		e.logger.Error(err, "Failed to publish event", "event_type", eventType)
	}
	if e.metrics != nil {
		e.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, interface{}) {}
