package service

import (
	"context"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/barcode"
	"ai-buildguide-be/pkg/events"
	pktNats "ai-buildguide-be/pkg/nats"
	"ai-buildguide-be/pkg/store"
)

const eventModule = "EventService"

// EventBus is satisfied by *pktNats.Publisher.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventPublisher announces resolution outcomes on the event bus. A nil bus
// turns every call into a no-op.
type EventPublisher struct {
	bus    EventBus
	logger logger.ILogger
}

func NewEventPublisher(bus EventBus, logger logger.ILogger) *EventPublisher {
	return &EventPublisher{bus: bus, logger: logger}
}

// PublishResolved emits project_resolved
func (p *EventPublisher) PublishResolved(ctx context.Context, entry *store.ResolutionEntry, via string) {
	if p.bus == nil {
		return
	}

	evt := events.ProjectResolved(
		entry.Barcode,
		entry.Project.ID,
		entry.Project.Name,
		entry.Project.TotalSteps(),
		entry.ManualURL,
		via,
		entry.ResolvedAt,
	)
	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error(eventModule, "Failed to publish project_resolved event", map[string]interface{}{"error": err.Error()})
	}
}

// PublishFailed emits project_resolution_failed
func (p *EventPublisher) PublishFailed(ctx context.Context, barcode, reason string) {
	if p.bus == nil {
		return
	}

	if err := p.bus.Publish(ctx, events.ResolutionFailed(barcode, reason, time.Now())); err != nil {
		p.logger.Error(eventModule, "Failed to publish project_resolution_failed event", map[string]interface{}{"error": err.Error()})
	}
}

// BarcodeScanHandler feeds barcode_scanned events into the barcode source.
func BarcodeScanHandler(src *barcode.Source, logger logger.ILogger) pktNats.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		code, ok := events.BarcodeFrom(event)
		if !ok {
			logger.Warn(eventModule, "barcode_scanned event without barcode", map[string]interface{}{
				"payload": event.Payload(),
			})
			return nil
		}
		src.Push(code)
		logger.Info(eventModule, "Barcode pushed", map[string]interface{}{"barcode": code})
		return nil
	}
}
