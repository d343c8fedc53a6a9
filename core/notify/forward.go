package notify

import (
	"context"

	"github.com/chauffeurjet/dispatch/core/events"
	"github.com/chauffeurjet/dispatch/core/logger"
	"github.com/chauffeurjet/dispatch/internal/eventbus"
)

// Forward subscribes to the bus and publishes every booking lifecycle event
// on its topic until the context is canceled. Publish failures are logged and
// skipped; notification delivery never disturbs scheduling.
func Forward(ctx context.Context, bus eventbus.EventBus, n Notifier, log logger.Logger) {
	if bus == nil || n == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				topic := topicFor(ev)
				if topic == "" {
					continue
				}
				if err := n.Publish(topic, ev); err != nil {
					log.Warnf("notify %s: %v", topic, err)
				}
			}
		}
	}()
}

func topicFor(ev eventbus.Event) string {
	switch ev.(type) {
	case events.BookingCreated:
		return TopicBookingCreated
	case events.VehicleAssigned:
		return TopicVehicleAssigned
	case events.AssignmentRejected:
		return TopicAssignmentRejected
	case events.SeriesExpanded:
		return TopicSeriesExpanded
	case events.BookingDeleted:
		return TopicBookingDeleted
	default:
		return ""
	}
}
