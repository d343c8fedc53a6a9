// Package notify defines the outbound notification contract. Booking
// lifecycle events are forwarded from the event bus to external consumers,
// typically over MQTT.
package notify

import "errors"

// ErrNotConnected is returned when a publish is attempted without an active
// broker connection.
var ErrNotConnected = errors.New("notify: not connected")

// Topics for booking lifecycle notifications, relative to the configured
// prefix.
const (
	TopicBookingCreated     = "bookings/created"
	TopicVehicleAssigned    = "bookings/assigned"
	TopicAssignmentRejected = "bookings/rejected"
	TopicSeriesExpanded     = "bookings/series"
	TopicBookingDeleted     = "bookings/deleted"
)

// Notifier publishes one payload per event to a named topic. Implementations
// serialize the payload as JSON.
type Notifier interface {
	Publish(topic string, payload any) error
	Close()
}
