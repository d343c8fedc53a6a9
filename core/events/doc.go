// Package events defines the booking lifecycle events emitted on the event
// bus.
//
// Available event types:
//   - BookingCreated: a booking (or linked pair) entered the timetable
//   - VehicleAssigned: an assignment committed, possibly auto-allocated
//   - AssignmentRejected: every eligible vehicle was in conflict
//   - SeriesExpanded: a repeat template was expanded into a series
//   - BookingDeleted: a booking left the timetable
package events
