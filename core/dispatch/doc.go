// Package dispatch implements the booking scheduling engine: conflict
// detection over the per-vehicle timetable, vehicle auto-allocation with the
// no-overlap guarantee, advisory travel-time feasibility checking against the
// external routing service, and the manager that orchestrates booking
// creation, repeat-series expansion and deletion.
package dispatch
