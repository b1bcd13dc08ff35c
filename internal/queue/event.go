// Package queue defines the booking lifecycle events exchanged over the
// message broker, the publisher used by the services and the background
// consumer that records them.
package queue

import "time"

// Event types.  They double as the AMQP message type.
const (
    TypeRequestCreated   = "booking_request.created"
    TypeRequestAccepted  = "booking_request.accepted"
    TypeRequestDeclined  = "booking_request.declined"
    TypeRequestCancelled = "booking_request.cancelled"
    TypeBookingCancelled = "booking.cancelled"
)

// BookingQueueName is the durable queue every lifecycle event is routed to.
const BookingQueueName = "booking.events"

// BookingEvent is published on every booking request or booking
// transition.  It carries enough information for downstream consumers to
// notify or log without querying the primary database.
type BookingEvent struct {
    Type       string `json:"type"`
    RequestID  uint64 `json:"request_id"`
    BookingID  uint64 `json:"booking_id,omitempty"`
    ArtistID   uint64 `json:"artist_id"`
    PlannerID  uint64 `json:"planner_id"`
    ActorID    uint64 `json:"actor_id"`
    EventName  string `json:"event_name"`
    EventDate  string `json:"event_date"`
    StartTime  string `json:"start_time,omitempty"`
    EndTime    string `json:"end_time,omitempty"`
    Status     string `json:"status"`
    OccurredAt string `json:"occurred_at"`
}

// Stamp sets OccurredAt to now in RFC3339.
func (e *BookingEvent) Stamp(now time.Time) {
    e.OccurredAt = now.UTC().Format(time.RFC3339)
}
