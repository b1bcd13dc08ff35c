package model

import (
    "errors"
    "time"
)

// BookingRequest status values.  Pending is the only non-terminal state.
const (
    RequestPending   = "pending"
    RequestAccepted  = "accepted"
    RequestDeclined  = "declined"
    RequestCancelled = "cancelled"
)

// Booking status values.  A booking is never hard-deleted.
const (
    BookingAccepted  = "accepted"
    BookingCancelled = "cancelled"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// BookingRequest is a planner's proposal to an artist.
//
// Transitions:
//
//	pending -> accepted   (addressed artist)
//	pending -> declined   (addressed artist)
//	pending -> cancelled  (originating planner)
//
// Edits are only allowed while pending and only by the planner.
type BookingRequest struct {
    ID               uint64     `json:"id"`
    PlannerID        uint64     `json:"planner_id"`
    ArtistID         uint64     `json:"artist_id"`
    PlannerName      string     `json:"planner_name,omitempty"`
    ArtistName       string     `json:"artist_name,omitempty"`
    EventName        string     `json:"event_name"`
    EventDate        string     `json:"event_date"`
    Location         string     `json:"location"`
    Message          string     `json:"message"`
    ProposedStart    *string    `json:"proposed_start,omitempty"`
    ProposedEnd      *string    `json:"proposed_end,omitempty"`
    Status           string     `json:"status"`
    ResponseMessage  string     `json:"response_message"`
    RespondedAt      *time.Time `json:"responded_at,omitempty"`
    CreatedAt        time.Time  `json:"created_at"`
    UpdatedAt        time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the request has left pending.
func (r *BookingRequest) IsTerminal() bool { return r.Status != RequestPending }

// CanTransition reports whether the request may move to status to.
func (r *BookingRequest) CanTransition(to string) bool {
    if r.Status != RequestPending {
        return false
    }
    switch to {
    case RequestAccepted, RequestDeclined, RequestCancelled:
        return true
    }
    return false
}

// Transition moves the request to status to, stamping RespondedAt for
// artist responses.
func (r *BookingRequest) Transition(to string, now time.Time) error {
    if !r.CanTransition(to) {
        return ErrInvalidTransition
    }
    r.Status = to
    if to == RequestAccepted || to == RequestDeclined {
        t := now.UTC()
        r.RespondedAt = &t
    }
    r.UpdatedAt = now.UTC()
    return nil
}

// RequestActions tells a client which controls to enable for a viewer.
type RequestActions struct {
    CanAccept  bool `json:"can_accept"`
    CanDecline bool `json:"can_decline"`
    CanEdit    bool `json:"can_edit"`
    CanCancel  bool `json:"can_cancel"`
}

// ActionsFor computes the enabled actions for viewerID.  Every action is
// disabled once the request is terminal.
func (r *BookingRequest) ActionsFor(viewerID uint64) RequestActions {
    if r.IsTerminal() {
        return RequestActions{}
    }
    isArtist := viewerID == r.ArtistID
    isPlanner := viewerID == r.PlannerID
    return RequestActions{
        CanAccept:  isArtist,
        CanDecline: isArtist,
        CanEdit:    isPlanner,
        CanCancel:  isPlanner,
    }
}

// Booking is the confirmed engagement created by accepting a request.
type Booking struct {
    ID          uint64     `json:"id"`
    RequestID   uint64     `json:"request_id"`
    ArtistID    uint64     `json:"artist_id"`
    PlannerID   uint64     `json:"planner_id"`
    ArtistName  string     `json:"artist_name,omitempty"`
    PlannerName string     `json:"planner_name,omitempty"`
    EventName   string     `json:"event_name"`
    EventDate   string     `json:"event_date"`
    Location    string     `json:"location"`
    StartTime   string     `json:"start_time"`
    EndTime     string     `json:"end_time"`
    Status      string     `json:"status"`
    CancelledBy *uint64    `json:"cancelled_by,omitempty"`
    CancelledAt *time.Time `json:"cancelled_at,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
    UpdatedAt   time.Time  `json:"updated_at"`
}

// IsParty reports whether userID is the artist or the planner on the booking.
func (b *Booking) IsParty(userID uint64) bool {
    return userID != 0 && (userID == b.ArtistID || userID == b.PlannerID)
}

// Counterpart returns the other party of the booking for userID.
func (b *Booking) Counterpart(userID uint64) uint64 {
    if userID == b.ArtistID {
        return b.PlannerID
    }
    return b.ArtistID
}

// CanCancel reports whether userID may cancel the booking.
func (b *Booking) CanCancel(userID uint64) bool {
    return b.Status == BookingAccepted && b.IsParty(userID)
}

// Cancel marks the booking cancelled by userID.
func (b *Booking) Cancel(userID uint64, now time.Time) error {
    if b.Status != BookingAccepted {
        return ErrInvalidTransition
    }
    t := now.UTC()
    b.Status = BookingCancelled
    b.CancelledBy = &userID
    b.CancelledAt = &t
    b.UpdatedAt = t
    return nil
}

// CalendarEntry is one day item in a calendar view: either a booking or an
// availability block.
type CalendarEntry struct {
    Date      string `json:"date"`
    Kind      string `json:"kind"` // booking | unavailable
    BookingID uint64 `json:"booking_id,omitempty"`
    Title     string `json:"title"`
    StartTime string `json:"start_time,omitempty"`
    EndTime   string `json:"end_time,omitempty"`
    Location  string `json:"location,omitempty"`
}
