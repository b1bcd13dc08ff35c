package model

import "time"

// Event status values.  Only published events are visible to other users.
const (
    EventDraft     = "draft"
    EventPublished = "published"
)

// Event is a listing created by an artist or a planner.
type Event struct {
    ID          uint64     `json:"id"`
    OwnerID     uint64     `json:"owner_id"`
    OwnerName   string     `json:"owner_name,omitempty"`
    Title       string     `json:"title"`
    Description string     `json:"description"`
    EventDate   string     `json:"event_date"`
    Location    string     `json:"location"`
    CoverURL    *string    `json:"cover_url,omitempty"`
    TicketURL   string     `json:"ticket_url"`
    Status      string     `json:"status"`
    PublishedAt *time.Time `json:"published_at,omitempty"`
    Attending   int        `json:"attending"`
    CreatedAt   time.Time  `json:"created_at"`
    UpdatedAt   time.Time  `json:"updated_at"`
}

// VisibleTo reports whether viewer may read the event.
func (e *Event) VisibleTo(viewerID uint64, isAdmin bool) bool {
    return e.Status == EventPublished || e.OwnerID == viewerID || isAdmin
}

// EventMedia is an additional image attached to an event.
type EventMedia struct {
    ID          uint64    `json:"id"`
    EventID     uint64    `json:"event_id"`
    URL         string    `json:"url"`
    StoragePath string    `json:"-"`
    CreatedAt   time.Time `json:"created_at"`
}
