package model

import "time"

// Message is a booking-scoped note between a planner and an artist.
// BookingID is nil when the pair has not booked yet.
type Message struct {
    ID          uint64     `json:"id"`
    BookingID   *uint64    `json:"booking_id,omitempty"`
    SenderID    uint64     `json:"sender_id"`
    RecipientID uint64     `json:"recipient_id"`
    Body        string     `json:"body"`
    ReadAt      *time.Time `json:"read_at,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
}

// Admin conversation sender discriminator.
const (
    SenderAdmin = "admin"
    SenderUser  = "user"
)

// AdminMessage is one entry of a user's support conversation.
type AdminMessage struct {
    ID        uint64     `json:"id"`
    UserID    uint64     `json:"user_id"`
    Sender    string     `json:"sender"`
    Body      string     `json:"body"`
    ReadAt    *time.Time `json:"read_at,omitempty"`
    CreatedAt time.Time  `json:"created_at"`
}

// Conversation summarises a user's support thread for the admin inbox.
type Conversation struct {
    UserID      uint64    `json:"user_id"`
    UserName    string    `json:"user_name"`
    Email       string    `json:"email"`
    LastMessage string    `json:"last_message"`
    LastSender  string    `json:"last_sender"`
    LastAt      time.Time `json:"last_at"`
    Unread      int       `json:"unread"`
}

// Announcement is an admin broadcast shown to every user.
type Announcement struct {
    ID        uint64    `json:"id"`
    Title     string    `json:"title"`
    Body      string    `json:"body"`
    CreatedBy uint64    `json:"created_by"`
    CreatedAt time.Time `json:"created_at"`
}

// PlatformStats are the numbers shown on the admin dashboard.
type PlatformStats struct {
    Users               int64 `json:"users"`
    Artists             int64 `json:"artists"`
    Planners            int64 `json:"planners"`
    ActiveSubscriptions int64 `json:"active_subscriptions"`
    PendingRequests     int64 `json:"pending_requests"`
    AcceptedBookings    int64 `json:"accepted_bookings"`
    PublishedEvents     int64 `json:"published_events"`
}
