package service

import (
    "context"
    "strings"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// MessageStore is implemented by repository.MessageRepo.
type MessageStore interface {
    Send(ctx context.Context, m *model.Message) error
    ThreadByBooking(ctx context.Context, bookingID uint64) ([]model.Message, error)
    ThreadBetween(ctx context.Context, a, b uint64) ([]model.Message, error)
    MarkReadFrom(ctx context.Context, recipientID, senderID uint64, now time.Time) error
    MarkBookingRead(ctx context.Context, bookingID, recipientID uint64, now time.Time) error
    CountUnread(ctx context.Context, userID uint64) (int, error)
    SendAdmin(ctx context.Context, m *model.AdminMessage) error
    AdminThread(ctx context.Context, userID uint64) ([]model.AdminMessage, error)
    MarkAdminRead(ctx context.Context, userID uint64, sender string, now time.Time) error
    CountUnreadAdmin(ctx context.Context, userID uint64) (int, error)
    CountUnreadFromUsers(ctx context.Context) (int, error)
    Conversations(ctx context.Context) ([]model.Conversation, error)
}

// BookingGetter loads a booking by id.
type BookingGetter interface {
    GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
}

// MessageService runs the booking side-channel and the admin-support inbox.
type MessageService struct {
    store    MessageStore
    profiles ProfileStore
    bookings BookingGetter
    now      func() time.Time
}

// NewMessageService wires messaging.
func NewMessageService(store MessageStore, profiles ProfileStore, bookings BookingGetter) *MessageService {
    return &MessageService{store: store, profiles: profiles, bookings: bookings, now: time.Now}
}

// SendInput addresses a message either by booking or by recipient.
type SendInput struct {
    BookingID   *uint64 `json:"booking_id,omitempty"`
    RecipientID uint64  `json:"recipient_id"`
    Body        string  `json:"body" validate:"required,max=5000"`
}

// Send stores a booking message.  With a booking id the sender must be a
// party and the recipient is the other party.  Without one, sender and
// recipient must be an artist and a planner.
func (s *MessageService) Send(ctx context.Context, actor Actor, in SendInput) (*model.Message, error) {
    body := strings.TrimSpace(in.Body)
    if body == "" {
        return nil, invalid("body is required")
    }
    m := &model.Message{SenderID: actor.ID, Body: body}
    if in.BookingID != nil {
        b, err := s.bookings.GetBooking(ctx, *in.BookingID)
        if err != nil {
            return nil, err
        }
        if !b.IsParty(actor.ID) {
            return nil, ErrForbidden
        }
        m.BookingID = in.BookingID
        m.RecipientID = b.Counterpart(actor.ID)
    } else {
        if in.RecipientID == 0 || in.RecipientID == actor.ID {
            return nil, invalid("recipient_id is required")
        }
        recipient, err := s.profiles.GetByID(ctx, in.RecipientID)
        if err != nil {
            return nil, err
        }
        if !pairable(actor.Role, recipient.Role) {
            return nil, invalid("messages are exchanged between an artist and a planner")
        }
        m.RecipientID = in.RecipientID
    }
    if err := s.store.Send(ctx, m); err != nil {
        return nil, err
    }
    return m, nil
}

func pairable(a, b string) bool {
    return (a == model.RoleArtist && b == model.RolePlanner) || (a == model.RolePlanner && b == model.RoleArtist)
}

// BookingThread lists a booking's messages and marks those addressed to
// the caller read.
func (s *MessageService) BookingThread(ctx context.Context, actor Actor, bookingID uint64) ([]model.Message, error) {
    b, err := s.bookings.GetBooking(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if !b.IsParty(actor.ID) {
        return nil, ErrNotFound
    }
    msgs, err := s.store.ThreadByBooking(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := s.store.MarkBookingRead(ctx, bookingID, actor.ID, s.now()); err != nil {
        return nil, err
    }
    return msgs, nil
}

// ThreadWith lists every message exchanged with counterpart and marks the
// incoming ones read.
func (s *MessageService) ThreadWith(ctx context.Context, actor Actor, counterpart uint64) ([]model.Message, error) {
    msgs, err := s.store.ThreadBetween(ctx, actor.ID, counterpart)
    if err != nil {
        return nil, err
    }
    if err := s.store.MarkReadFrom(ctx, actor.ID, counterpart, s.now()); err != nil {
        return nil, err
    }
    return msgs, nil
}

// MarkRead marks everything counterpart sent to the caller read.
func (s *MessageService) MarkRead(ctx context.Context, actor Actor, counterpart uint64) error {
    return s.store.MarkReadFrom(ctx, actor.ID, counterpart, s.now())
}

// UnreadCounts backs the client's 7-second polling badge.
type UnreadCounts struct {
    Messages      int `json:"messages"`
    AdminMessages int `json:"admin_messages"`
    Total         int `json:"total"`
}

// Unread returns the caller's unread counts.  For admins AdminMessages is
// the number of unread user messages across every conversation.
func (s *MessageService) Unread(ctx context.Context, actor Actor) (UnreadCounts, error) {
    var out UnreadCounts
    n, err := s.store.CountUnread(ctx, actor.ID)
    if err != nil {
        return out, err
    }
    out.Messages = n
    if actor.IsAdmin {
        n, err = s.store.CountUnreadFromUsers(ctx)
    } else {
        n, err = s.store.CountUnreadAdmin(ctx, actor.ID)
    }
    if err != nil {
        return out, err
    }
    out.AdminMessages = n
    out.Total = out.Messages + out.AdminMessages
    return out, nil
}

// ContactAdmin appends a user message to the caller's support thread.
func (s *MessageService) ContactAdmin(ctx context.Context, actor Actor, body string) (*model.AdminMessage, error) {
    return s.sendAdmin(ctx, actor.ID, model.SenderUser, body)
}

// MyAdminThread returns the caller's support thread and marks admin
// replies read.
func (s *MessageService) MyAdminThread(ctx context.Context, actor Actor) ([]model.AdminMessage, error) {
    msgs, err := s.store.AdminThread(ctx, actor.ID)
    if err != nil {
        return nil, err
    }
    return msgs, s.store.MarkAdminRead(ctx, actor.ID, model.SenderAdmin, s.now())
}

// AdminReply appends an admin message to userID's conversation.
func (s *MessageService) AdminReply(ctx context.Context, actor Actor, userID uint64, body string) (*model.AdminMessage, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    if _, err := s.profiles.GetByID(ctx, userID); err != nil {
        return nil, err
    }
    return s.sendAdmin(ctx, userID, model.SenderAdmin, body)
}

// AdminThread opens userID's conversation for an admin and marks the
// user's messages read.
func (s *MessageService) AdminThread(ctx context.Context, actor Actor, userID uint64) ([]model.AdminMessage, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    msgs, err := s.store.AdminThread(ctx, userID)
    if err != nil {
        return nil, err
    }
    return msgs, s.store.MarkAdminRead(ctx, userID, model.SenderUser, s.now())
}

// Conversations lists one row per user thread, most recent first.
func (s *MessageService) Conversations(ctx context.Context, actor Actor) ([]model.Conversation, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    return s.store.Conversations(ctx)
}

func (s *MessageService) sendAdmin(ctx context.Context, userID uint64, sender, body string) (*model.AdminMessage, error) {
    body = strings.TrimSpace(body)
    if body == "" {
        return nil, invalid("body is required")
    }
    m := &model.AdminMessage{UserID: userID, Sender: sender, Body: body}
    if err := s.store.SendAdmin(ctx, m); err != nil {
        return nil, err
    }
    return m, nil
}
