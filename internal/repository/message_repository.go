package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// MessageRepo stores booking messages and admin-support conversations.
type MessageRepo struct {
    db *sql.DB
}

// NewMessageRepo returns a MessageRepo bound to db.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Send inserts a booking message and sets its id and timestamp.
func (r *MessageRepo) Send(ctx context.Context, m *model.Message) error {
    now := time.Now().UTC()
    var booking any
    if m.BookingID != nil {
        booking = *m.BookingID
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO messages (booking_id, sender_id, recipient_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
        booking, m.SenderID, m.RecipientID, m.Body, now)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    m.CreatedAt = now
    return nil
}

const messageSelect = `SELECT id, booking_id, sender_id, recipient_id, body, read_at, created_at FROM messages`

// ThreadByBooking lists the messages of a booking, oldest first.
func (r *MessageRepo) ThreadByBooking(ctx context.Context, bookingID uint64) ([]model.Message, error) {
    return r.list(ctx, messageSelect+` WHERE booking_id = ? ORDER BY created_at, id`, bookingID)
}

// ThreadBetween lists every message exchanged by a and b, oldest first.
func (r *MessageRepo) ThreadBetween(ctx context.Context, a, b uint64) ([]model.Message, error) {
    return r.list(ctx, messageSelect+`
        WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
        ORDER BY created_at, id`, a, b, b, a)
}

func (r *MessageRepo) list(ctx context.Context, q string, args ...any) ([]model.Message, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Message{}
    for rows.Next() {
        var (
            m       model.Message
            booking sql.NullInt64
            readAt  sql.NullTime
        )
        if err := rows.Scan(&m.ID, &booking, &m.SenderID, &m.RecipientID, &m.Body, &readAt, &m.CreatedAt); err != nil {
            return nil, err
        }
        if booking.Valid {
            id := uint64(booking.Int64)
            m.BookingID = &id
        }
        if readAt.Valid {
            t := readAt.Time
            m.ReadAt = &t
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// MarkReadFrom marks every unread message from senderID to recipientID read.
func (r *MessageRepo) MarkReadFrom(ctx context.Context, recipientID, senderID uint64, now time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE messages SET read_at = ? WHERE recipient_id = ? AND sender_id = ? AND read_at IS NULL`,
        now.UTC(), recipientID, senderID)
    return err
}

// MarkBookingRead marks the unread messages of one booking thread
// addressed to recipientID read.
func (r *MessageRepo) MarkBookingRead(ctx context.Context, bookingID, recipientID uint64, now time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE messages SET read_at = ? WHERE booking_id = ? AND recipient_id = ? AND read_at IS NULL`,
        now.UTC(), bookingID, recipientID)
    return err
}

// CountUnread returns how many booking messages addressed to userID are unread.
func (r *MessageRepo) CountUnread(ctx context.Context, userID uint64) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND read_at IS NULL`, userID).Scan(&n)
    return n, err
}

// SendAdmin appends a message to the user's support conversation.
func (r *MessageRepo) SendAdmin(ctx context.Context, m *model.AdminMessage) error {
    now := time.Now().UTC()
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO admin_messages (user_id, sender, body, created_at) VALUES (?, ?, ?, ?)`,
        m.UserID, m.Sender, m.Body, now)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    m.CreatedAt = now
    return nil
}

// AdminThread returns the user's support conversation, oldest first.
func (r *MessageRepo) AdminThread(ctx context.Context, userID uint64) ([]model.AdminMessage, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, user_id, sender, body, read_at, created_at FROM admin_messages
         WHERE user_id = ? ORDER BY created_at, id`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.AdminMessage{}
    for rows.Next() {
        var (
            m      model.AdminMessage
            readAt sql.NullTime
        )
        if err := rows.Scan(&m.ID, &m.UserID, &m.Sender, &m.Body, &readAt, &m.CreatedAt); err != nil {
            return nil, err
        }
        if readAt.Valid {
            t := readAt.Time
            m.ReadAt = &t
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// MarkAdminRead marks the messages written by sender in the user's
// conversation as read.
func (r *MessageRepo) MarkAdminRead(ctx context.Context, userID uint64, sender string, now time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE admin_messages SET read_at = ? WHERE user_id = ? AND sender = ? AND read_at IS NULL`,
        now.UTC(), userID, sender)
    return err
}

// CountUnreadAdmin counts admin replies the user has not read yet.
func (r *MessageRepo) CountUnreadAdmin(ctx context.Context, userID uint64) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM admin_messages WHERE user_id = ? AND sender = 'admin' AND read_at IS NULL`, userID).Scan(&n)
    return n, err
}

// CountUnreadFromUsers counts user messages no admin has read yet.
func (r *MessageRepo) CountUnreadFromUsers(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM admin_messages WHERE sender = 'user' AND read_at IS NULL`).Scan(&n)
    return n, err
}

// Conversations returns one row per user with a support thread, the most
// recently active first.
func (r *MessageRepo) Conversations(ctx context.Context) ([]model.Conversation, error) {
    const q = `SELECT m.user_id, p.name, p.email, m.body, m.sender, m.created_at,
        (SELECT COUNT(*) FROM admin_messages u WHERE u.user_id = m.user_id AND u.sender = 'user' AND u.read_at IS NULL)
        FROM admin_messages m
        JOIN profiles p ON p.id = m.user_id
        JOIN (SELECT user_id, MAX(id) AS last_id FROM admin_messages GROUP BY user_id) l ON l.last_id = m.id
        ORDER BY m.created_at DESC, m.id DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Conversation{}
    for rows.Next() {
        var c model.Conversation
        if err := rows.Scan(&c.UserID, &c.UserName, &c.Email, &c.LastMessage, &c.LastSender, &c.LastAt, &c.Unread); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}
