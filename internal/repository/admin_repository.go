package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/artist-booking/internal/model"
)

// AdminRepo serves the admin dashboard aggregates and announcements.
type AdminRepo struct {
    db *sql.DB
}

// NewAdminRepo returns an AdminRepo bound to db.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// Stats computes every dashboard counter in a single round trip.
func (r *AdminRepo) Stats(ctx context.Context) (model.PlatformStats, error) {
    const q = `SELECT
        (SELECT COUNT(*) FROM profiles),
        (SELECT COUNT(*) FROM profiles WHERE role = 'artist'),
        (SELECT COUNT(*) FROM profiles WHERE role = 'planner'),
        (SELECT COUNT(*) FROM subscriptions WHERE active = 1 AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())),
        (SELECT COUNT(*) FROM booking_requests WHERE status = 'pending'),
        (SELECT COUNT(*) FROM bookings WHERE status = 'accepted'),
        (SELECT COUNT(*) FROM events WHERE status = 'published')`
    var s model.PlatformStats
    err := r.db.QueryRowContext(ctx, q).Scan(&s.Users, &s.Artists, &s.Planners, &s.ActiveSubscriptions,
        &s.PendingRequests, &s.AcceptedBookings, &s.PublishedEvents)
    return s, err
}

// CreateAnnouncement inserts an announcement and sets its id.
func (r *AdminRepo) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO admin_announcements (title, body, created_by) VALUES (?, ?, ?)`, a.Title, a.Body, a.CreatedBy)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    return r.db.QueryRowContext(ctx,
        `SELECT id, created_at FROM admin_announcements WHERE id = ?`, id).Scan(&a.ID, &a.CreatedAt)
}

// DeleteAnnouncement removes an announcement.
func (r *AdminRepo) DeleteAnnouncement(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM admin_announcements WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListAnnouncements returns every announcement, newest first.
func (r *AdminRepo) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, title, body, created_by, created_at FROM admin_announcements ORDER BY created_at DESC, id DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Announcement{}
    for rows.Next() {
        var a model.Announcement
        if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}
