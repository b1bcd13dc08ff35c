package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// EventRepo persists events, their extra media and attendance marks.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns an EventRepo bound to db.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventSelect = `SELECT e.id, e.owner_id, p.name, e.title, e.description, DATE_FORMAT(e.event_date, '%Y-%m-%d'),
    e.location, e.cover_url, e.ticket_url, e.status, e.published_at,
    (SELECT COUNT(*) FROM event_attendance a WHERE a.event_id = e.id),
    e.created_at, e.updated_at
    FROM events e JOIN profiles p ON p.id = e.owner_id`

func scanEvent(s rowScanner) (*model.Event, error) {
    var (
        e         model.Event
        cover     sql.NullString
        published sql.NullTime
    )
    err := s.Scan(&e.ID, &e.OwnerID, &e.OwnerName, &e.Title, &e.Description, &e.EventDate,
        &e.Location, &cover, &e.TicketURL, &e.Status, &published, &e.Attending, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if cover.Valid {
        e.CoverURL = &cover.String
    }
    if published.Valid {
        t := published.Time
        e.PublishedAt = &t
    }
    return &e, nil
}

// Create inserts a draft event and reloads it.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO events (owner_id, title, description, event_date, location, cover_url, ticket_url, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, 'draft')`,
        e.OwnerID, e.Title, e.Description, e.EventDate, e.Location, nullString(e.CoverURL), e.TicketURL)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.Get(ctx, uint64(id))
    if err != nil {
        return err
    }
    *e = *created
    return nil
}

// Get returns an event regardless of status.
func (r *EventRepo) Get(ctx context.Context, id uint64) (*model.Event, error) {
    e, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return e, err
}

// Update rewrites the editable fields of an event owned by e.OwnerID.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE events SET title = ?, description = ?, event_date = ?, location = ?, cover_url = ?, ticket_url = ?
         WHERE id = ? AND owner_id = ?`,
        e.Title, e.Description, e.EventDate, e.Location, nullString(e.CoverURL), e.TicketURL, e.ID, e.OwnerID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrForbidden
    }
    return nil
}

// SetCover stores the cover image URL.
func (r *EventRepo) SetCover(ctx context.Context, id uint64, url string) error {
    _, err := r.db.ExecContext(ctx, `UPDATE events SET cover_url = ? WHERE id = ?`, url, id)
    return err
}

// Publish marks a draft event published.  Publishing twice is a no-op.
func (r *EventRepo) Publish(ctx context.Context, id uint64, now time.Time) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE events SET status = 'published', published_at = COALESCE(published_at, ?) WHERE id = ?`, now.UTC(), id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// Delete removes an event.  Admins pass ownerID 0 to skip the owner check.
func (r *EventRepo) Delete(ctx context.Context, id, ownerID uint64) error {
    q := `DELETE FROM events WHERE id = ?`
    args := []any{id}
    if ownerID != 0 {
        q += ` AND owner_id = ?`
        args = append(args, ownerID)
    }
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListPublished returns published events from fromDate on, soonest first.
// An empty fromDate lists every published event.
func (r *EventRepo) ListPublished(ctx context.Context, fromDate string) ([]model.Event, error) {
    if fromDate == "" {
        return r.list(ctx, eventSelect+` WHERE e.status = 'published' ORDER BY e.event_date, e.id`)
    }
    return r.list(ctx, eventSelect+` WHERE e.status = 'published' AND e.event_date >= ? ORDER BY e.event_date, e.id`, fromDate)
}

// ListByOwner returns the owner's events including drafts.
func (r *EventRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Event, error) {
    return r.list(ctx, eventSelect+` WHERE e.owner_id = ? ORDER BY e.event_date DESC, e.id DESC`, ownerID)
}

// ListAll returns every event for the admin console.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
    return r.list(ctx, eventSelect+` ORDER BY e.created_at DESC, e.id DESC`)
}

func (r *EventRepo) list(ctx context.Context, q string, args ...any) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Event{}
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *e)
    }
    return out, rows.Err()
}

// AddMedia attaches an image to an event.
func (r *EventRepo) AddMedia(ctx context.Context, m *model.EventMedia) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO event_media (event_id, url, storage_path) VALUES (?, ?, ?)`, m.EventID, m.URL, m.StoragePath)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    m.CreatedAt = time.Now().UTC()
    return nil
}

// ListMedia returns the extra images of an event.
func (r *EventRepo) ListMedia(ctx context.Context, eventID uint64) ([]model.EventMedia, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, event_id, url, storage_path, created_at FROM event_media WHERE event_id = ? ORDER BY id`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.EventMedia{}
    for rows.Next() {
        var m model.EventMedia
        if err := rows.Scan(&m.ID, &m.EventID, &m.URL, &m.StoragePath, &m.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// ToggleAttendance flips the user's attending mark and reports the new state.
func (r *EventRepo) ToggleAttendance(ctx context.Context, eventID, userID uint64) (bool, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM event_attendance WHERE event_id = ? AND user_id = ?`, eventID, userID)
    if err != nil {
        return false, err
    }
    if n, _ := res.RowsAffected(); n > 0 {
        return false, nil
    }
    if _, err := r.db.ExecContext(ctx,
        `INSERT INTO event_attendance (event_id, user_id) VALUES (?, ?)`, eventID, userID); err != nil {
        if isDuplicate(err) {
            return true, nil
        }
        return false, err
    }
    return true, nil
}
