package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// BookingRepo persists booking requests and the bookings created from them.
// Every state change is a conditional UPDATE guarded by the current status,
// so two concurrent transitions on the same row cannot both succeed.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const requestSelect = `SELECT r.id, r.planner_id, r.artist_id, pp.name,
    COALESCE(NULLIF(ap.stage_name, ''), pa.name),
    r.event_name, DATE_FORMAT(r.event_date, '%Y-%m-%d'), r.location, r.message,
    r.proposed_start, r.proposed_end, r.status, r.response_message, r.responded_at,
    r.created_at, r.updated_at
    FROM booking_requests r
    JOIN profiles pp ON pp.id = r.planner_id
    JOIN profiles pa ON pa.id = r.artist_id
    LEFT JOIN artist_profiles ap ON ap.profile_id = r.artist_id`

func scanRequest(s rowScanner) (*model.BookingRequest, error) {
    var (
        r           model.BookingRequest
        start, end  sql.NullString
        respondedAt sql.NullTime
    )
    err := s.Scan(&r.ID, &r.PlannerID, &r.ArtistID, &r.PlannerName, &r.ArtistName,
        &r.EventName, &r.EventDate, &r.Location, &r.Message,
        &start, &end, &r.Status, &r.ResponseMessage, &respondedAt,
        &r.CreatedAt, &r.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if start.Valid {
        r.ProposedStart = &start.String
    }
    if end.Valid {
        r.ProposedEnd = &end.String
    }
    if respondedAt.Valid {
        t := respondedAt.Time
        r.RespondedAt = &t
    }
    return &r, nil
}

// CreateRequest inserts a pending request and fills in the generated id and
// timestamps.
func (r *BookingRepo) CreateRequest(ctx context.Context, req *model.BookingRequest) error {
    const q = `INSERT INTO booking_requests
        (planner_id, artist_id, event_name, event_date, location, message, proposed_start, proposed_end, status, response_message)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', '')`
    res, err := r.db.ExecContext(ctx, q, req.PlannerID, req.ArtistID, req.EventName, req.EventDate,
        req.Location, req.Message, nullString(req.ProposedStart), nullString(req.ProposedEnd))
    if err != nil {
        return fmt.Errorf("insert booking request: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetRequest(ctx, uint64(id))
    if err != nil {
        return err
    }
    *req = *created
    return nil
}

// GetRequest returns a single request or ErrNotFound.
func (r *BookingRepo) GetRequest(ctx context.Context, id uint64) (*model.BookingRequest, error) {
    req, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return req, err
}

// ListRequestsByPlanner returns the planner's outgoing requests, newest first.
func (r *BookingRepo) ListRequestsByPlanner(ctx context.Context, plannerID uint64) ([]model.BookingRequest, error) {
    return r.listRequests(ctx, requestSelect+` WHERE r.planner_id = ? ORDER BY r.created_at DESC, r.id DESC`, plannerID)
}

// ListRequestsByArtist returns the artist's inbox, newest first.  An empty
// status lists every request.
func (r *BookingRepo) ListRequestsByArtist(ctx context.Context, artistID uint64, status string) ([]model.BookingRequest, error) {
    if status == "" {
        return r.listRequests(ctx, requestSelect+` WHERE r.artist_id = ? ORDER BY r.created_at DESC, r.id DESC`, artistID)
    }
    return r.listRequests(ctx, requestSelect+` WHERE r.artist_id = ? AND r.status = ? ORDER BY r.created_at DESC, r.id DESC`, artistID, status)
}

func (r *BookingRepo) listRequests(ctx context.Context, q string, args ...any) ([]model.BookingRequest, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.BookingRequest{}
    for rows.Next() {
        req, err := scanRequest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *req)
    }
    return out, rows.Err()
}

// UpdatePendingRequest rewrites the editable fields of a pending request
// owned by req.PlannerID.  ErrConflict is returned when the request is no
// longer pending.
func (r *BookingRepo) UpdatePendingRequest(ctx context.Context, req *model.BookingRequest) error {
    const q = `UPDATE booking_requests
        SET event_name = ?, event_date = ?, location = ?, message = ?, proposed_start = ?, proposed_end = ?
        WHERE id = ? AND planner_id = ? AND status = 'pending'`
    res, err := r.db.ExecContext(ctx, q, req.EventName, req.EventDate, req.Location, req.Message,
        nullString(req.ProposedStart), nullString(req.ProposedEnd), req.ID, req.PlannerID)
    if err != nil {
        return err
    }
    return expectOne(res)
}

// DeclineRequest marks a pending request addressed to artistID as declined.
func (r *BookingRepo) DeclineRequest(ctx context.Context, id, artistID uint64, response string, now time.Time) error {
    const q = `UPDATE booking_requests SET status = 'declined', response_message = ?, responded_at = ?
        WHERE id = ? AND artist_id = ? AND status = 'pending'`
    res, err := r.db.ExecContext(ctx, q, response, now.UTC(), id, artistID)
    if err != nil {
        return err
    }
    return expectOne(res)
}

// CancelRequest marks a pending request sent by plannerID as cancelled.
func (r *BookingRepo) CancelRequest(ctx context.Context, id, plannerID uint64) error {
    const q = `UPDATE booking_requests SET status = 'cancelled'
        WHERE id = ? AND planner_id = ? AND status = 'pending'`
    res, err := r.db.ExecContext(ctx, q, id, plannerID)
    if err != nil {
        return err
    }
    return expectOne(res)
}

// AcceptParams carries the artist's answer to a request.
type AcceptParams struct {
    RequestID uint64
    ArtistID  uint64
    StartTime string
    EndTime   string
    Response  string
    Now       time.Time
}

// AcceptRequest creates the booking and marks the request accepted in one
// transaction.  The request row is locked with SELECT ... FOR UPDATE so a
// concurrent decline or cancel waits and then observes the new status.
func (r *BookingRepo) AcceptRequest(ctx context.Context, p AcceptParams) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    defer func() { _ = tx.Rollback() }()

    var (
        artistID, plannerID  uint64
        status               string
        eventName, eventDate string
        location             string
    )
    err = tx.QueryRowContext(ctx,
        `SELECT artist_id, planner_id, status, event_name, DATE_FORMAT(event_date, '%Y-%m-%d'), location
         FROM booking_requests WHERE id = ? FOR UPDATE`, p.RequestID).
        Scan(&artistID, &plannerID, &status, &eventName, &eventDate, &location)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if artistID != p.ArtistID {
        return nil, ErrForbidden
    }
    if status != model.RequestPending {
        return nil, ErrConflict
    }

    now := p.Now.UTC()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (request_id, artist_id, planner_id, event_name, event_date, location, start_time, end_time, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'accepted')`,
        p.RequestID, artistID, plannerID, eventName, eventDate, location, p.StartTime, p.EndTime)
    if err != nil {
        if isDuplicate(err) {
            return nil, ErrConflict
        }
        return nil, fmt.Errorf("insert booking: %w", err)
    }
    bookingID, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE booking_requests SET status = 'accepted', response_message = ?, responded_at = ? WHERE id = ?`,
        p.Response, now, p.RequestID); err != nil {
        return nil, fmt.Errorf("update booking request: %w", err)
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    return &model.Booking{
        ID:        uint64(bookingID),
        RequestID: p.RequestID,
        ArtistID:  artistID,
        PlannerID: plannerID,
        EventName: eventName,
        EventDate: eventDate,
        Location:  location,
        StartTime: p.StartTime,
        EndTime:   p.EndTime,
        Status:    model.BookingAccepted,
        CreatedAt: now,
        UpdatedAt: now,
    }, nil
}

const bookingSelect = `SELECT b.id, b.request_id, b.artist_id, b.planner_id,
    COALESCE(NULLIF(ap.stage_name, ''), pa.name), pp.name,
    b.event_name, DATE_FORMAT(b.event_date, '%Y-%m-%d'), b.location, b.start_time, b.end_time,
    b.status, b.cancelled_by, b.cancelled_at, b.created_at, b.updated_at
    FROM bookings b
    JOIN profiles pa ON pa.id = b.artist_id
    JOIN profiles pp ON pp.id = b.planner_id
    LEFT JOIN artist_profiles ap ON ap.profile_id = b.artist_id`

func scanBooking(s rowScanner) (*model.Booking, error) {
    var (
        b           model.Booking
        cancelledBy sql.NullInt64
        cancelledAt sql.NullTime
    )
    err := s.Scan(&b.ID, &b.RequestID, &b.ArtistID, &b.PlannerID, &b.ArtistName, &b.PlannerName,
        &b.EventName, &b.EventDate, &b.Location, &b.StartTime, &b.EndTime,
        &b.Status, &cancelledBy, &cancelledAt, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if cancelledBy.Valid {
        id := uint64(cancelledBy.Int64)
        b.CancelledBy = &id
    }
    if cancelledAt.Valid {
        t := cancelledAt.Time
        b.CancelledAt = &t
    }
    return &b, nil
}

// GetBooking returns a booking or ErrNotFound.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return b, err
}

// ListBookingsForUser returns every booking the user is a party of, most
// recent event first.
func (r *BookingRepo) ListBookingsForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    return r.listBookings(ctx, bookingSelect+` WHERE b.artist_id = ? OR b.planner_id = ?
        ORDER BY b.event_date DESC, b.id DESC`, userID, userID)
}

// ListAcceptedInRange returns accepted bookings for the user with an event
// date in [from, to].  asArtist selects which party column is matched.
func (r *BookingRepo) ListAcceptedInRange(ctx context.Context, userID uint64, asArtist bool, from, to string) ([]model.Booking, error) {
    col := "b.planner_id"
    if asArtist {
        col = "b.artist_id"
    }
    q := bookingSelect + ` WHERE ` + col + ` = ? AND b.status = 'accepted' AND b.event_date BETWEEN ? AND ?
        ORDER BY b.event_date, b.start_time`
    return r.listBookings(ctx, q, userID, from, to)
}

func (r *BookingRepo) listBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Booking{}
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

// CancelBooking moves an accepted booking to cancelled, recording who did
// it.  The caller must be the artist or the planner of the booking.
func (r *BookingRepo) CancelBooking(ctx context.Context, id, userID uint64, now time.Time) error {
    const q = `UPDATE bookings SET status = 'cancelled', cancelled_by = ?, cancelled_at = ?
        WHERE id = ? AND status = 'accepted' AND (artist_id = ? OR planner_id = ?)`
    res, err := r.db.ExecContext(ctx, q, userID, now.UTC(), id, userID, userID)
    if err != nil {
        return err
    }
    return expectOne(res)
}

// HasAcceptedBooking reports whether the planner holds an accepted booking
// with the artist.
func (r *BookingRepo) HasAcceptedBooking(ctx context.Context, plannerID, artistID uint64) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings WHERE planner_id = ? AND artist_id = ? AND status = 'accepted'`,
        plannerID, artistID).Scan(&n)
    return n > 0, err
}

// expectOne maps "no row changed" to ErrConflict.
func expectOne(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

func nullString(s *string) any {
    if s == nil || *s == "" {
        return nil
    }
    return *s
}
