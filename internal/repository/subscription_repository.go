package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// SubscriptionRepo reads and mutates artist subscriptions.  There is at
// most one row per artist.
type SubscriptionRepo struct {
    db *sql.DB
}

// NewSubscriptionRepo returns a SubscriptionRepo bound to db.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const subscriptionSelect = `SELECT s.id, s.profile_id, s.plan, s.tier, s.active, s.started_at, s.expires_at,
    s.created_at, s.updated_at, p.name, p.email
    FROM subscriptions s JOIN profiles p ON p.id = s.profile_id`

func scanSubscription(sc rowScanner) (*model.Subscription, error) {
    var (
        s       model.Subscription
        expires sql.NullTime
    )
    err := sc.Scan(&s.ID, &s.ProfileID, &s.Plan, &s.Tier, &s.Active, &s.StartedAt, &expires,
        &s.CreatedAt, &s.UpdatedAt, &s.ArtistName, &s.Email)
    if err != nil {
        return nil, err
    }
    if expires.Valid {
        t := expires.Time
        s.ExpiresAt = &t
    }
    return &s, nil
}

// GetByProfile returns the artist's subscription or ErrNotFound.
func (r *SubscriptionRepo) GetByProfile(ctx context.Context, profileID uint64) (*model.Subscription, error) {
    s, err := scanSubscription(r.db.QueryRowContext(ctx, subscriptionSelect+` WHERE s.profile_id = ?`, profileID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return s, err
}

// ListAll returns every subscription, newest first.
func (r *SubscriptionRepo) ListAll(ctx context.Context) ([]model.Subscription, error) {
    rows, err := r.db.QueryContext(ctx, subscriptionSelect+` ORDER BY s.created_at DESC, s.id DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        s, err := scanSubscription(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    return out, rows.Err()
}

// EnsureFree gives an artist an active free subscription unless a row
// already exists.  Onboarding calls it so new artists are discoverable.
func (r *SubscriptionRepo) EnsureFree(ctx context.Context, profileID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT IGNORE INTO subscriptions (profile_id, plan, tier, active) VALUES (?, 'free', 'free', 1)`, profileID)
    return err
}

// Upsert sets the plan of an artist, activating the subscription.  The
// artist's media tier follows the plan.
func (r *SubscriptionRepo) Upsert(ctx context.Context, profileID uint64, plan string, expiresAt *time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()
    var exp any
    if expiresAt != nil {
        exp = expiresAt.UTC()
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO subscriptions (profile_id, plan, tier, active, started_at, expires_at)
         VALUES (?, ?, ?, 1, UTC_TIMESTAMP(), ?)
         ON DUPLICATE KEY UPDATE plan = VALUES(plan), tier = VALUES(tier), active = 1,
            started_at = VALUES(started_at), expires_at = VALUES(expires_at)`,
        profileID, plan, plan, exp); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE artist_profiles SET media_tier = ? WHERE profile_id = ?`, plan, profileID); err != nil {
        return err
    }
    return tx.Commit()
}

// Deactivate clears the active flag.  ErrNotFound when the id is unknown.
func (r *SubscriptionRepo) Deactivate(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET active = 0 WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// Delete removes the subscription row.  ErrNotFound when the id is unknown.
func (r *SubscriptionRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}
