package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// ArtistRepo covers the artist-owned tables: artist_profiles,
// artist_social_links, artist_media and artist_availability.
type ArtistRepo struct {
    db *sql.DB
}

// NewArtistRepo returns an ArtistRepo bound to db.
func NewArtistRepo(db *sql.DB) *ArtistRepo { return &ArtistRepo{db: db} }

// GetProfile returns the artist profile row for profileID.
func (r *ArtistRepo) GetProfile(ctx context.Context, profileID uint64) (*model.ArtistProfile, error) {
    var a model.ArtistProfile
    err := r.db.QueryRowContext(ctx,
        `SELECT profile_id, stage_name, genre, category, bio, equipment, price_min_cents, price_max_cents,
            price_notes, media_tier, created_at, updated_at
         FROM artist_profiles WHERE profile_id = ?`, profileID).
        Scan(&a.ProfileID, &a.StageName, &a.Genre, &a.Category, &a.Bio, &a.Equipment,
            &a.PriceMinCents, &a.PriceMaxCents, &a.PriceNotes, &a.MediaTier, &a.CreatedAt, &a.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &a, nil
}

// UpsertProfile creates the artist profile on onboarding or rewrites it
// afterwards.  media_tier is owned by the subscription and is not touched
// on update.
func (r *ArtistRepo) UpsertProfile(ctx context.Context, a *model.ArtistProfile) error {
    const q = `INSERT INTO artist_profiles
        (profile_id, stage_name, genre, category, bio, equipment, price_min_cents, price_max_cents, price_notes, media_tier)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'free')
        ON DUPLICATE KEY UPDATE stage_name = VALUES(stage_name), genre = VALUES(genre), category = VALUES(category),
            bio = VALUES(bio), equipment = VALUES(equipment), price_min_cents = VALUES(price_min_cents),
            price_max_cents = VALUES(price_max_cents), price_notes = VALUES(price_notes)`
    _, err := r.db.ExecContext(ctx, q, a.ProfileID, a.StageName, a.Genre, a.Category, a.Bio, a.Equipment,
        a.PriceMinCents, a.PriceMaxCents, a.PriceNotes)
    return err
}

// SetMediaTier changes the portfolio tier of an artist.
func (r *ArtistRepo) SetMediaTier(ctx context.Context, profileID uint64, tier string) error {
    _, err := r.db.ExecContext(ctx, `UPDATE artist_profiles SET media_tier = ? WHERE profile_id = ?`, tier, profileID)
    return err
}

// GetSocialLinks returns the links of an artist.  A missing row yields an
// empty set rather than an error.
func (r *ArtistRepo) GetSocialLinks(ctx context.Context, profileID uint64) (model.SocialLinks, error) {
    s := model.SocialLinks{ProfileID: profileID}
    err := r.db.QueryRowContext(ctx,
        `SELECT instagram, facebook, youtube, spotify, soundcloud, tiktok, website
         FROM artist_social_links WHERE profile_id = ?`, profileID).
        Scan(&s.Instagram, &s.Facebook, &s.YouTube, &s.Spotify, &s.SoundCloud, &s.TikTok, &s.Website)
    if errors.Is(err, sql.ErrNoRows) {
        return s, nil
    }
    return s, err
}

// UpsertSocialLinks replaces every link of the artist.
func (r *ArtistRepo) UpsertSocialLinks(ctx context.Context, s model.SocialLinks) error {
    const q = `INSERT INTO artist_social_links (profile_id, instagram, facebook, youtube, spotify, soundcloud, tiktok, website)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE instagram = VALUES(instagram), facebook = VALUES(facebook), youtube = VALUES(youtube),
            spotify = VALUES(spotify), soundcloud = VALUES(soundcloud), tiktok = VALUES(tiktok), website = VALUES(website)`
    _, err := r.db.ExecContext(ctx, q, s.ProfileID, s.Instagram, s.Facebook, s.YouTube, s.Spotify,
        s.SoundCloud, s.TikTok, s.Website)
    return err
}

// AddMedia inserts a portfolio item and sets its id.
func (r *ArtistRepo) AddMedia(ctx context.Context, m *model.ArtistMedia) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO artist_media (profile_id, kind, url, storage_path, caption) VALUES (?, ?, ?, ?, ?)`,
        m.ProfileID, m.Kind, m.URL, m.StoragePath, m.Caption)
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

// CountMedia returns how many portfolio items the artist holds.
func (r *ArtistRepo) CountMedia(ctx context.Context, profileID uint64) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artist_media WHERE profile_id = ?`, profileID).Scan(&n)
    return n, err
}

// ListMedia returns the artist's portfolio, oldest first.
func (r *ArtistRepo) ListMedia(ctx context.Context, profileID uint64) ([]model.ArtistMedia, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, profile_id, kind, url, storage_path, caption, created_at
         FROM artist_media WHERE profile_id = ? ORDER BY id`, profileID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.ArtistMedia{}
    for rows.Next() {
        var m model.ArtistMedia
        if err := rows.Scan(&m.ID, &m.ProfileID, &m.Kind, &m.URL, &m.StoragePath, &m.Caption, &m.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// DeleteMedia removes a portfolio item owned by profileID and returns its
// storage path so the object can be removed from the bucket.
func (r *ArtistRepo) DeleteMedia(ctx context.Context, id, profileID uint64) (string, error) {
    var owner uint64
    var path string
    err := r.db.QueryRowContext(ctx, `SELECT profile_id, storage_path FROM artist_media WHERE id = ?`, id).Scan(&owner, &path)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrNotFound
    }
    if err != nil {
        return "", err
    }
    if owner != profileID {
        return "", ErrForbidden
    }
    if _, err := r.db.ExecContext(ctx, `DELETE FROM artist_media WHERE id = ?`, id); err != nil {
        return "", err
    }
    return path, nil
}

// AddAvailability blocks a date.  Blocking the same date twice is a
// conflict.
func (r *ArtistRepo) AddAvailability(ctx context.Context, a *model.Availability) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO artist_availability (profile_id, date, note) VALUES (?, ?, ?)`, a.ProfileID, a.Date, a.Note)
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    a.ID = uint64(id)
    a.CreatedAt = time.Now().UTC()
    return nil
}

// RemoveAvailability deletes a block owned by profileID.
func (r *ArtistRepo) RemoveAvailability(ctx context.Context, id, profileID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM artist_availability WHERE id = ? AND profile_id = ?`, id, profileID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListAvailability returns the artist's blocks between from and to
// (inclusive, YYYY-MM-DD).  Empty bounds list everything.
func (r *ArtistRepo) ListAvailability(ctx context.Context, profileID uint64, from, to string) ([]model.Availability, error) {
    q := `SELECT id, profile_id, DATE_FORMAT(date, '%Y-%m-%d'), note, created_at FROM artist_availability WHERE profile_id = ?`
    args := []any{profileID}
    if from != "" && to != "" {
        q += ` AND date BETWEEN ? AND ?`
        args = append(args, from, to)
    }
    q += ` ORDER BY date`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Availability{}
    for rows.Next() {
        var a model.Availability
        if err := rows.Scan(&a.ID, &a.ProfileID, &a.Date, &a.Note, &a.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}

// cardSelect joins everything discovery needs into one row per artist.
const cardSelect = `SELECT p.id, p.name, ap.stage_name, ap.genre, ap.category, p.city, p.state, p.avatar_url,
    ap.price_min_cents, ap.price_max_cents, s.plan,
    COALESCE(sl.instagram, ''), COALESCE(sl.facebook, ''), COALESCE(sl.youtube, ''), COALESCE(sl.spotify, ''),
    COALESCE(sl.soundcloud, ''), COALESCE(sl.tiktok, ''), COALESCE(sl.website, '')
    FROM profiles p
    JOIN artist_profiles ap ON ap.profile_id = p.id
    JOIN subscriptions s ON s.profile_id = p.id
    LEFT JOIN artist_social_links sl ON sl.profile_id = p.id`

// ListDiscoverable returns every artist whose subscription is active and
// not expired at now, in signup order.  Filtering and ordering for display
// happen in the discovery package.
func (r *ArtistRepo) ListDiscoverable(ctx context.Context, now time.Time) ([]model.ArtistCard, error) {
    rows, err := r.db.QueryContext(ctx, cardSelect+`
        WHERE p.role = 'artist' AND s.active = 1 AND (s.expires_at IS NULL OR s.expires_at > ?)
        ORDER BY p.id`, now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.ArtistCard{}
    for rows.Next() {
        c, err := scanCard(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *c)
    }
    return out, rows.Err()
}

func scanCard(s rowScanner) (*model.ArtistCard, error) {
    var (
        c      model.ArtistCard
        avatar sql.NullString
    )
    err := s.Scan(&c.ProfileID, &c.Name, &c.StageName, &c.Genre, &c.Category, &c.City, &c.State, &avatar,
        &c.PriceMinCents, &c.PriceMaxCents, &c.Plan,
        &c.Social.Instagram, &c.Social.Facebook, &c.Social.YouTube, &c.Social.Spotify,
        &c.Social.SoundCloud, &c.Social.TikTok, &c.Social.Website)
    if err != nil {
        return nil, err
    }
    if avatar.Valid {
        c.AvatarURL = &avatar.String
    }
    c.Social.ProfileID = c.ProfileID
    c.Premium = model.IsPaid(c.Plan)
    return &c, nil
}
