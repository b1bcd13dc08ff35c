package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
)

// ReviewRepo stores planner reviews and favourites, the two planner to
// artist relations.
type ReviewRepo struct {
    db *sql.DB
}

// NewReviewRepo returns a ReviewRepo bound to db.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// CreateReview inserts a review.  A planner reviews an artist at most once.
func (r *ReviewRepo) CreateReview(ctx context.Context, rv *model.Review) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO artist_reviews (artist_id, planner_id, rating, comment) VALUES (?, ?, ?, ?)`,
        rv.ArtistID, rv.PlannerID, rv.Rating, rv.Comment)
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
    rv.ID = uint64(id)
    rv.CreatedAt = time.Now().UTC()
    return nil
}

// ListReviews returns the reviews of an artist, newest first.
func (r *ReviewRepo) ListReviews(ctx context.Context, artistID uint64) ([]model.Review, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT rv.id, rv.artist_id, rv.planner_id, p.name, rv.rating, rv.comment, rv.created_at
         FROM artist_reviews rv JOIN profiles p ON p.id = rv.planner_id
         WHERE rv.artist_id = ? ORDER BY rv.created_at DESC, rv.id DESC`, artistID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Review{}
    for rows.Next() {
        var rv model.Review
        if err := rows.Scan(&rv.ID, &rv.ArtistID, &rv.PlannerID, &rv.PlannerName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, rv)
    }
    return out, rows.Err()
}

// ToggleFavourite adds the pair when absent and removes it otherwise.  It
// reports whether the artist is a favourite after the call.
func (r *ReviewRepo) ToggleFavourite(ctx context.Context, plannerID, artistID uint64) (bool, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM favourites WHERE planner_id = ? AND artist_id = ?`, plannerID, artistID)
    if err != nil {
        return false, err
    }
    if n, _ := res.RowsAffected(); n > 0 {
        return false, nil
    }
    if _, err := r.db.ExecContext(ctx,
        `INSERT INTO favourites (planner_id, artist_id) VALUES (?, ?)`, plannerID, artistID); err != nil {
        if isDuplicate(err) {
            return true, nil
        }
        return false, err
    }
    return true, nil
}

// ListFavourites returns the discovery cards of the planner's favourites.
// Artists without an active subscription are still listed.
func (r *ReviewRepo) ListFavourites(ctx context.Context, plannerID uint64) ([]model.ArtistCard, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT p.id, p.name, ap.stage_name, ap.genre, ap.category, p.city, p.state, p.avatar_url,
        ap.price_min_cents, ap.price_max_cents, COALESCE(s.plan, 'free'),
        COALESCE(sl.instagram, ''), COALESCE(sl.facebook, ''), COALESCE(sl.youtube, ''), COALESCE(sl.spotify, ''),
        COALESCE(sl.soundcloud, ''), COALESCE(sl.tiktok, ''), COALESCE(sl.website, '')
        FROM favourites f
        JOIN profiles p ON p.id = f.artist_id
        JOIN artist_profiles ap ON ap.profile_id = p.id
        LEFT JOIN subscriptions s ON s.profile_id = p.id AND s.active = 1
        LEFT JOIN artist_social_links sl ON sl.profile_id = p.id
        WHERE f.planner_id = ? ORDER BY f.created_at DESC`, plannerID)
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
