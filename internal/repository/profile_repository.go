package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/utils"
)

// ProfileRepo reads and writes the profiles table.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// NewProfile is the signup payload persisted by Create.
type NewProfile struct {
    Name     string
    Email    string
    Password string
    Role     string
}

// Create hashes the password, inserts the profile and returns its id.
func (r *ProfileRepo) Create(ctx context.Context, p NewProfile, cost int) (uint64, error) {
    email := strings.ToLower(strings.TrimSpace(p.Email))
    hash, err := utils.HashPassword(p.Password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO profiles (name, email, password_hash, role) VALUES (?,?,?,?)",
        strings.TrimSpace(p.Name), email, hash, p.Role)
    if err != nil {
        if isDuplicate(err) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

const profileColumns = "id,name,email,password_hash,role,is_admin,city,state,country,avatar_url,last_active_at,created_at,updated_at"

func scanProfile(s rowScanner) (*model.Profile, error) {
    var (
        p          model.Profile
        avatar     sql.NullString
        lastActive sql.NullTime
    )
    err := s.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Role, &p.IsAdmin,
        &p.City, &p.State, &p.Country, &avatar, &lastActive, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if avatar.Valid {
        p.AvatarURL = &avatar.String
    }
    if lastActive.Valid {
        t := lastActive.Time
        p.LastActiveAt = &t
    }
    return &p, nil
}

// GetByEmail fetches a profile by normalized email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    p, err := scanProfile(r.DB.QueryRowContext(ctx,
        "SELECT "+profileColumns+" FROM profiles WHERE email=? LIMIT 1", email))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return p, err
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id uint64) (*model.Profile, error) {
    p, err := scanProfile(r.DB.QueryRowContext(ctx,
        "SELECT "+profileColumns+" FROM profiles WHERE id=? LIMIT 1", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return p, err
}

// ListAll returns every profile ordered by signup time, newest first.
func (r *ProfileRepo) ListAll(ctx context.Context) ([]model.Profile, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT "+profileColumns+" FROM profiles ORDER BY created_at DESC, id DESC")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Profile{}
    for rows.Next() {
        p, err := scanProfile(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

// UpdateBasics rewrites the owner-editable profile fields.
func (r *ProfileRepo) UpdateBasics(ctx context.Context, id uint64, name, city, state, country string) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE profiles SET name=?, city=?, state=?, country=? WHERE id=?",
        name, city, state, country, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// SetAvatar stores the public URL of the profile picture.
func (r *ProfileRepo) SetAvatar(ctx context.Context, id uint64, url string) error {
    _, err := r.DB.ExecContext(ctx, "UPDATE profiles SET avatar_url=? WHERE id=?", url, id)
    return err
}

// TouchLastActive records that the user was seen at now.
func (r *ProfileRepo) TouchLastActive(ctx context.Context, id uint64, now time.Time) error {
    _, err := r.DB.ExecContext(ctx, "UPDATE profiles SET last_active_at=? WHERE id=?", now.UTC(), id)
    return err
}
