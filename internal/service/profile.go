package service

import (
    "context"
    "errors"
    "io"
    "strings"
    "time"

    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/storage"
    "github.com/iliyamo/artist-booking/internal/validation"
)

// ArtistStore is implemented by repository.ArtistRepo.
type ArtistStore interface {
    AvailabilityLister
    GetProfile(ctx context.Context, profileID uint64) (*model.ArtistProfile, error)
    UpsertProfile(ctx context.Context, a *model.ArtistProfile) error
    GetSocialLinks(ctx context.Context, profileID uint64) (model.SocialLinks, error)
    UpsertSocialLinks(ctx context.Context, s model.SocialLinks) error
    AddMedia(ctx context.Context, m *model.ArtistMedia) error
    CountMedia(ctx context.Context, profileID uint64) (int, error)
    ListMedia(ctx context.Context, profileID uint64) ([]model.ArtistMedia, error)
    DeleteMedia(ctx context.Context, id, profileID uint64) (string, error)
    AddAvailability(ctx context.Context, a *model.Availability) error
    RemoveAvailability(ctx context.Context, id, profileID uint64) error
    ListDiscoverable(ctx context.Context, now time.Time) ([]model.ArtistCard, error)
}

// Bucket is the media object store.
type Bucket interface {
    Put(prefix string, ownerID uint64, filename string, r io.Reader) (*storage.Object, error)
    Remove(key string) error
}

// ProfileService manages the caller's own profile, the artist profile,
// social links, availability and uploaded media.
type ProfileService struct {
    profiles ProfileStore
    artists  ArtistStore
    subs     SubscriptionStore
    bucket   Bucket
    cache    CachePurger
    now      func() time.Time
}

// NewProfileService wires profile management.  cache may be nil.
func NewProfileService(profiles ProfileStore, artists ArtistStore, subs SubscriptionStore, bucket Bucket, cache CachePurger) *ProfileService {
    if cache == nil {
        cache = nopPurger{}
    }
    return &ProfileService{profiles: profiles, artists: artists, subs: subs, bucket: bucket, cache: cache, now: time.Now}
}

// Session is the accessor the client polls on load.
type Session struct {
    ID      uint64 `json:"id"`
    Name    string `json:"name"`
    Email   string `json:"email"`
    Role    string `json:"role"`
    IsAdmin bool   `json:"is_admin"`
    Onboard bool   `json:"needs_onboarding"`
}

// Session returns the caller's identity and records activity.
func (s *ProfileService) Session(ctx context.Context, actor Actor) (*Session, error) {
    p, err := s.profiles.GetByID(ctx, actor.ID)
    if err != nil {
        return nil, err
    }
    if err := s.profiles.TouchLastActive(ctx, actor.ID, s.now()); err != nil {
        logging.Warn().Err(err).Uint64("user_id", actor.ID).Msg("touch last_active_at failed")
    }
    out := &Session{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role, IsAdmin: p.IsAdmin}
    if p.Role == model.RoleArtist {
        if _, err := s.artists.GetProfile(ctx, p.ID); errors.Is(err, ErrNotFound) {
            out.Onboard = true
        }
    }
    return out, nil
}

// Me returns the caller's profile.
func (s *ProfileService) Me(ctx context.Context, actor Actor) (*model.Profile, error) {
    return s.profiles.GetByID(ctx, actor.ID)
}

// ProfileInput carries the owner-editable profile fields.
type ProfileInput struct {
    Name    string `json:"name" validate:"required,max=120"`
    City    string `json:"city" validate:"max=120"`
    State   string `json:"state" validate:"max=60"`
    Country string `json:"country" validate:"max=60"`
}

// UpdateMe rewrites the caller's profile basics.
func (s *ProfileService) UpdateMe(ctx context.Context, actor Actor, in ProfileInput) (*model.Profile, error) {
    name := strings.TrimSpace(in.Name)
    if name == "" {
        return nil, invalid("name is required")
    }
    if err := s.profiles.UpdateBasics(ctx, actor.ID, name,
        strings.TrimSpace(in.City), strings.TrimSpace(in.State), strings.TrimSpace(in.Country)); err != nil {
        return nil, err
    }
    _ = s.cache.Purge(ctx)
    return s.profiles.GetByID(ctx, actor.ID)
}

// ArtistInput carries the artist profile fields.
type ArtistInput struct {
    StageName     string `json:"stage_name" validate:"required,max=160"`
    Genre         string `json:"genre" validate:"max=80"`
    Category      string `json:"category" validate:"max=80"`
    Bio           string `json:"bio"`
    Equipment     string `json:"equipment"`
    PriceMinCents uint32 `json:"price_min_cents"`
    PriceMaxCents uint32 `json:"price_max_cents"`
    PriceNotes    string `json:"price_notes" validate:"max=255"`
}

// UpsertArtist creates or updates the artist profile of target.  The
// owner or an admin may call it.  The first upsert is the onboarding step
// and grants a free subscription so the artist becomes discoverable.
func (s *ProfileService) UpsertArtist(ctx context.Context, actor Actor, target uint64, in ArtistInput) (*model.ArtistProfile, error) {
    if target != actor.ID && !actor.IsAdmin {
        return nil, ErrForbidden
    }
    if _, err := loadArtist(ctx, s.profiles, target); err != nil {
        return nil, err
    }
    if strings.TrimSpace(in.StageName) == "" {
        return nil, invalid("stage_name is required")
    }
    if in.PriceMaxCents != 0 && in.PriceMaxCents < in.PriceMinCents {
        return nil, invalid("price_max_cents must not be below price_min_cents")
    }
    _, err := s.artists.GetProfile(ctx, target)
    onboarding := errors.Is(err, ErrNotFound)
    if err != nil && !onboarding {
        return nil, err
    }
    a := &model.ArtistProfile{
        ProfileID:     target,
        StageName:     strings.TrimSpace(in.StageName),
        Genre:         strings.TrimSpace(in.Genre),
        Category:      strings.TrimSpace(in.Category),
        Bio:           in.Bio,
        Equipment:     in.Equipment,
        PriceMinCents: in.PriceMinCents,
        PriceMaxCents: in.PriceMaxCents,
        PriceNotes:    strings.TrimSpace(in.PriceNotes),
    }
    if err := s.artists.UpsertProfile(ctx, a); err != nil {
        return nil, err
    }
    if onboarding {
        if err := s.subs.EnsureFree(ctx, target); err != nil {
            return nil, err
        }
    }
    _ = s.cache.Purge(ctx)
    return s.artists.GetProfile(ctx, target)
}

// UpdateSocial replaces the caller's social links.
func (s *ProfileService) UpdateSocial(ctx context.Context, actor Actor, links model.SocialLinks) (model.SocialLinks, error) {
    if !actor.IsArtist() {
        return model.SocialLinks{}, ErrForbidden
    }
    links.ProfileID = actor.ID
    for _, n := range model.SocialNetworks {
        if v := links.Link(n); v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
            return model.SocialLinks{}, invalid("%s must be an http(s) URL", n)
        }
    }
    if err := s.artists.UpsertSocialLinks(ctx, links); err != nil {
        return model.SocialLinks{}, err
    }
    _ = s.cache.Purge(ctx)
    return links, nil
}

// AvailabilityInput blocks one date.
type AvailabilityInput struct {
    Date string `json:"date" validate:"required,ymd"`
    Note string `json:"note" validate:"max=255"`
}

// AddAvailability marks a date unavailable for the calling artist.
func (s *ProfileService) AddAvailability(ctx context.Context, actor Actor, in AvailabilityInput) (*model.Availability, error) {
    if !actor.IsArtist() {
        return nil, ErrForbidden
    }
    if !validation.IsDate(in.Date) {
        return nil, invalid("date must be a date (YYYY-MM-DD)")
    }
    a := &model.Availability{ProfileID: actor.ID, Date: in.Date, Note: strings.TrimSpace(in.Note)}
    if err := s.artists.AddAvailability(ctx, a); err != nil {
        return nil, err
    }
    return a, nil
}

// RemoveAvailability unblocks a date.
func (s *ProfileService) RemoveAvailability(ctx context.Context, actor Actor, id uint64) error {
    if !actor.IsArtist() {
        return ErrForbidden
    }
    return s.artists.RemoveAvailability(ctx, id, actor.ID)
}

// ListAvailability returns the artist's blocks, all of them when from/to
// are empty.
func (s *ProfileService) ListAvailability(ctx context.Context, artistID uint64, from, to string) ([]model.Availability, error) {
    if (from != "" && !validation.IsDate(from)) || (to != "" && !validation.IsDate(to)) {
        return nil, invalid("from and to must be dates (YYYY-MM-DD)")
    }
    return s.artists.ListAvailability(ctx, artistID, from, to)
}

// UploadAvatar stores a profile picture under profiles/ and links it.
func (s *ProfileService) UploadAvatar(ctx context.Context, actor Actor, filename string, r io.Reader) (*model.Profile, error) {
    obj, err := s.put(storage.PrefixProfiles, actor.ID, filename, r)
    if err != nil {
        return nil, err
    }
    if storage.MediaKind(obj.ContentType) != model.MediaImage {
        _ = s.bucket.Remove(obj.Key)
        return nil, invalid("avatar must be an image")
    }
    if err := s.profiles.SetAvatar(ctx, actor.ID, obj.URL); err != nil {
        return nil, err
    }
    _ = s.cache.Purge(ctx)
    return s.profiles.GetByID(ctx, actor.ID)
}

// UploadMedia adds a portfolio item under artist-media/, enforcing the
// tier limit (free 5, standard 20, premium 50).  Without an entitled
// subscription the free limit applies.
func (s *ProfileService) UploadMedia(ctx context.Context, actor Actor, filename, caption string, r io.Reader) (*model.ArtistMedia, error) {
    if !actor.IsArtist() {
        return nil, ErrForbidden
    }
    ap, err := s.artists.GetProfile(ctx, actor.ID)
    if err != nil {
        return nil, err
    }
    n, err := s.artists.CountMedia(ctx, actor.ID)
    if err != nil {
        return nil, err
    }
    sub, err := s.subs.GetByProfile(ctx, actor.ID)
    if err != nil && !errors.Is(err, ErrNotFound) {
        return nil, err
    }
    tier := model.PlanFree
    if sub.Entitled(s.now()) {
        tier = ap.MediaTier
    }
    if n >= model.MediaLimit(tier) {
        return nil, ErrMediaLimit
    }
    obj, err := s.put(storage.PrefixArtistMedia, actor.ID, filename, r)
    if err != nil {
        return nil, err
    }
    m := &model.ArtistMedia{
        ProfileID:   actor.ID,
        Kind:        storage.MediaKind(obj.ContentType),
        URL:         obj.URL,
        StoragePath: obj.Key,
        Caption:     strings.TrimSpace(caption),
    }
    if err := s.artists.AddMedia(ctx, m); err != nil {
        _ = s.bucket.Remove(obj.Key)
        return nil, err
    }
    return m, nil
}

// DeleteMedia removes a portfolio item and its stored object.
func (s *ProfileService) DeleteMedia(ctx context.Context, actor Actor, id uint64) error {
    key, err := s.artists.DeleteMedia(ctx, id, actor.ID)
    if err != nil {
        return err
    }
    if err := s.bucket.Remove(key); err != nil {
        logging.Warn().Err(err).Str("key", key).Msg("remove media object failed")
    }
    return nil
}

func (s *ProfileService) put(prefix string, owner uint64, filename string, r io.Reader) (*storage.Object, error) {
    obj, err := s.bucket.Put(prefix, owner, filename, r)
    switch {
    case errors.Is(err, storage.ErrTooLarge):
        return nil, invalid("file too large")
    case errors.Is(err, storage.ErrUnsupported):
        return nil, invalid("only image, video and audio files are accepted")
    }
    return obj, err
}
