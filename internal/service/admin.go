package service

import (
    "context"
    "strings"
    "time"

    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/model"
)

// AdminStore is implemented by repository.AdminRepo.
type AdminStore interface {
    Stats(ctx context.Context) (model.PlatformStats, error)
    CreateAnnouncement(ctx context.Context, a *model.Announcement) error
    DeleteAnnouncement(ctx context.Context, id uint64) error
    ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
}

// EventLister lists every event for the console.
type EventLister interface {
    ListAll(ctx context.Context) ([]model.Event, error)
}

// AdminService backs the admin console.  Every method except
// Announcements requires an admin actor.
type AdminService struct {
    store    AdminStore
    profiles ProfileStore
    subs     SubscriptionStore
    events   EventLister
    cache    CachePurger
}

// NewAdminService wires the console.  cache may be nil.
func NewAdminService(store AdminStore, profiles ProfileStore, subs SubscriptionStore, events EventLister, cache CachePurger) *AdminService {
    if cache == nil {
        cache = nopPurger{}
    }
    return &AdminService{store: store, profiles: profiles, subs: subs, events: events, cache: cache}
}

// Stats returns the dashboard counters.
func (s *AdminService) Stats(ctx context.Context, actor Actor) (model.PlatformStats, error) {
    if !actor.IsAdmin {
        return model.PlatformStats{}, ErrForbidden
    }
    return s.store.Stats(ctx)
}

// contains reports whether any field holds q, case-insensitively.  An
// empty q matches everything.
func contains(q string, fields ...string) bool {
    q = strings.ToLower(strings.TrimSpace(q))
    if q == "" {
        return true
    }
    for _, f := range fields {
        if strings.Contains(strings.ToLower(f), q) {
            return true
        }
    }
    return false
}

// Users lists profiles matching q on name, email, role or city.
func (s *AdminService) Users(ctx context.Context, actor Actor, q string) ([]model.Profile, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    all, err := s.profiles.ListAll(ctx)
    if err != nil {
        return nil, err
    }
    out := make([]model.Profile, 0, len(all))
    for _, p := range all {
        if contains(q, p.Name, p.Email, p.Role, p.City) {
            out = append(out, p)
        }
    }
    return out, nil
}

// Events lists events matching q on title, location, owner or status.
func (s *AdminService) Events(ctx context.Context, actor Actor, q string) ([]model.Event, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    all, err := s.events.ListAll(ctx)
    if err != nil {
        return nil, err
    }
    out := make([]model.Event, 0, len(all))
    for _, e := range all {
        if contains(q, e.Title, e.Location, e.OwnerName, e.Status) {
            out = append(out, e)
        }
    }
    return out, nil
}

// Subscriptions lists subscriptions matching q on artist name, email or plan.
func (s *AdminService) Subscriptions(ctx context.Context, actor Actor, q string) ([]model.Subscription, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    all, err := s.subs.ListAll(ctx)
    if err != nil {
        return nil, err
    }
    out := make([]model.Subscription, 0, len(all))
    for _, sub := range all {
        if contains(q, sub.ArtistName, sub.Email, sub.Plan) {
            out = append(out, sub)
        }
    }
    return out, nil
}

// PlanInput sets an artist's plan.
type PlanInput struct {
    Plan      string     `json:"plan" validate:"required,oneof=free standard premium"`
    ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SetPlan activates or changes an artist's subscription.
func (s *AdminService) SetPlan(ctx context.Context, actor Actor, artistID uint64, in PlanInput) (*model.Subscription, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    switch in.Plan {
    case model.PlanFree, model.PlanStandard, model.PlanPremium:
    default:
        return nil, invalid("plan must be one of: free standard premium")
    }
    if _, err := loadArtist(ctx, s.profiles, artistID); err != nil {
        return nil, err
    }
    if err := s.subs.Upsert(ctx, artistID, in.Plan, in.ExpiresAt); err != nil {
        return nil, err
    }
    s.purge(ctx)
    logging.Info().Uint64("artist_id", artistID).Str("plan", in.Plan).Uint64("admin_id", actor.ID).Msg("subscription plan set")
    return s.subs.GetByProfile(ctx, artistID)
}

// DeactivateSubscription clears the active flag; the artist drops out of
// discovery on the next load.
func (s *AdminService) DeactivateSubscription(ctx context.Context, actor Actor, id uint64) error {
    if !actor.IsAdmin {
        return ErrForbidden
    }
    if err := s.subs.Deactivate(ctx, id); err != nil {
        return err
    }
    s.purge(ctx)
    logging.Info().Uint64("subscription_id", id).Uint64("admin_id", actor.ID).Msg("subscription deactivated")
    return nil
}

// DeleteSubscription removes the subscription row.
func (s *AdminService) DeleteSubscription(ctx context.Context, actor Actor, id uint64) error {
    if !actor.IsAdmin {
        return ErrForbidden
    }
    if err := s.subs.Delete(ctx, id); err != nil {
        return err
    }
    s.purge(ctx)
    logging.Info().Uint64("subscription_id", id).Uint64("admin_id", actor.ID).Msg("subscription deleted")
    return nil
}

// AnnouncementInput is a broadcast to every user.
type AnnouncementInput struct {
    Title string `json:"title" validate:"required,max=200"`
    Body  string `json:"body" validate:"required"`
}

// Announce publishes an announcement.
func (s *AdminService) Announce(ctx context.Context, actor Actor, in AnnouncementInput) (*model.Announcement, error) {
    if !actor.IsAdmin {
        return nil, ErrForbidden
    }
    title, body := strings.TrimSpace(in.Title), strings.TrimSpace(in.Body)
    if title == "" || body == "" {
        return nil, invalid("title and body are required")
    }
    a := &model.Announcement{Title: title, Body: body, CreatedBy: actor.ID}
    if err := s.store.CreateAnnouncement(ctx, a); err != nil {
        return nil, err
    }
    s.purge(ctx)
    return a, nil
}

// DeleteAnnouncement removes an announcement.
func (s *AdminService) DeleteAnnouncement(ctx context.Context, actor Actor, id uint64) error {
    if !actor.IsAdmin {
        return ErrForbidden
    }
    if err := s.store.DeleteAnnouncement(ctx, id); err != nil {
        return err
    }
    s.purge(ctx)
    return nil
}

// Announcements lists every announcement for any user.
func (s *AdminService) Announcements(ctx context.Context) ([]model.Announcement, error) {
    return s.store.ListAnnouncements(ctx)
}

func (s *AdminService) purge(ctx context.Context) {
    if err := s.cache.Purge(ctx); err != nil {
        logging.Warn().Err(err).Msg("response cache purge failed")
    }
}
