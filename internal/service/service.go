// Package service implements the marketplace operations on top of the
// repositories: the booking lifecycle, messaging, discovery, profiles and
// media, events and the admin console.  Services depend on small store
// interfaces so they can be exercised with in-memory fakes.
package service

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/repository"
)

// Errors shared with the repository layer so handlers need a single
// mapping.
var (
    ErrNotFound  = repository.ErrNotFound
    ErrForbidden = repository.ErrForbidden
    ErrConflict  = repository.ErrConflict
)

var (
    // ErrInvalid wraps every input validation failure.
    ErrInvalid = errors.New("invalid input")
    // ErrNotAccepting rejects a request to an artist without an active subscription.
    ErrNotAccepting = errors.New("This artist is not currently accepting bookings")
    // ErrNotPending rejects a change to a request that already left pending.
    ErrNotPending = errors.New("booking request is no longer pending")
    // ErrBookingClosed rejects a cancel on a booking that is already cancelled.
    ErrBookingClosed = errors.New("booking is already cancelled")
    // ErrMediaLimit is returned when a portfolio upload exceeds the tier limit.
    ErrMediaLimit = errors.New("media limit reached for your plan")
    // ErrReviewNotAllowed is returned when a planner reviews an artist they never booked.
    ErrReviewNotAllowed = errors.New("only planners with an accepted booking can review this artist")
    // ErrPaymentRequired is returned by direct publish when publishing is paid.
    ErrPaymentRequired = errors.New("publishing requires payment; start a checkout")
)

func invalid(format string, args ...any) error {
    return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Actor is the authenticated caller, taken from the access token.
type Actor struct {
    ID      uint64
    Role    string
    IsAdmin bool
}

func (a Actor) IsArtist() bool  { return a.Role == model.RoleArtist }
func (a Actor) IsPlanner() bool { return a.Role == model.RolePlanner }

// ProfileStore is the subset of the profile repository the services use.
type ProfileStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Profile, error)
    ListAll(ctx context.Context) ([]model.Profile, error)
    UpdateBasics(ctx context.Context, id uint64, name, city, state, country string) error
    SetAvatar(ctx context.Context, id uint64, url string) error
    TouchLastActive(ctx context.Context, id uint64, now time.Time) error
}

// SubscriptionStore is the subset of the subscription repository the
// services use.
type SubscriptionStore interface {
    GetByProfile(ctx context.Context, profileID uint64) (*model.Subscription, error)
    ListAll(ctx context.Context) ([]model.Subscription, error)
    EnsureFree(ctx context.Context, profileID uint64) error
    Upsert(ctx context.Context, profileID uint64, plan string, expiresAt *time.Time) error
    Deactivate(ctx context.Context, id uint64) error
    Delete(ctx context.Context, id uint64) error
}

// CachePurger drops cached public responses after a change that affects
// discovery.
type CachePurger interface {
    Purge(ctx context.Context) error
}

type nopPurger struct{}

func (nopPurger) Purge(context.Context) error { return nil }

// loadArtist returns the profile of id when it is an artist, else ErrNotFound.
func loadArtist(ctx context.Context, profiles ProfileStore, id uint64) (*model.Profile, error) {
    p, err := profiles.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if p.Role != model.RoleArtist {
        return nil, ErrNotFound
    }
    return p, nil
}
