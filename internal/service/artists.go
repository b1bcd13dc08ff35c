package service

import (
    "context"
    "errors"
    "math"
    "strings"
    "time"

    "github.com/iliyamo/artist-booking/internal/discovery"
    "github.com/iliyamo/artist-booking/internal/model"
)

// ReviewStore is implemented by repository.ReviewRepo.
type ReviewStore interface {
    CreateReview(ctx context.Context, rv *model.Review) error
    ListReviews(ctx context.Context, artistID uint64) ([]model.Review, error)
    ToggleFavourite(ctx context.Context, plannerID, artistID uint64) (bool, error)
    ListFavourites(ctx context.Context, plannerID uint64) ([]model.ArtistCard, error)
}

// BookingChecker answers whether a planner has booked an artist.
type BookingChecker interface {
    HasAcceptedBooking(ctx context.Context, plannerID, artistID uint64) (bool, error)
}

// ArtistService serves discovery, public artist pages, reviews and
// favourites.
type ArtistService struct {
    profiles ProfileStore
    artists  ArtistStore
    subs     SubscriptionStore
    reviews  ReviewStore
    bookings BookingChecker
    now      func() time.Time
}

// NewArtistService wires the public artist surface.
func NewArtistService(profiles ProfileStore, artists ArtistStore, subs SubscriptionStore, reviews ReviewStore, bookings BookingChecker) *ArtistService {
    return &ArtistService{profiles: profiles, artists: artists, subs: subs, reviews: reviews, bookings: bookings, now: time.Now}
}

// Discover loads every subscribed artist once and applies f, premium first.
func (s *ArtistService) Discover(ctx context.Context, f discovery.Filter) ([]model.ArtistCard, error) {
    for _, n := range f.Socials {
        if strings.TrimSpace(n) != "" && !isNetwork(n) {
            return nil, invalid("unknown social network %q", n)
        }
    }
    cards, err := s.artists.ListDiscoverable(ctx, s.now())
    if err != nil {
        return nil, err
    }
    return discovery.Search(cards, f), nil
}

func isNetwork(n string) bool {
    n = strings.ToLower(strings.TrimSpace(n))
    for _, known := range model.SocialNetworks {
        if n == known {
            return true
        }
    }
    return false
}

// ArtistPage is the public detail view of an artist.
type ArtistPage struct {
    ID            uint64               `json:"id"`
    Name          string               `json:"name"`
    City          string               `json:"city"`
    State         string               `json:"state"`
    Country       string               `json:"country"`
    AvatarURL     *string              `json:"avatar_url,omitempty"`
    Artist        *model.ArtistProfile `json:"artist"`
    Social        model.SocialLinks    `json:"social"`
    Media         []model.ArtistMedia  `json:"media"`
    Reviews       []model.Review       `json:"reviews"`
    ReviewCount   int                  `json:"review_count"`
    AverageRating float64              `json:"average_rating"`
    Plan          string               `json:"plan"`
    Accepting     bool                 `json:"accepting_bookings"`
}

// Page assembles the public view of artist id.
func (s *ArtistService) Page(ctx context.Context, id uint64) (*ArtistPage, error) {
    p, err := loadArtist(ctx, s.profiles, id)
    if err != nil {
        return nil, err
    }
    ap, err := s.artists.GetProfile(ctx, id)
    if err != nil {
        return nil, err
    }
    social, err := s.artists.GetSocialLinks(ctx, id)
    if err != nil {
        return nil, err
    }
    media, err := s.artists.ListMedia(ctx, id)
    if err != nil {
        return nil, err
    }
    reviews, err := s.reviews.ListReviews(ctx, id)
    if err != nil {
        return nil, err
    }
    page := &ArtistPage{
        ID: p.ID, Name: p.Name, City: p.City, State: p.State, Country: p.Country, AvatarURL: p.AvatarURL,
        Artist: ap, Social: social, Media: media, Reviews: reviews, ReviewCount: len(reviews),
        AverageRating: AverageRating(reviews), Plan: model.PlanFree,
    }
    sub, err := s.subs.GetByProfile(ctx, id)
    if err != nil && !errors.Is(err, ErrNotFound) {
        return nil, err
    }
    if sub.Entitled(s.now()) {
        page.Plan = sub.Plan
        page.Accepting = true
    }
    return page, nil
}

// AverageRating is the mean rating rounded to one decimal, 0 without reviews.
func AverageRating(reviews []model.Review) float64 {
    if len(reviews) == 0 {
        return 0
    }
    var sum int
    for _, r := range reviews {
        sum += int(r.Rating)
    }
    return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

// ReviewInput is a planner's rating.
type ReviewInput struct {
    Rating  uint8  `json:"rating" validate:"required,min=1,max=5"`
    Comment string `json:"comment" validate:"max=2000"`
}

// Review records a planner's rating of an artist they have booked.
func (s *ArtistService) Review(ctx context.Context, actor Actor, artistID uint64, in ReviewInput) (*model.Review, error) {
    if !actor.IsPlanner() {
        return nil, ErrForbidden
    }
    if in.Rating < 1 || in.Rating > 5 {
        return nil, invalid("rating must be between 1 and 5")
    }
    if _, err := loadArtist(ctx, s.profiles, artistID); err != nil {
        return nil, err
    }
    ok, err := s.bookings.HasAcceptedBooking(ctx, actor.ID, artistID)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrReviewNotAllowed
    }
    rv := &model.Review{ArtistID: artistID, PlannerID: actor.ID, Rating: in.Rating, Comment: strings.TrimSpace(in.Comment)}
    if err := s.reviews.CreateReview(ctx, rv); err != nil {
        return nil, err
    }
    return rv, nil
}

// Reviews lists the reviews of an artist.
func (s *ArtistService) Reviews(ctx context.Context, artistID uint64) ([]model.Review, error) {
    return s.reviews.ListReviews(ctx, artistID)
}

// ToggleFavourite saves or unsaves an artist for the calling planner.
func (s *ArtistService) ToggleFavourite(ctx context.Context, actor Actor, artistID uint64) (bool, error) {
    if !actor.IsPlanner() {
        return false, ErrForbidden
    }
    if _, err := loadArtist(ctx, s.profiles, artistID); err != nil {
        return false, err
    }
    return s.reviews.ToggleFavourite(ctx, actor.ID, artistID)
}

// Favourites lists the calling planner's saved artists.
func (s *ArtistService) Favourites(ctx context.Context, actor Actor) ([]model.ArtistCard, error) {
    if !actor.IsPlanner() {
        return nil, ErrForbidden
    }
    return s.reviews.ListFavourites(ctx, actor.ID)
}
