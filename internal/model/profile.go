package model

import "time"

// Role values stored in profiles.role and in the JWT "role" claim.
const (
    RoleArtist  = "artist"
    RolePlanner = "planner"
)

// ValidRole reports whether r is a signup role.  Admin is a flag, not a role.
func ValidRole(r string) bool { return r == RoleArtist || r == RolePlanner }

// Profile is the identity record created at signup.  It is mutated by the
// owning user or an admin and never deleted.
type Profile struct {
    ID           uint64     `json:"id"`
    Name         string     `json:"name"`
    Email        string     `json:"email"`
    PasswordHash string     `json:"-"`
    Role         string     `json:"role"`
    IsAdmin      bool       `json:"is_admin"`
    City         string     `json:"city"`
    State        string     `json:"state"`
    Country      string     `json:"country"`
    AvatarURL    *string    `json:"avatar_url,omitempty"`
    LastActiveAt *time.Time `json:"last_active_at,omitempty"`
    CreatedAt    time.Time  `json:"created_at"`
    UpdatedAt    time.Time  `json:"updated_at"`
}

// ArtistProfile extends a Profile with role=artist.  PriceMinCents and
// PriceMaxCents describe the advertised price range; MediaTier selects the
// portfolio upload limit.
type ArtistProfile struct {
    ProfileID     uint64    `json:"profile_id"`
    StageName     string    `json:"stage_name"`
    Genre         string    `json:"genre"`
    Category      string    `json:"category"`
    Bio           string    `json:"bio"`
    Equipment     string    `json:"equipment"`
    PriceMinCents uint32    `json:"price_min_cents"`
    PriceMaxCents uint32    `json:"price_max_cents"`
    PriceNotes    string    `json:"price_notes"`
    MediaTier     string    `json:"media_tier"`
    CreatedAt     time.Time `json:"created_at"`
    UpdatedAt     time.Time `json:"updated_at"`
}

// Social networks an artist may link.
const (
    SocialInstagram  = "instagram"
    SocialFacebook   = "facebook"
    SocialYouTube    = "youtube"
    SocialSpotify    = "spotify"
    SocialSoundCloud = "soundcloud"
    SocialTikTok     = "tiktok"
    SocialWebsite    = "website"
)

// SocialNetworks lists every supported network in display order.
var SocialNetworks = []string{
    SocialInstagram, SocialFacebook, SocialYouTube, SocialSpotify,
    SocialSoundCloud, SocialTikTok, SocialWebsite,
}

// SocialLinks mirrors artist_social_links.  Empty strings mean "not linked".
type SocialLinks struct {
    ProfileID  uint64 `json:"profile_id"`
    Instagram  string `json:"instagram"`
    Facebook   string `json:"facebook"`
    YouTube    string `json:"youtube"`
    Spotify    string `json:"spotify"`
    SoundCloud string `json:"soundcloud"`
    TikTok     string `json:"tiktok"`
    Website    string `json:"website"`
}

// Link returns the URL stored for network, or "" when unknown or unset.
func (s SocialLinks) Link(network string) string {
    switch network {
    case SocialInstagram:
        return s.Instagram
    case SocialFacebook:
        return s.Facebook
    case SocialYouTube:
        return s.YouTube
    case SocialSpotify:
        return s.Spotify
    case SocialSoundCloud:
        return s.SoundCloud
    case SocialTikTok:
        return s.TikTok
    case SocialWebsite:
        return s.Website
    }
    return ""
}

// Has reports whether a link exists for network.
func (s SocialLinks) Has(network string) bool { return s.Link(network) != "" }

// Media kinds for artist portfolio entries.
const (
    MediaImage = "image"
    MediaVideo = "video"
    MediaAudio = "audio"
)

// ArtistMedia is a portfolio file stored in the media bucket.
type ArtistMedia struct {
    ID          uint64    `json:"id"`
    ProfileID   uint64    `json:"profile_id"`
    Kind        string    `json:"kind"`
    URL         string    `json:"url"`
    StoragePath string    `json:"-"`
    Caption     string    `json:"caption"`
    CreatedAt   time.Time `json:"created_at"`
}

// Availability is a date the artist has declared unavailable.
type Availability struct {
    ID        uint64    `json:"id"`
    ProfileID uint64    `json:"profile_id"`
    Date      string    `json:"date"`
    Note      string    `json:"note"`
    CreatedAt time.Time `json:"created_at"`
}

// Review is a planner's rating of an artist.
type Review struct {
    ID          uint64    `json:"id"`
    ArtistID    uint64    `json:"artist_id"`
    PlannerID   uint64    `json:"planner_id"`
    PlannerName string    `json:"planner_name,omitempty"`
    Rating      uint8     `json:"rating"`
    Comment     string    `json:"comment"`
    CreatedAt   time.Time `json:"created_at"`
}

// Favourite links a planner to an artist they saved.
type Favourite struct {
    PlannerID uint64    `json:"planner_id"`
    ArtistID  uint64    `json:"artist_id"`
    CreatedAt time.Time `json:"created_at"`
}

// ArtistCard is the denormalised row used by discovery: profile, artist
// profile, social links and subscription in one value.
type ArtistCard struct {
    ProfileID     uint64      `json:"profile_id"`
    Name          string      `json:"name"`
    StageName     string      `json:"stage_name"`
    Genre         string      `json:"genre"`
    Category      string      `json:"category"`
    City          string      `json:"city"`
    State         string      `json:"state"`
    AvatarURL     *string     `json:"avatar_url,omitempty"`
    PriceMinCents uint32      `json:"price_min_cents"`
    PriceMaxCents uint32      `json:"price_max_cents"`
    Plan          string      `json:"plan"`
    Premium       bool        `json:"premium"`
    Social        SocialLinks `json:"social"`
}
