// Package discovery filters and orders the artist grid.  Everything here is
// pure: the caller fetches the candidate set once and applies a Filter to it.
package discovery

import (
    "sort"
    "strings"

    "github.com/iliyamo/artist-booking/internal/model"
)

// Filter is the set of predicates a planner can combine.  Zero values mean
// "no constraint"; all set predicates are ANDed.
type Filter struct {
    Genre    string   `query:"genre"`
    Category string   `query:"category"`
    State    string   `query:"state"`
    Name     string   `query:"name"`
    City     string   `query:"city"`
    Socials  []string `query:"social"`
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
    return f.Genre == "" && f.Category == "" && f.State == "" &&
        f.Name == "" && f.City == "" && len(f.Socials) == 0
}

// normalized trims and lower-cases the text predicates once so Matches does
// not repeat it per card.
func (f Filter) normalized() Filter {
    out := Filter{
        Genre:    norm(f.Genre),
        Category: norm(f.Category),
        State:    norm(f.State),
        Name:     norm(f.Name),
        City:     norm(f.City),
    }
    for _, s := range f.Socials {
        if s = norm(s); s != "" {
            out.Socials = append(out.Socials, s)
        }
    }
    return out
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Matches reports whether card satisfies every predicate of f.  Genre,
// category and state are exact (case-insensitive); name and city are
// substring matches; each social entry requires that link to be present.
func (f Filter) Matches(card model.ArtistCard) bool {
    return f.normalized().matches(card)
}

func (f Filter) matches(card model.ArtistCard) bool {
    if f.Genre != "" && norm(card.Genre) != f.Genre {
        return false
    }
    if f.Category != "" && norm(card.Category) != f.Category {
        return false
    }
    if f.State != "" && norm(card.State) != f.State {
        return false
    }
    if f.Name != "" &&
        !strings.Contains(norm(card.StageName), f.Name) &&
        !strings.Contains(norm(card.Name), f.Name) {
        return false
    }
    if f.City != "" && !strings.Contains(norm(card.City), f.City) {
        return false
    }
    for _, network := range f.Socials {
        if !card.Social.Has(network) {
            return false
        }
    }
    return true
}

// Apply returns the cards matching f, preserving input order.  The input
// slice is not modified.  Apply(Apply(xs, f), f) equals Apply(xs, f).
func Apply(cards []model.ArtistCard, f Filter) []model.ArtistCard {
    nf := f.normalized()
    out := make([]model.ArtistCard, 0, len(cards))
    for _, c := range cards {
        if nf.matches(c) {
            out = append(out, c)
        }
    }
    return out
}

// SortPremiumFirst moves cards with a paid plan ahead of the rest.  The
// sort is stable so ties keep their fetched order.
func SortPremiumFirst(cards []model.ArtistCard) {
    sort.SliceStable(cards, func(i, j int) bool {
        return cards[i].Premium && !cards[j].Premium
    })
}

// Search applies f and then orders the result premium-first.
func Search(cards []model.ArtistCard, f Filter) []model.ArtistCard {
    out := Apply(cards, f)
    SortPremiumFirst(out)
    return out
}
