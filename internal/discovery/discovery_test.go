package discovery

import (
    "reflect"
    "testing"

    "github.com/iliyamo/artist-booking/internal/model"
)

func fixture() []model.ArtistCard {
    return []model.ArtistCard{
        {ProfileID: 1, Name: "Ava Lee", StageName: "DJ Ava", Genre: "House", Category: "DJ", City: "Sydney", State: "NSW",
            Social: model.SocialLinks{Instagram: "https://instagram.com/djava"}},
        {ProfileID: 2, Name: "Ben Ho", StageName: "The Tides", Genre: "Rock", Category: "Band", City: "Melbourne", State: "VIC", Premium: true,
            Social: model.SocialLinks{Spotify: "https://open.spotify.com/tides", Instagram: "https://instagram.com/tides"}},
        {ProfileID: 3, Name: "Cleo", StageName: "Cleo Live", Genre: "house", Category: "DJ", City: "North Sydney", State: "nsw"},
        {ProfileID: 4, Name: "Dan", StageName: "Dan & Co", Genre: "Jazz", Category: "Band", City: "Auckland", State: "AKL", Premium: true},
        {ProfileID: 5, Name: "Eve", StageName: "Evelyn", Genre: "Pop", Category: "Live Act", City: "Brisbane", State: "QLD"},
    }
}

func ids(cards []model.ArtistCard) []uint64 {
    out := make([]uint64, 0, len(cards))
    for _, c := range cards {
        out = append(out, c.ProfileID)
    }
    return out
}

func TestApply(t *testing.T) {
    cases := []struct {
        name string
        f    Filter
        want []uint64
    }{
        {"zero filter keeps all", Filter{}, []uint64{1, 2, 3, 4, 5}},
        {"genre exact case-insensitive", Filter{Genre: "HOUSE"}, []uint64{1, 3}},
        {"genre is not substring", Filter{Genre: "hou"}, []uint64{}},
        {"category and state", Filter{Category: "dj", State: "NSW"}, []uint64{1, 3}},
        {"city substring", Filter{City: "sydney"}, []uint64{1, 3}},
        {"name matches stage name", Filter{Name: "tides"}, []uint64{2}},
        {"name matches profile name", Filter{Name: "ben"}, []uint64{2}},
        {"social predicate", Filter{Socials: []string{"instagram"}}, []uint64{1, 2}},
        {"two social predicates", Filter{Socials: []string{"instagram", "spotify"}}, []uint64{2}},
        {"AND across predicates", Filter{Genre: "house", City: "north"}, []uint64{3}},
        {"blank text ignored", Filter{Genre: "  ", Socials: []string{" "}}, []uint64{1, 2, 3, 4, 5}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got := ids(Apply(fixture(), tc.f))
            if !reflect.DeepEqual(got, tc.want) {
                t.Fatalf("got %v, want %v", got, tc.want)
            }
        })
    }
}

func TestApplyIdempotent(t *testing.T) {
    filters := []Filter{
        {},
        {Genre: "house"},
        {City: "s", Socials: []string{"instagram"}},
        {Category: "band", Name: "d"},
    }
    for _, f := range filters {
        once := Apply(fixture(), f)
        twice := Apply(once, f)
        if !reflect.DeepEqual(once, twice) {
            t.Errorf("filter %+v not idempotent: %v vs %v", f, ids(once), ids(twice))
        }
    }
}

func TestApplyDoesNotMutateInput(t *testing.T) {
    in := fixture()
    _ = Apply(in, Filter{Genre: "rock"})
    if !reflect.DeepEqual(in, fixture()) {
        t.Fatal("input modified")
    }
}

func TestSortPremiumFirstStable(t *testing.T) {
    cards := fixture()
    SortPremiumFirst(cards)
    if got, want := ids(cards), []uint64{2, 4, 1, 3, 5}; !reflect.DeepEqual(got, want) {
        t.Fatalf("got %v, want %v", got, want)
    }
    seenFree := false
    for _, c := range cards {
        if !c.Premium {
            seenFree = true
        } else if seenFree {
            t.Fatalf("premium card %d after a free card", c.ProfileID)
        }
    }
}

func TestSearch(t *testing.T) {
    got := ids(Search(fixture(), Filter{Category: "band"}))
    if want := []uint64{2, 4}; !reflect.DeepEqual(got, want) {
        t.Fatalf("got %v, want %v", got, want)
    }
}
