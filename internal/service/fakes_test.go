package service

import (
    "bytes"
    "context"
    "io"
    "net/http"
    "sort"
    "strconv"
    "sync"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/repository"
    "github.com/iliyamo/artist-booking/internal/storage"
)

// memDB is an in-memory stand-in for the MySQL schema.  Each fake store
// below is a view over it, mirroring one repository.
type memDB struct {
    mu       sync.Mutex
    seq      uint64
    profiles map[uint64]*model.Profile
    artists  map[uint64]*model.ArtistProfile
    social   map[uint64]model.SocialLinks
    media    map[uint64]*model.ArtistMedia
    blocks   map[uint64]*model.Availability
    subs     map[uint64]*model.Subscription // by profile id
    requests map[uint64]*model.BookingRequest
    bookings map[uint64]*model.Booking
    reviews  []model.Review
    favs     map[[2]uint64]bool
    events   map[uint64]*model.Event
    evMedia  []model.EventMedia
    attend   map[[2]uint64]bool
    messages []model.Message
    adminMsg []model.AdminMessage
    news     []model.Announcement
    purges   int
}

func newMemDB() *memDB {
    return &memDB{
        profiles: map[uint64]*model.Profile{},
        artists:  map[uint64]*model.ArtistProfile{},
        social:   map[uint64]model.SocialLinks{},
        media:    map[uint64]*model.ArtistMedia{},
        blocks:   map[uint64]*model.Availability{},
        subs:     map[uint64]*model.Subscription{},
        requests: map[uint64]*model.BookingRequest{},
        bookings: map[uint64]*model.Booking{},
        favs:     map[[2]uint64]bool{},
        events:   map[uint64]*model.Event{},
        attend:   map[[2]uint64]bool{},
    }
}

func (db *memDB) next() uint64 { db.seq++; return db.seq }

// addProfile inserts a profile and returns its id.
func (db *memDB) addProfile(name, role string) uint64 {
    db.mu.Lock()
    defer db.mu.Unlock()
    id := db.next()
    db.profiles[id] = &model.Profile{ID: id, Name: name, Email: name + "@example.com", Role: role}
    return id
}

// addArtist inserts an onboarded artist with the given plan; plan "" means
// no subscription row.
func (db *memDB) addArtist(name, genre, plan string) uint64 {
    id := db.addProfile(name, model.RoleArtist)
    db.mu.Lock()
    defer db.mu.Unlock()
    tier := plan
    if tier == "" {
        tier = model.PlanFree
    }
    db.artists[id] = &model.ArtistProfile{ProfileID: id, StageName: name, Genre: genre, MediaTier: tier}
    if plan != "" {
        db.subs[id] = &model.Subscription{ID: db.next(), ProfileID: id, Plan: plan, Tier: plan, Active: true, ArtistName: name}
    }
    return id
}

func (db *memDB) Purge(context.Context) error {
    db.mu.Lock()
    defer db.mu.Unlock()
    db.purges++
    return nil
}

type fakeProfiles struct{ *memDB }

func (f fakeProfiles) GetByID(_ context.Context, id uint64) (*model.Profile, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    p, ok := f.profiles[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *p
    return &cp, nil
}

func (f fakeProfiles) ListAll(context.Context) ([]model.Profile, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Profile{}
    for _, p := range f.profiles {
        out = append(out, *p)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (f fakeProfiles) UpdateBasics(_ context.Context, id uint64, name, city, state, country string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    p, ok := f.profiles[id]
    if !ok {
        return repository.ErrNotFound
    }
    p.Name, p.City, p.State, p.Country = name, city, state, country
    return nil
}

func (f fakeProfiles) SetAvatar(_ context.Context, id uint64, url string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.profiles[id].AvatarURL = &url
    return nil
}

func (f fakeProfiles) TouchLastActive(_ context.Context, id uint64, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    t := now.UTC()
    f.profiles[id].LastActiveAt = &t
    return nil
}

type fakeSubs struct{ *memDB }

func (f fakeSubs) GetByProfile(_ context.Context, id uint64) (*model.Subscription, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    s, ok := f.subs[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *s
    return &cp, nil
}

func (f fakeSubs) ListAll(context.Context) ([]model.Subscription, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Subscription{}
    for _, s := range f.subs {
        out = append(out, *s)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (f fakeSubs) EnsureFree(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.subs[id]; !ok {
        f.subs[id] = &model.Subscription{ID: f.next(), ProfileID: id, Plan: model.PlanFree, Tier: model.PlanFree, Active: true}
    }
    return nil
}

func (f fakeSubs) Upsert(_ context.Context, id uint64, plan string, exp *time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    s, ok := f.subs[id]
    if !ok {
        s = &model.Subscription{ID: f.next(), ProfileID: id}
        f.subs[id] = s
    }
    s.Plan, s.Tier, s.Active, s.ExpiresAt = plan, plan, true, exp
    if a, ok := f.artists[id]; ok {
        a.MediaTier = plan
    }
    return nil
}

func (f fakeSubs) byID(id uint64) (uint64, bool) {
    for pid, s := range f.subs {
        if s.ID == id {
            return pid, true
        }
    }
    return 0, false
}

func (f fakeSubs) Deactivate(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    pid, ok := f.byID(id)
    if !ok {
        return repository.ErrNotFound
    }
    f.subs[pid].Active = false
    return nil
}

func (f fakeSubs) Delete(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    pid, ok := f.byID(id)
    if !ok {
        return repository.ErrNotFound
    }
    delete(f.subs, pid)
    return nil
}

type fakeBookings struct{ *memDB }

func (f fakeBookings) CreateRequest(_ context.Context, r *model.BookingRequest) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    r.ID = f.next()
    r.Status = model.RequestPending
    r.PlannerName = f.profiles[r.PlannerID].Name
    r.ArtistName = f.profiles[r.ArtistID].Name
    cp := *r
    f.requests[r.ID] = &cp
    return nil
}

func (f fakeBookings) GetRequest(_ context.Context, id uint64) (*model.BookingRequest, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.requests[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *r
    return &cp, nil
}

func (f fakeBookings) list(keep func(*model.BookingRequest) bool) []model.BookingRequest {
    out := []model.BookingRequest{}
    for _, r := range f.requests {
        if keep(r) {
            out = append(out, *r)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out
}

func (f fakeBookings) ListRequestsByPlanner(_ context.Context, id uint64) ([]model.BookingRequest, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.list(func(r *model.BookingRequest) bool { return r.PlannerID == id }), nil
}

func (f fakeBookings) ListRequestsByArtist(_ context.Context, id uint64, status string) ([]model.BookingRequest, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.list(func(r *model.BookingRequest) bool {
        return r.ArtistID == id && (status == "" || r.Status == status)
    }), nil
}

func (f fakeBookings) UpdatePendingRequest(_ context.Context, r *model.BookingRequest) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    cur, ok := f.requests[r.ID]
    if !ok || cur.PlannerID != r.PlannerID || cur.Status != model.RequestPending {
        return repository.ErrConflict
    }
    cp := *r
    f.requests[r.ID] = &cp
    return nil
}

func (f fakeBookings) DeclineRequest(_ context.Context, id, artistID uint64, resp string, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.requests[id]
    if !ok || r.ArtistID != artistID || r.Status != model.RequestPending {
        return repository.ErrConflict
    }
    r.ResponseMessage = resp
    return r.Transition(model.RequestDeclined, now)
}

func (f fakeBookings) CancelRequest(_ context.Context, id, plannerID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.requests[id]
    if !ok || r.PlannerID != plannerID || r.Status != model.RequestPending {
        return repository.ErrConflict
    }
    return r.Transition(model.RequestCancelled, time.Now())
}

func (f fakeBookings) AcceptRequest(_ context.Context, p repository.AcceptParams) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.requests[p.RequestID]
    if !ok {
        return nil, repository.ErrNotFound
    }
    if r.ArtistID != p.ArtistID {
        return nil, repository.ErrForbidden
    }
    if r.Status != model.RequestPending {
        return nil, repository.ErrConflict
    }
    b := &model.Booking{
        ID: f.next(), RequestID: r.ID, ArtistID: r.ArtistID, PlannerID: r.PlannerID,
        EventName: r.EventName, EventDate: r.EventDate, Location: r.Location,
        StartTime: p.StartTime, EndTime: p.EndTime, Status: model.BookingAccepted,
    }
    f.bookings[b.ID] = b
    r.ResponseMessage = p.Response
    _ = r.Transition(model.RequestAccepted, p.Now)
    cp := *b
    return &cp, nil
}

func (f fakeBookings) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *b
    return &cp, nil
}

func (f fakeBookings) ListBookingsForUser(_ context.Context, id uint64) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Booking{}
    for _, b := range f.bookings {
        if b.IsParty(id) {
            out = append(out, *b)
        }
    }
    return out, nil
}

func (f fakeBookings) ListAcceptedInRange(_ context.Context, id uint64, asArtist bool, from, to string) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Booking{}
    for _, b := range f.bookings {
        party := b.PlannerID
        if asArtist {
            party = b.ArtistID
        }
        if party == id && b.Status == model.BookingAccepted && b.EventDate >= from && b.EventDate <= to {
            out = append(out, *b)
        }
    }
    return out, nil
}

func (f fakeBookings) CancelBooking(_ context.Context, id, userID uint64, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok || !b.IsParty(userID) || b.Status != model.BookingAccepted {
        return repository.ErrConflict
    }
    return b.Cancel(userID, now)
}

func (f fakeBookings) HasAcceptedBooking(_ context.Context, plannerID, artistID uint64) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, b := range f.bookings {
        if b.PlannerID == plannerID && b.ArtistID == artistID && b.Status == model.BookingAccepted {
            return true, nil
        }
    }
    return false, nil
}

type fakeArtists struct{ *memDB }

func (f fakeArtists) GetProfile(_ context.Context, id uint64) (*model.ArtistProfile, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    a, ok := f.artists[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *a
    return &cp, nil
}

func (f fakeArtists) UpsertProfile(_ context.Context, a *model.ArtistProfile) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    tier := model.PlanFree
    if cur, ok := f.artists[a.ProfileID]; ok {
        tier = cur.MediaTier
    }
    cp := *a
    cp.MediaTier = tier
    f.artists[a.ProfileID] = &cp
    return nil
}

func (f fakeArtists) GetSocialLinks(_ context.Context, id uint64) (model.SocialLinks, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    s := f.social[id]
    s.ProfileID = id
    return s, nil
}

func (f fakeArtists) UpsertSocialLinks(_ context.Context, s model.SocialLinks) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.social[s.ProfileID] = s
    return nil
}

func (f fakeArtists) AddMedia(_ context.Context, m *model.ArtistMedia) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    m.ID = f.next()
    cp := *m
    f.media[m.ID] = &cp
    return nil
}

func (f fakeArtists) CountMedia(_ context.Context, id uint64) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, m := range f.media {
        if m.ProfileID == id {
            n++
        }
    }
    return n, nil
}

func (f fakeArtists) ListMedia(_ context.Context, id uint64) ([]model.ArtistMedia, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.ArtistMedia{}
    for _, m := range f.media {
        if m.ProfileID == id {
            out = append(out, *m)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (f fakeArtists) DeleteMedia(_ context.Context, id, profileID uint64) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    m, ok := f.media[id]
    if !ok {
        return "", repository.ErrNotFound
    }
    if m.ProfileID != profileID {
        return "", repository.ErrForbidden
    }
    delete(f.media, id)
    return m.StoragePath, nil
}

func (f fakeArtists) AddAvailability(_ context.Context, a *model.Availability) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, b := range f.blocks {
        if b.ProfileID == a.ProfileID && b.Date == a.Date {
            return repository.ErrConflict
        }
    }
    a.ID = f.next()
    cp := *a
    f.blocks[a.ID] = &cp
    return nil
}

func (f fakeArtists) RemoveAvailability(_ context.Context, id, profileID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.blocks[id]
    if !ok || b.ProfileID != profileID {
        return repository.ErrNotFound
    }
    delete(f.blocks, id)
    return nil
}

func (f fakeArtists) ListAvailability(_ context.Context, id uint64, from, to string) ([]model.Availability, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Availability{}
    for _, b := range f.blocks {
        if b.ProfileID == id && (from == "" || (b.Date >= from && b.Date <= to)) {
            out = append(out, *b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
    return out, nil
}

func (f fakeArtists) ListDiscoverable(_ context.Context, now time.Time) ([]model.ArtistCard, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.ArtistCard{}
    for id, a := range f.artists {
        sub := f.subs[id]
        if !sub.Entitled(now) {
            continue
        }
        p := f.profiles[id]
        out = append(out, model.ArtistCard{
            ProfileID: id, Name: p.Name, StageName: a.StageName, Genre: a.Genre, Category: a.Category,
            City: p.City, State: p.State, Plan: sub.Plan, Premium: model.IsPaid(sub.Plan), Social: f.social[id],
        })
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ProfileID < out[j].ProfileID })
    return out, nil
}

type fakeReviews struct{ *memDB }

func (f fakeReviews) CreateReview(_ context.Context, rv *model.Review) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, r := range f.reviews {
        if r.ArtistID == rv.ArtistID && r.PlannerID == rv.PlannerID {
            return repository.ErrConflict
        }
    }
    rv.ID = f.next()
    f.reviews = append(f.reviews, *rv)
    return nil
}

func (f fakeReviews) ListReviews(_ context.Context, artistID uint64) ([]model.Review, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Review{}
    for _, r := range f.reviews {
        if r.ArtistID == artistID {
            out = append(out, r)
        }
    }
    return out, nil
}

func (f fakeReviews) ToggleFavourite(_ context.Context, plannerID, artistID uint64) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    k := [2]uint64{plannerID, artistID}
    if f.favs[k] {
        delete(f.favs, k)
        return false, nil
    }
    f.favs[k] = true
    return true, nil
}

func (f fakeReviews) ListFavourites(_ context.Context, plannerID uint64) ([]model.ArtistCard, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.ArtistCard{}
    for k := range f.favs {
        if k[0] == plannerID {
            out = append(out, model.ArtistCard{ProfileID: k[1], Name: f.profiles[k[1]].Name})
        }
    }
    return out, nil
}

type fakeMessages struct{ *memDB }

func (f fakeMessages) Send(_ context.Context, m *model.Message) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    m.ID = f.next()
    m.CreatedAt = time.Now().UTC()
    f.messages = append(f.messages, *m)
    return nil
}

func (f fakeMessages) ThreadByBooking(_ context.Context, bookingID uint64) ([]model.Message, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Message{}
    for _, m := range f.messages {
        if m.BookingID != nil && *m.BookingID == bookingID {
            out = append(out, m)
        }
    }
    return out, nil
}

func (f fakeMessages) ThreadBetween(_ context.Context, a, b uint64) ([]model.Message, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Message{}
    for _, m := range f.messages {
        if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
            out = append(out, m)
        }
    }
    return out, nil
}

func (f fakeMessages) MarkReadFrom(_ context.Context, recipient, sender uint64, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i := range f.messages {
        m := &f.messages[i]
        if m.RecipientID == recipient && m.SenderID == sender && m.ReadAt == nil {
            t := now
            m.ReadAt = &t
        }
    }
    return nil
}

func (f fakeMessages) MarkBookingRead(_ context.Context, bookingID, recipient uint64, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i := range f.messages {
        m := &f.messages[i]
        if m.BookingID != nil && *m.BookingID == bookingID && m.RecipientID == recipient && m.ReadAt == nil {
            t := now
            m.ReadAt = &t
        }
    }
    return nil
}

func (f fakeMessages) CountUnread(_ context.Context, userID uint64) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, m := range f.messages {
        if m.RecipientID == userID && m.ReadAt == nil {
            n++
        }
    }
    return n, nil
}

func (f fakeMessages) SendAdmin(_ context.Context, m *model.AdminMessage) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    m.ID = f.next()
    m.CreatedAt = time.Now().UTC()
    f.adminMsg = append(f.adminMsg, *m)
    return nil
}

func (f fakeMessages) AdminThread(_ context.Context, userID uint64) ([]model.AdminMessage, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.AdminMessage{}
    for _, m := range f.adminMsg {
        if m.UserID == userID {
            out = append(out, m)
        }
    }
    return out, nil
}

func (f fakeMessages) MarkAdminRead(_ context.Context, userID uint64, sender string, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i := range f.adminMsg {
        m := &f.adminMsg[i]
        if m.UserID == userID && m.Sender == sender && m.ReadAt == nil {
            t := now
            m.ReadAt = &t
        }
    }
    return nil
}

func (f fakeMessages) countAdmin(keep func(model.AdminMessage) bool) int {
    n := 0
    for _, m := range f.adminMsg {
        if m.ReadAt == nil && keep(m) {
            n++
        }
    }
    return n
}

func (f fakeMessages) CountUnreadAdmin(_ context.Context, userID uint64) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.countAdmin(func(m model.AdminMessage) bool { return m.UserID == userID && m.Sender == model.SenderAdmin }), nil
}

func (f fakeMessages) CountUnreadFromUsers(context.Context) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.countAdmin(func(m model.AdminMessage) bool { return m.Sender == model.SenderUser }), nil
}

func (f fakeMessages) Conversations(context.Context) ([]model.Conversation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    last := map[uint64]model.Conversation{}
    for _, m := range f.adminMsg {
        c := last[m.UserID]
        c.UserID, c.LastMessage, c.LastSender, c.LastAt = m.UserID, m.Body, m.Sender, m.CreatedAt
        if m.Sender == model.SenderUser && m.ReadAt == nil {
            c.Unread++
        }
        last[m.UserID] = c
    }
    out := []model.Conversation{}
    for _, c := range last {
        out = append(out, c)
    }
    return out, nil
}

type fakeEvents struct{ *memDB }

func (f fakeEvents) Create(_ context.Context, e *model.Event) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    e.ID = f.next()
    e.Status = model.EventDraft
    cp := *e
    f.events[e.ID] = &cp
    return nil
}

func (f fakeEvents) Get(_ context.Context, id uint64) (*model.Event, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    e, ok := f.events[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *e
    return &cp, nil
}

func (f fakeEvents) Update(_ context.Context, e *model.Event) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    cur, ok := f.events[e.ID]
    if !ok || cur.OwnerID != e.OwnerID {
        return repository.ErrForbidden
    }
    cp := *e
    f.events[e.ID] = &cp
    return nil
}

func (f fakeEvents) SetCover(_ context.Context, id uint64, url string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.events[id].CoverURL = &url
    return nil
}

func (f fakeEvents) Publish(_ context.Context, id uint64, now time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    e, ok := f.events[id]
    if !ok {
        return repository.ErrNotFound
    }
    e.Status = model.EventPublished
    if e.PublishedAt == nil {
        t := now
        e.PublishedAt = &t
    }
    return nil
}

func (f fakeEvents) Delete(_ context.Context, id, ownerID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    e, ok := f.events[id]
    if !ok || (ownerID != 0 && e.OwnerID != ownerID) {
        return repository.ErrNotFound
    }
    delete(f.events, id)
    return nil
}

func (f fakeEvents) list(keep func(*model.Event) bool) []model.Event {
    out := []model.Event{}
    for _, e := range f.events {
        if keep(e) {
            out = append(out, *e)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out
}

func (f fakeEvents) ListPublished(_ context.Context, from string) ([]model.Event, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.list(func(e *model.Event) bool {
        return e.Status == model.EventPublished && (from == "" || e.EventDate >= from)
    }), nil
}

func (f fakeEvents) ListByOwner(_ context.Context, ownerID uint64) ([]model.Event, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.list(func(e *model.Event) bool { return e.OwnerID == ownerID }), nil
}

func (f fakeEvents) ListAll(context.Context) ([]model.Event, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.list(func(*model.Event) bool { return true }), nil
}

func (f fakeEvents) AddMedia(_ context.Context, m *model.EventMedia) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    m.ID = f.next()
    f.evMedia = append(f.evMedia, *m)
    return nil
}

func (f fakeEvents) ListMedia(_ context.Context, id uint64) ([]model.EventMedia, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.EventMedia{}
    for _, m := range f.evMedia {
        if m.EventID == id {
            out = append(out, m)
        }
    }
    return out, nil
}

func (f fakeEvents) ToggleAttendance(_ context.Context, eventID, userID uint64) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    k := [2]uint64{eventID, userID}
    if f.attend[k] {
        delete(f.attend, k)
        return false, nil
    }
    f.attend[k] = true
    return true, nil
}

type fakeAdmin struct{ *memDB }

func (f fakeAdmin) Stats(context.Context) (model.PlatformStats, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var s model.PlatformStats
    for _, p := range f.profiles {
        s.Users++
        if p.Role == model.RoleArtist {
            s.Artists++
        } else {
            s.Planners++
        }
    }
    for _, sub := range f.subs {
        if sub.Entitled(time.Now()) {
            s.ActiveSubscriptions++
        }
    }
    for _, r := range f.requests {
        if r.Status == model.RequestPending {
            s.PendingRequests++
        }
    }
    for _, b := range f.bookings {
        if b.Status == model.BookingAccepted {
            s.AcceptedBookings++
        }
    }
    for _, e := range f.events {
        if e.Status == model.EventPublished {
            s.PublishedEvents++
        }
    }
    return s, nil
}

func (f fakeAdmin) CreateAnnouncement(_ context.Context, a *model.Announcement) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    a.ID = f.next()
    f.news = append(f.news, *a)
    return nil
}

func (f fakeAdmin) DeleteAnnouncement(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i, a := range f.news {
        if a.ID == id {
            f.news = append(f.news[:i], f.news[i+1:]...)
            return nil
        }
    }
    return repository.ErrNotFound
}

func (f fakeAdmin) ListAnnouncements(context.Context) ([]model.Announcement, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]model.Announcement{}, f.news...), nil
}

// fakeBucket keeps objects in memory and sniffs content types like the
// real bucket.
type fakeBucket struct {
    mu      sync.Mutex
    seq     int
    objects map[string][]byte
}

func newFakeBucket() *fakeBucket { return &fakeBucket{objects: map[string][]byte{}} }

func (b *fakeBucket) Put(prefix string, owner uint64, filename string, r io.Reader) (*storage.Object, error) {
    data, err := io.ReadAll(r)
    if err != nil {
        return nil, err
    }
    ctype := http.DetectContentType(data)
    if storage.MediaKind(ctype) == "" {
        return nil, storage.ErrUnsupported
    }
    b.mu.Lock()
    defer b.mu.Unlock()
    b.seq++
    key := prefix + strconv.FormatUint(owner, 10) + "/" + strconv.Itoa(b.seq) + "-" + filename
    b.objects[key] = data
    return &storage.Object{Key: key, URL: "/storage/" + key, Size: int64(len(data)), ContentType: ctype}, nil
}

func (b *fakeBucket) Remove(key string) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    delete(b.objects, key)
    return nil
}

func (b *fakeBucket) count() int {
    b.mu.Lock()
    defer b.mu.Unlock()
    return len(b.objects)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func png() io.Reader { return bytes.NewReader(pngBytes) }
