package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/queue"
)

type world struct {
    db       *memDB
    pub      *queue.Recorder
    bucket   *fakeBucket
    bookings *BookingService
    profiles *ProfileService
    artists  *ArtistService
    messages *MessageService
    admin    *AdminService
}

var fixedNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func newWorld() *world {
    db := newMemDB()
    w := &world{db: db, pub: &queue.Recorder{}, bucket: newFakeBucket()}
    w.bookings = NewBookingService(fakeBookings{db}, fakeProfiles{db}, fakeSubs{db}, fakeArtists{db}, w.pub)
    w.bookings.now = func() time.Time { return fixedNow }
    w.profiles = NewProfileService(fakeProfiles{db}, fakeArtists{db}, fakeSubs{db}, w.bucket, db)
    w.profiles.now = func() time.Time { return fixedNow }
    w.artists = NewArtistService(fakeProfiles{db}, fakeArtists{db}, fakeSubs{db}, fakeReviews{db}, fakeBookings{db})
    w.artists.now = func() time.Time { return fixedNow }
    w.messages = NewMessageService(fakeMessages{db}, fakeProfiles{db}, fakeBookings{db})
    w.admin = NewAdminService(fakeAdmin{db}, fakeProfiles{db}, fakeSubs{db}, fakeEvents{db}, db)
    return w
}

func artistActor(id uint64) Actor  { return Actor{ID: id, Role: model.RoleArtist} }
func plannerActor(id uint64) Actor { return Actor{ID: id, Role: model.RolePlanner} }

func gala(artistID uint64) RequestInput {
    return RequestInput{ArtistID: artistID, EventName: "Gala", EventDate: "2026-11-14", Location: "Sydney"}
}

func TestCreateRequestRequiresSubscription(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", "")
    planner := w.db.addProfile("Pat", model.RolePlanner)

    _, err := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))
    if !errors.Is(err, ErrNotAccepting) {
        t.Fatalf("err = %v, want ErrNotAccepting", err)
    }
    if err.Error() != "This artist is not currently accepting bookings" {
        t.Fatalf("message = %q", err.Error())
    }
    if len(w.db.requests) != 0 {
        t.Fatal("request stored for unsubscribed artist")
    }
}

func TestCreateRequestPlannerOnly(t *testing.T) {
    w := newWorld()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    other := w.db.addArtist("Echo", "rock", model.PlanFree)
    if _, err := w.bookings.CreateRequest(context.Background(), artistActor(other), gala(artist)); !errors.Is(err, ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }
}

func TestCreateRequestValidation(t *testing.T) {
    w := newWorld()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := plannerActor(w.db.addProfile("Pat", model.RolePlanner))
    bad := "25:00"
    cases := map[string]func(*RequestInput){
        "no name":      func(in *RequestInput) { in.EventName = "  " },
        "bad date":     func(in *RequestInput) { in.EventDate = "14/11/2026" },
        "no location":  func(in *RequestInput) { in.Location = "" },
        "bad proposed": func(in *RequestInput) { in.ProposedStart = &bad },
    }
    for name, mutate := range cases {
        in := gala(artist)
        mutate(&in)
        if _, err := w.bookings.CreateRequest(context.Background(), planner, in); !errors.Is(err, ErrInvalid) {
            t.Errorf("%s: err = %v, want ErrInvalid", name, err)
        }
    }
}

func TestAcceptCreatesBooking(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanStandard)
    planner := w.db.addProfile("Pat", model.RolePlanner)

    req, err := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))
    if err != nil {
        t.Fatal(err)
    }
    if req.Status != model.RequestPending || !req.Actions.CanEdit || req.Actions.CanAccept {
        t.Fatalf("unexpected new request %+v", req)
    }

    b, err := w.bookings.Accept(ctx, artistActor(artist), req.ID, AcceptInput{StartTime: "18:00", EndTime: "23:00", Response: " see you "})
    if err != nil {
        t.Fatal(err)
    }
    if b.EventDate != "2026-11-14" || b.StartTime != "18:00" || b.EndTime != "23:00" || b.Status != model.BookingAccepted {
        t.Fatalf("booking = %+v", b)
    }

    got, err := w.bookings.GetRequest(ctx, artistActor(artist), req.ID)
    if err != nil {
        t.Fatal(err)
    }
    if got.Status != model.RequestAccepted || got.ResponseMessage != "see you" || got.RespondedAt == nil {
        t.Fatalf("request after accept = %+v", got.BookingRequest)
    }
    if got.Actions != (model.RequestActions{}) {
        t.Fatalf("terminal request actions = %+v", got.Actions)
    }

    cal, err := w.bookings.Calendar(ctx, plannerActor(planner), "2026-11")
    if err != nil {
        t.Fatal(err)
    }
    if len(cal) != 1 || cal[0].BookingID != b.ID || cal[0].Date != "2026-11-14" || cal[0].StartTime != "18:00" {
        t.Fatalf("planner calendar = %+v", cal)
    }

    want := []string{queue.TypeRequestCreated, queue.TypeRequestAccepted}
    if types := w.pub.Types(); len(types) != 2 || types[0] != want[0] || types[1] != want[1] {
        t.Fatalf("published %v, want %v", types, want)
    }
}

func TestAcceptRejectsBadTimes(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := w.db.addProfile("Pat", model.RolePlanner)
    req, _ := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))
    if _, err := w.bookings.Accept(ctx, artistActor(artist), req.ID, AcceptInput{StartTime: "6pm", EndTime: "23:00"}); !errors.Is(err, ErrInvalid) {
        t.Fatalf("err = %v, want ErrInvalid", err)
    }
    // overnight sets are allowed
    if _, err := w.bookings.Accept(ctx, artistActor(artist), req.ID, AcceptInput{StartTime: "22:00", EndTime: "02:00"}); err != nil {
        t.Fatalf("overnight accept: %v", err)
    }
}

func TestDeclineThenAcceptIsRejected(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := w.db.addProfile("Pat", model.RolePlanner)
    req, _ := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))

    view, err := w.bookings.Decline(ctx, artistActor(artist), req.ID, "booked out")
    if err != nil {
        t.Fatal(err)
    }
    if view.Status != model.RequestDeclined || view.Actions != (model.RequestActions{}) {
        t.Fatalf("declined view = %+v", view)
    }
    if _, err := w.bookings.Accept(ctx, artistActor(artist), req.ID, AcceptInput{StartTime: "18:00", EndTime: "23:00"}); !errors.Is(err, ErrNotPending) {
        t.Fatalf("accept after decline: err = %v", err)
    }
    if len(w.db.bookings) != 0 {
        t.Fatal("booking created for declined request")
    }
}

func TestTransitionAuthorization(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := w.db.addProfile("Pat", model.RolePlanner)
    stranger := w.db.addProfile("Sam", model.RolePlanner)
    req, _ := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))

    if _, err := w.bookings.Accept(ctx, plannerActor(planner), req.ID, AcceptInput{StartTime: "18:00", EndTime: "23:00"}); !errors.Is(err, ErrForbidden) {
        t.Errorf("planner accept: err = %v", err)
    }
    if _, err := w.bookings.Cancel(ctx, artistActor(artist), req.ID); !errors.Is(err, ErrForbidden) {
        t.Errorf("artist cancel: err = %v", err)
    }
    if _, err := w.bookings.Decline(ctx, plannerActor(stranger), req.ID, ""); !errors.Is(err, ErrNotFound) {
        t.Errorf("stranger decline: err = %v", err)
    }
    if _, err := w.bookings.GetRequest(ctx, plannerActor(stranger), req.ID); !errors.Is(err, ErrNotFound) {
        t.Errorf("stranger get: err = %v", err)
    }
}

func TestEditAndCancelOnlyWhilePending(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := plannerActor(w.db.addProfile("Pat", model.RolePlanner))
    req, _ := w.bookings.CreateRequest(ctx, planner, gala(artist))

    in := gala(artist)
    in.Location = "Melbourne"
    view, err := w.bookings.Update(ctx, planner, req.ID, in)
    if err != nil {
        t.Fatal(err)
    }
    if view.Location != "Melbourne" || view.Status != model.RequestPending {
        t.Fatalf("updated = %+v", view)
    }

    view, err = w.bookings.Cancel(ctx, planner, req.ID)
    if err != nil {
        t.Fatal(err)
    }
    if view.Status != model.RequestCancelled || view.RespondedAt != nil {
        t.Fatalf("cancelled = %+v", view)
    }
    if _, err := w.bookings.Update(ctx, planner, req.ID, in); !errors.Is(err, ErrNotPending) {
        t.Fatalf("edit after cancel: err = %v", err)
    }
    if _, err := w.bookings.Cancel(ctx, planner, req.ID); !errors.Is(err, ErrNotPending) {
        t.Fatalf("second cancel: err = %v", err)
    }
}

func TestCancelBooking(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := w.db.addProfile("Pat", model.RolePlanner)
    stranger := w.db.addProfile("Sam", model.RolePlanner)
    req, _ := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))
    b, err := w.bookings.Accept(ctx, artistActor(artist), req.ID, AcceptInput{StartTime: "18:00", EndTime: "23:00"})
    if err != nil {
        t.Fatal(err)
    }

    if _, err := w.bookings.CancelBooking(ctx, plannerActor(stranger), b.ID); !errors.Is(err, ErrNotFound) {
        t.Fatalf("stranger cancel: err = %v", err)
    }
    got, err := w.bookings.CancelBooking(ctx, artistActor(artist), b.ID)
    if err != nil {
        t.Fatal(err)
    }
    if got.Status != model.BookingCancelled || got.CancelledBy == nil || *got.CancelledBy != artist {
        t.Fatalf("cancelled booking = %+v", got)
    }
    if _, err := w.bookings.CancelBooking(ctx, plannerActor(planner), b.ID); !errors.Is(err, ErrBookingClosed) {
        t.Fatalf("second cancel: err = %v", err)
    }
    cal, err := w.bookings.Calendar(ctx, artistActor(artist), "2026-11")
    if err != nil {
        t.Fatal(err)
    }
    if len(cal) != 0 {
        t.Fatalf("cancelled booking still on calendar: %+v", cal)
    }
    evs := w.pub.Events()
    last := evs[len(evs)-1]
    if last.Type != queue.TypeBookingCancelled || last.BookingID != b.ID || last.ActorID != artist {
        t.Fatalf("last event = %+v", last)
    }
}

func TestCalendarMergesAvailability(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := w.db.addProfile("Pat", model.RolePlanner)
    req, _ := w.bookings.CreateRequest(ctx, plannerActor(planner), gala(artist))
    if _, err := w.bookings.Accept(ctx, artistActor(artist), req.ID, AcceptInput{StartTime: "18:00", EndTime: "23:00"}); err != nil {
        t.Fatal(err)
    }
    if _, err := w.profiles.AddAvailability(ctx, artistActor(artist), AvailabilityInput{Date: "2026-11-02"}); err != nil {
        t.Fatal(err)
    }
    if _, err := w.profiles.AddAvailability(ctx, artistActor(artist), AvailabilityInput{Date: "2026-12-01", Note: "tour"}); err != nil {
        t.Fatal(err)
    }

    cal, err := w.bookings.Calendar(ctx, artistActor(artist), "2026-11")
    if err != nil {
        t.Fatal(err)
    }
    if len(cal) != 2 {
        t.Fatalf("calendar = %+v", cal)
    }
    if cal[0].Date != "2026-11-02" || cal[0].Kind != "unavailable" || cal[0].Title != "Unavailable" {
        t.Errorf("first entry = %+v", cal[0])
    }
    if cal[1].Kind != "booking" || cal[1].Title != "Gala" {
        t.Errorf("second entry = %+v", cal[1])
    }
    if _, err := w.bookings.Calendar(ctx, artistActor(artist), "November"); !errors.Is(err, ErrInvalid) {
        t.Errorf("bad month: err = %v", err)
    }
}

func TestListInboxFiltersStatus(t *testing.T) {
    w := newWorld()
    ctx := context.Background()
    artist := w.db.addArtist("Nova", "jazz", model.PlanFree)
    planner := plannerActor(w.db.addProfile("Pat", model.RolePlanner))
    first, _ := w.bookings.CreateRequest(ctx, planner, gala(artist))
    if _, err := w.bookings.CreateRequest(ctx, planner, gala(artist)); err != nil {
        t.Fatal(err)
    }
    if _, err := w.bookings.Decline(ctx, artistActor(artist), first.ID, ""); err != nil {
        t.Fatal(err)
    }

    pending, err := w.bookings.ListInbox(ctx, artistActor(artist), model.RequestPending)
    if err != nil {
        t.Fatal(err)
    }
    if len(pending) != 1 || !pending[0].Actions.CanAccept {
        t.Fatalf("pending inbox = %+v", pending)
    }
    all, _ := w.bookings.ListInbox(ctx, artistActor(artist), "")
    if len(all) != 2 {
        t.Fatalf("inbox size = %d", len(all))
    }
    if _, err := w.bookings.ListInbox(ctx, artistActor(artist), "archived"); !errors.Is(err, ErrInvalid) {
        t.Fatalf("unknown status: err = %v", err)
    }
    out, _ := w.bookings.ListOutgoing(ctx, planner)
    if len(out) != 2 {
        t.Fatalf("outgoing size = %d", len(out))
    }
}
