package service

import (
    "context"
    "errors"
    "sort"
    "strings"
    "time"

    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/metrics"
    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/queue"
    "github.com/iliyamo/artist-booking/internal/repository"
    "github.com/iliyamo/artist-booking/internal/validation"
)

// BookingStore is implemented by repository.BookingRepo.
type BookingStore interface {
    CreateRequest(ctx context.Context, req *model.BookingRequest) error
    GetRequest(ctx context.Context, id uint64) (*model.BookingRequest, error)
    ListRequestsByPlanner(ctx context.Context, plannerID uint64) ([]model.BookingRequest, error)
    ListRequestsByArtist(ctx context.Context, artistID uint64, status string) ([]model.BookingRequest, error)
    UpdatePendingRequest(ctx context.Context, req *model.BookingRequest) error
    DeclineRequest(ctx context.Context, id, artistID uint64, response string, now time.Time) error
    CancelRequest(ctx context.Context, id, plannerID uint64) error
    AcceptRequest(ctx context.Context, p repository.AcceptParams) (*model.Booking, error)
    GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
    ListBookingsForUser(ctx context.Context, userID uint64) ([]model.Booking, error)
    ListAcceptedInRange(ctx context.Context, userID uint64, asArtist bool, from, to string) ([]model.Booking, error)
    CancelBooking(ctx context.Context, id, userID uint64, now time.Time) error
    HasAcceptedBooking(ctx context.Context, plannerID, artistID uint64) (bool, error)
}

// AvailabilityLister reads artist unavailable dates for the calendar.
type AvailabilityLister interface {
    ListAvailability(ctx context.Context, profileID uint64, from, to string) ([]model.Availability, error)
}

// BookingService runs the booking request state machine.
//
//	pending -> accepted | declined | cancelled
//	booking accepted -> cancelled
type BookingService struct {
    store        BookingStore
    profiles     ProfileStore
    subs         SubscriptionStore
    availability AvailabilityLister
    pub          queue.Publisher
    now          func() time.Time
}

// NewBookingService wires the booking lifecycle.  pub may be nil.
func NewBookingService(store BookingStore, profiles ProfileStore, subs SubscriptionStore,
    availability AvailabilityLister, pub queue.Publisher) *BookingService {
    if pub == nil {
        pub = &queue.Recorder{}
    }
    return &BookingService{store: store, profiles: profiles, subs: subs, availability: availability, pub: pub, now: time.Now}
}

// RequestInput carries the planner-editable fields of a request.
type RequestInput struct {
    ArtistID      uint64  `json:"artist_id"`
    EventName     string  `json:"event_name" validate:"required,max=200"`
    EventDate     string  `json:"event_date" validate:"required,ymd"`
    Location      string  `json:"location" validate:"required,max=255"`
    Message       string  `json:"message"`
    ProposedStart *string `json:"proposed_start,omitempty" validate:"omitempty,hhmm"`
    ProposedEnd   *string `json:"proposed_end,omitempty" validate:"omitempty,hhmm"`
}

func (in *RequestInput) normalize() error {
    in.EventName = strings.TrimSpace(in.EventName)
    in.Location = strings.TrimSpace(in.Location)
    in.Message = strings.TrimSpace(in.Message)
    if in.EventName == "" {
        return invalid("event_name is required")
    }
    if !validation.IsDate(in.EventDate) {
        return invalid("event_date must be a date (YYYY-MM-DD)")
    }
    if in.Location == "" {
        return invalid("location is required")
    }
    for name, v := range map[string]*string{"proposed_start": in.ProposedStart, "proposed_end": in.ProposedEnd} {
        if v != nil && *v != "" && !validation.IsClock(*v) {
            return invalid("%s must be a time (HH:MM)", name)
        }
    }
    return nil
}

// RequestView is a request together with the actions the viewer may take.
type RequestView struct {
    model.BookingRequest
    Actions model.RequestActions `json:"actions"`
}

func viewsFor(reqs []model.BookingRequest, viewerID uint64) []RequestView {
    out := make([]RequestView, len(reqs))
    for i := range reqs {
        out[i] = RequestView{BookingRequest: reqs[i], Actions: reqs[i].ActionsFor(viewerID)}
    }
    return out
}

// CreateRequest sends a pending request from a planner to an artist.  The
// artist must hold an active subscription.
func (s *BookingService) CreateRequest(ctx context.Context, actor Actor, in RequestInput) (*RequestView, error) {
    if !actor.IsPlanner() {
        return nil, ErrForbidden
    }
    if err := in.normalize(); err != nil {
        return nil, err
    }
    if _, err := loadArtist(ctx, s.profiles, in.ArtistID); err != nil {
        return nil, err
    }
    sub, err := s.subs.GetByProfile(ctx, in.ArtistID)
    if err != nil && !errors.Is(err, ErrNotFound) {
        return nil, err
    }
    if !sub.Entitled(s.now()) {
        return nil, ErrNotAccepting
    }

    req := &model.BookingRequest{
        PlannerID:     actor.ID,
        ArtistID:      in.ArtistID,
        EventName:     in.EventName,
        EventDate:     in.EventDate,
        Location:      in.Location,
        Message:       in.Message,
        ProposedStart: in.ProposedStart,
        ProposedEnd:   in.ProposedEnd,
        Status:        model.RequestPending,
    }
    if err := s.store.CreateRequest(ctx, req); err != nil {
        return nil, err
    }
    metrics.RecordTransition("booking_request", model.RequestPending)
    logging.Info().Uint64("request_id", req.ID).Uint64("planner_id", actor.ID).Uint64("artist_id", in.ArtistID).Msg("booking request created")
    s.publish(ctx, queue.TypeRequestCreated, req, nil, actor.ID)
    return &RequestView{BookingRequest: *req, Actions: req.ActionsFor(actor.ID)}, nil
}

// GetRequest returns a request visible to its parties and admins.
func (s *BookingService) GetRequest(ctx context.Context, actor Actor, id uint64) (*RequestView, error) {
    req, err := s.store.GetRequest(ctx, id)
    if err != nil {
        return nil, err
    }
    if req.PlannerID != actor.ID && req.ArtistID != actor.ID && !actor.IsAdmin {
        return nil, ErrNotFound
    }
    return &RequestView{BookingRequest: *req, Actions: req.ActionsFor(actor.ID)}, nil
}

// ListOutgoing returns the planner's sent requests.
func (s *BookingService) ListOutgoing(ctx context.Context, actor Actor) ([]RequestView, error) {
    if !actor.IsPlanner() {
        return nil, ErrForbidden
    }
    reqs, err := s.store.ListRequestsByPlanner(ctx, actor.ID)
    if err != nil {
        return nil, err
    }
    return viewsFor(reqs, actor.ID), nil
}

// ListInbox returns the requests addressed to the artist, optionally
// filtered by status.
func (s *BookingService) ListInbox(ctx context.Context, actor Actor, status string) ([]RequestView, error) {
    if !actor.IsArtist() {
        return nil, ErrForbidden
    }
    switch status {
    case "", model.RequestPending, model.RequestAccepted, model.RequestDeclined, model.RequestCancelled:
    default:
        return nil, invalid("status must be one of: pending accepted declined cancelled")
    }
    reqs, err := s.store.ListRequestsByArtist(ctx, actor.ID, status)
    if err != nil {
        return nil, err
    }
    return viewsFor(reqs, actor.ID), nil
}

// loadForTransition fetches a request and checks that actor may move it to
// status to.  Non-parties get ErrNotFound so request ids do not leak.
func (s *BookingService) loadForTransition(ctx context.Context, actor Actor, id uint64, to string) (*model.BookingRequest, error) {
    req, err := s.store.GetRequest(ctx, id)
    if err != nil {
        return nil, err
    }
    if req.PlannerID != actor.ID && req.ArtistID != actor.ID {
        return nil, ErrNotFound
    }
    var allowed bool
    switch to {
    case model.RequestAccepted, model.RequestDeclined:
        allowed = req.ArtistID == actor.ID
    case model.RequestCancelled, model.RequestPending: // cancel, edit
        allowed = req.PlannerID == actor.ID
    }
    if !allowed {
        return nil, ErrForbidden
    }
    if req.IsTerminal() {
        return nil, ErrNotPending
    }
    return req, nil
}

// AcceptInput is the artist's answer when accepting.
type AcceptInput struct {
    StartTime string `json:"start_time" validate:"required,hhmm"`
    EndTime   string `json:"end_time" validate:"required,hhmm"`
    Response  string `json:"response_message"`
}

// Accept confirms a pending request.  The booking insert and the request
// update happen in one transaction; the artist's subscription is not
// re-checked.
func (s *BookingService) Accept(ctx context.Context, actor Actor, id uint64, in AcceptInput) (*model.Booking, error) {
    if !validation.IsClock(in.StartTime) {
        return nil, invalid("start_time must be a time (HH:MM)")
    }
    if !validation.IsClock(in.EndTime) {
        return nil, invalid("end_time must be a time (HH:MM)")
    }
    req, err := s.loadForTransition(ctx, actor, id, model.RequestAccepted)
    if err != nil {
        return nil, err
    }
    booking, err := s.store.AcceptRequest(ctx, repository.AcceptParams{
        RequestID: id,
        ArtistID:  actor.ID,
        StartTime: in.StartTime,
        EndTime:   in.EndTime,
        Response:  strings.TrimSpace(in.Response),
        Now:       s.now(),
    })
    if errors.Is(err, ErrConflict) {
        return nil, ErrNotPending
    }
    if err != nil {
        return nil, err
    }
    booking.ArtistName, booking.PlannerName = req.ArtistName, req.PlannerName
    metrics.RecordTransition("booking_request", model.RequestAccepted)
    metrics.RecordTransition("booking", model.BookingAccepted)
    logging.Info().Uint64("request_id", id).Uint64("booking_id", booking.ID).Msg("booking request accepted")
    req.Status = model.RequestAccepted
    s.publish(ctx, queue.TypeRequestAccepted, req, booking, actor.ID)
    return booking, nil
}

// Decline refuses a pending request.
func (s *BookingService) Decline(ctx context.Context, actor Actor, id uint64, response string) (*RequestView, error) {
    req, err := s.loadForTransition(ctx, actor, id, model.RequestDeclined)
    if err != nil {
        return nil, err
    }
    now := s.now()
    if err := s.store.DeclineRequest(ctx, id, actor.ID, strings.TrimSpace(response), now); err != nil {
        if errors.Is(err, ErrConflict) {
            return nil, ErrNotPending
        }
        return nil, err
    }
    _ = req.Transition(model.RequestDeclined, now)
    req.ResponseMessage = strings.TrimSpace(response)
    metrics.RecordTransition("booking_request", model.RequestDeclined)
    logging.Info().Uint64("request_id", id).Msg("booking request declined")
    s.publish(ctx, queue.TypeRequestDeclined, req, nil, actor.ID)
    return &RequestView{BookingRequest: *req, Actions: req.ActionsFor(actor.ID)}, nil
}

// Update rewrites a pending request in place.  Only the planner who sent it
// may edit it; the target artist cannot change.
func (s *BookingService) Update(ctx context.Context, actor Actor, id uint64, in RequestInput) (*RequestView, error) {
    if err := in.normalize(); err != nil {
        return nil, err
    }
    req, err := s.loadForTransition(ctx, actor, id, model.RequestPending)
    if err != nil {
        return nil, err
    }
    req.EventName, req.EventDate, req.Location, req.Message = in.EventName, in.EventDate, in.Location, in.Message
    req.ProposedStart, req.ProposedEnd = in.ProposedStart, in.ProposedEnd
    if err := s.store.UpdatePendingRequest(ctx, req); err != nil {
        if errors.Is(err, ErrConflict) {
            return nil, ErrNotPending
        }
        return nil, err
    }
    req.UpdatedAt = s.now().UTC()
    return &RequestView{BookingRequest: *req, Actions: req.ActionsFor(actor.ID)}, nil
}

// Cancel withdraws a pending request.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id uint64) (*RequestView, error) {
    req, err := s.loadForTransition(ctx, actor, id, model.RequestCancelled)
    if err != nil {
        return nil, err
    }
    if err := s.store.CancelRequest(ctx, id, actor.ID); err != nil {
        if errors.Is(err, ErrConflict) {
            return nil, ErrNotPending
        }
        return nil, err
    }
    _ = req.Transition(model.RequestCancelled, s.now())
    metrics.RecordTransition("booking_request", model.RequestCancelled)
    logging.Info().Uint64("request_id", id).Msg("booking request cancelled")
    s.publish(ctx, queue.TypeRequestCancelled, req, nil, actor.ID)
    return &RequestView{BookingRequest: *req, Actions: req.ActionsFor(actor.ID)}, nil
}

// GetBooking returns a booking visible to its parties and admins.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, id uint64) (*model.Booking, error) {
    b, err := s.store.GetBooking(ctx, id)
    if err != nil {
        return nil, err
    }
    if !b.IsParty(actor.ID) && !actor.IsAdmin {
        return nil, ErrNotFound
    }
    return b, nil
}

// ListBookings returns every booking the actor is a party of.
func (s *BookingService) ListBookings(ctx context.Context, actor Actor) ([]model.Booking, error) {
    return s.store.ListBookingsForUser(ctx, actor.ID)
}

// CancelBooking cancels a confirmed booking on behalf of either party.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, id uint64) (*model.Booking, error) {
    b, err := s.store.GetBooking(ctx, id)
    if err != nil {
        return nil, err
    }
    if !b.IsParty(actor.ID) {
        return nil, ErrNotFound
    }
    now := s.now()
    if err := b.Cancel(actor.ID, now); err != nil {
        return nil, ErrBookingClosed
    }
    if err := s.store.CancelBooking(ctx, id, actor.ID, now); err != nil {
        if errors.Is(err, ErrConflict) {
            return nil, ErrBookingClosed
        }
        return nil, err
    }
    metrics.RecordTransition("booking", model.BookingCancelled)
    logging.Info().Uint64("booking_id", id).Uint64("cancelled_by", actor.ID).Msg("booking cancelled")
    s.publish(ctx, queue.TypeBookingCancelled, &model.BookingRequest{
        ID: b.RequestID, ArtistID: b.ArtistID, PlannerID: b.PlannerID,
        EventName: b.EventName, EventDate: b.EventDate, Status: model.BookingCancelled,
    }, b, actor.ID)
    return b, nil
}

// Calendar returns the actor's month view for month (YYYY-MM): accepted
// bookings as artist, accepted bookings as planner, and the artist's
// unavailable dates.  The three reads are independent and run concurrently.
func (s *BookingService) Calendar(ctx context.Context, actor Actor, month string) ([]model.CalendarEntry, error) {
    first, err := time.Parse("2006-01", month)
    if err != nil {
        return nil, invalid("month must be YYYY-MM")
    }
    from := first.Format(validation.DateLayout)
    to := first.AddDate(0, 1, -1).Format(validation.DateLayout)

    var (
        asArtist, asPlanner []model.Booking
        blocks              []model.Availability
    )
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        var err error
        asArtist, err = s.store.ListAcceptedInRange(gctx, actor.ID, true, from, to)
        return err
    })
    g.Go(func() error {
        var err error
        asPlanner, err = s.store.ListAcceptedInRange(gctx, actor.ID, false, from, to)
        return err
    })
    if actor.IsArtist() && s.availability != nil {
        g.Go(func() error {
            var err error
            blocks, err = s.availability.ListAvailability(gctx, actor.ID, from, to)
            return err
        })
    }
    if err := g.Wait(); err != nil {
        return nil, err
    }

    entries := make([]model.CalendarEntry, 0, len(asArtist)+len(asPlanner)+len(blocks))
    for _, list := range [][]model.Booking{asArtist, asPlanner} {
        for _, b := range list {
            entries = append(entries, model.CalendarEntry{
                Date:      b.EventDate,
                Kind:      "booking",
                BookingID: b.ID,
                Title:     b.EventName,
                StartTime: b.StartTime,
                EndTime:   b.EndTime,
                Location:  b.Location,
            })
        }
    }
    for _, a := range blocks {
        title := a.Note
        if title == "" {
            title = "Unavailable"
        }
        entries = append(entries, model.CalendarEntry{Date: a.Date, Kind: "unavailable", Title: title})
    }
    sort.SliceStable(entries, func(i, j int) bool {
        if entries[i].Date != entries[j].Date {
            return entries[i].Date < entries[j].Date
        }
        return entries[i].StartTime < entries[j].StartTime
    })
    return entries, nil
}

func (s *BookingService) publish(ctx context.Context, typ string, req *model.BookingRequest, b *model.Booking, actorID uint64) {
    ev := queue.BookingEvent{
        Type:      typ,
        RequestID: req.ID,
        ArtistID:  req.ArtistID,
        PlannerID: req.PlannerID,
        ActorID:   actorID,
        EventName: req.EventName,
        EventDate: req.EventDate,
        Status:    req.Status,
    }
    if b != nil {
        ev.BookingID = b.ID
        ev.StartTime, ev.EndTime = b.StartTime, b.EndTime
        if typ == queue.TypeBookingCancelled {
            ev.Status = b.Status
        }
    }
    ev.Stamp(s.now())
    _ = s.pub.Publish(ctx, ev)
}
