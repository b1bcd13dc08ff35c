package service

import (
    "context"
    "errors"
    "fmt"
    "io"
    "strconv"
    "strings"
    "time"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/payment"
    "github.com/iliyamo/artist-booking/internal/storage"
    "github.com/iliyamo/artist-booking/internal/validation"
)

// EventStore is implemented by repository.EventRepo.
type EventStore interface {
    Create(ctx context.Context, e *model.Event) error
    Get(ctx context.Context, id uint64) (*model.Event, error)
    Update(ctx context.Context, e *model.Event) error
    SetCover(ctx context.Context, id uint64, url string) error
    Publish(ctx context.Context, id uint64, now time.Time) error
    Delete(ctx context.Context, id, ownerID uint64) error
    ListPublished(ctx context.Context, fromDate string) ([]model.Event, error)
    ListByOwner(ctx context.Context, ownerID uint64) ([]model.Event, error)
    ListAll(ctx context.Context) ([]model.Event, error)
    AddMedia(ctx context.Context, m *model.EventMedia) error
    ListMedia(ctx context.Context, eventID uint64) ([]model.EventMedia, error)
    ToggleAttendance(ctx context.Context, eventID, userID uint64) (bool, error)
}

// Checkout creates hosted payment pages.  *payment.Client implements it.
type Checkout interface {
    CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
}

// EventService manages event listings and their paid publication.
type EventService struct {
    store    EventStore
    bucket   Bucket
    checkout Checkout
    pay      config.PaymentConfig
    now      func() time.Time
}

// NewEventService wires events.  checkout is only used when
// pay.Required is set.
func NewEventService(store EventStore, bucket Bucket, checkout Checkout, pay config.PaymentConfig) *EventService {
    return &EventService{store: store, bucket: bucket, checkout: checkout, pay: pay, now: time.Now}
}

// EventInput carries the owner-editable fields.
type EventInput struct {
    Title       string  `json:"title" validate:"required,max=200"`
    Description string  `json:"description"`
    EventDate   string  `json:"event_date" validate:"required,ymd"`
    Location    string  `json:"location" validate:"required,max=255"`
    CoverURL    *string `json:"cover_url,omitempty"`
    TicketURL   string  `json:"ticket_url" validate:"omitempty,url,max=512"`
}

func (in *EventInput) normalize() error {
    in.Title = strings.TrimSpace(in.Title)
    in.Location = strings.TrimSpace(in.Location)
    in.TicketURL = strings.TrimSpace(in.TicketURL)
    switch {
    case in.Title == "":
        return invalid("title is required")
    case !validation.IsDate(in.EventDate):
        return invalid("event_date must be a date (YYYY-MM-DD)")
    case in.Location == "":
        return invalid("location is required")
    }
    return nil
}

// EventDetail is an event with its extra images.
type EventDetail struct {
    model.Event
    Media []model.EventMedia `json:"media"`
}

// Create stores a draft owned by the caller.
func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*model.Event, error) {
    if err := in.normalize(); err != nil {
        return nil, err
    }
    e := &model.Event{
        OwnerID:     actor.ID,
        Title:       in.Title,
        Description: in.Description,
        EventDate:   in.EventDate,
        Location:    in.Location,
        CoverURL:    in.CoverURL,
        TicketURL:   in.TicketURL,
        Status:      model.EventDraft,
    }
    if err := s.store.Create(ctx, e); err != nil {
        return nil, err
    }
    logging.Info().Uint64("event_id", e.ID).Uint64("owner_id", actor.ID).Msg("event created")
    return e, nil
}

// Get returns an event; drafts are only visible to the owner and admins.
func (s *EventService) Get(ctx context.Context, actor Actor, id uint64) (*EventDetail, error) {
    e, err := s.store.Get(ctx, id)
    if err != nil {
        return nil, err
    }
    if !e.VisibleTo(actor.ID, actor.IsAdmin) {
        return nil, ErrNotFound
    }
    media, err := s.store.ListMedia(ctx, id)
    if err != nil {
        return nil, err
    }
    return &EventDetail{Event: *e, Media: media}, nil
}

// owned loads an event the caller may modify.
func (s *EventService) owned(ctx context.Context, actor Actor, id uint64) (*model.Event, error) {
    e, err := s.store.Get(ctx, id)
    if err != nil {
        return nil, err
    }
    if e.OwnerID != actor.ID && !actor.IsAdmin {
        if e.Status != model.EventPublished {
            return nil, ErrNotFound
        }
        return nil, ErrForbidden
    }
    return e, nil
}

// Update rewrites an event.  Only the owner or an admin may call it.
func (s *EventService) Update(ctx context.Context, actor Actor, id uint64, in EventInput) (*model.Event, error) {
    if err := in.normalize(); err != nil {
        return nil, err
    }
    e, err := s.owned(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    e.Title, e.Description, e.EventDate, e.Location = in.Title, in.Description, in.EventDate, in.Location
    e.TicketURL = in.TicketURL
    if in.CoverURL != nil {
        e.CoverURL = in.CoverURL
    }
    if err := s.store.Update(ctx, e); err != nil {
        return nil, err
    }
    return s.store.Get(ctx, id)
}

// Delete removes an event.  Only the owner or an admin may call it.
func (s *EventService) Delete(ctx context.Context, actor Actor, id uint64) error {
    e, err := s.owned(ctx, actor, id)
    if err != nil {
        return err
    }
    owner := e.OwnerID
    if actor.IsAdmin {
        owner = 0
    }
    return s.store.Delete(ctx, id, owner)
}

// ListPublished returns upcoming published events.  When all is set past
// events are included.
func (s *EventService) ListPublished(ctx context.Context, all bool) ([]model.Event, error) {
    from := s.now().UTC().Format(validation.DateLayout)
    if all {
        from = ""
    }
    return s.store.ListPublished(ctx, from)
}

// ListMine returns the caller's events including drafts.
func (s *EventService) ListMine(ctx context.Context, actor Actor) ([]model.Event, error) {
    return s.store.ListByOwner(ctx, actor.ID)
}

// ToggleAttendance flips the caller's attending mark on a published event.
func (s *EventService) ToggleAttendance(ctx context.Context, actor Actor, id uint64) (bool, error) {
    e, err := s.store.Get(ctx, id)
    if err != nil {
        return false, err
    }
    if e.Status != model.EventPublished {
        return false, ErrNotFound
    }
    return s.store.ToggleAttendance(ctx, id, actor.ID)
}

// UploadCover stores the cover image under event-covers/.
func (s *EventService) UploadCover(ctx context.Context, actor Actor, id uint64, filename string, r io.Reader) (*model.Event, error) {
    e, err := s.owned(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    obj, err := s.bucket.Put(storage.PrefixEventCovers, e.ID, filename, r)
    if err != nil {
        if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupported) {
            return nil, invalid("%s", err.Error())
        }
        return nil, err
    }
    if storage.MediaKind(obj.ContentType) != model.MediaImage {
        _ = s.bucket.Remove(obj.Key)
        return nil, invalid("cover must be an image")
    }
    if err := s.store.SetCover(ctx, id, obj.URL); err != nil {
        return nil, err
    }
    return s.store.Get(ctx, id)
}

// AddImage attaches an extra image to the event.
func (s *EventService) AddImage(ctx context.Context, actor Actor, id uint64, filename string, r io.Reader) (*model.EventMedia, error) {
    e, err := s.owned(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    obj, err := s.bucket.Put(storage.PrefixEventCovers, e.ID, filename, r)
    if err != nil {
        if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupported) {
            return nil, invalid("%s", err.Error())
        }
        return nil, err
    }
    m := &model.EventMedia{EventID: id, URL: obj.URL, StoragePath: obj.Key}
    if err := s.store.AddMedia(ctx, m); err != nil {
        _ = s.bucket.Remove(obj.Key)
        return nil, err
    }
    return m, nil
}

// Publish makes a draft visible to everyone.  When publishing is paid the
// caller must go through StartCheckout instead.
func (s *EventService) Publish(ctx context.Context, actor Actor, id uint64) (*model.Event, error) {
    e, err := s.owned(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if s.pay.Required && !actor.IsAdmin {
        return nil, ErrPaymentRequired
    }
    if e.Status == model.EventPublished {
        return e, nil
    }
    if err := s.store.Publish(ctx, id, s.now()); err != nil {
        return nil, err
    }
    logging.Info().Uint64("event_id", id).Msg("event published")
    return s.store.Get(ctx, id)
}

// CheckoutResult tells the client where to send the user.
type CheckoutResult struct {
    EventID     uint64 `json:"event_id"`
    SessionID   string `json:"session_id"`
    CheckoutURL string `json:"checkout_url"`
}

// StartCheckout opens a payment session for publishing a draft.
func (s *EventService) StartCheckout(ctx context.Context, actor Actor, id uint64) (*CheckoutResult, error) {
    e, err := s.owned(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if e.Status == model.EventPublished {
        return nil, ErrConflict
    }
    if s.checkout == nil {
        return nil, payment.ErrNotConfigured
    }
    idStr := strconv.FormatUint(id, 10)
    sess, err := s.checkout.CreateCheckout(ctx, payment.CheckoutRequest{
        Reference:   "event:" + idStr,
        AmountCents: s.pay.PublishCents,
        Currency:    s.pay.Currency,
        Description: fmt.Sprintf("Publish event %q", e.Title),
        SuccessURL:  s.pay.SuccessURL,
        CancelURL:   s.pay.CancelURL,
        Metadata:    map[string]string{"event_id": idStr, "owner_id": strconv.FormatUint(e.OwnerID, 10)},
    })
    if err != nil {
        return nil, err
    }
    logging.Info().Uint64("event_id", id).Str("session_id", sess.ID).Msg("checkout session created")
    return &CheckoutResult{EventID: id, SessionID: sess.ID, CheckoutURL: sess.URL}, nil
}

// HandleWebhook verifies a payment callback and publishes the paid event.
// Callbacks for other event types are acknowledged and ignored.
func (s *EventService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
    ev, err := payment.ParseWebhook(s.pay.WebhookSecret, body, signature)
    if err != nil {
        return err
    }
    if !ev.Completed() {
        logging.Debug().Str("type", ev.Type).Msg("payment webhook ignored")
        return nil
    }
    id, err := ev.EventID()
    if err != nil {
        return invalid("webhook metadata has no event_id")
    }
    if err := s.store.Publish(ctx, id, s.now()); err != nil {
        return err
    }
    logging.Info().Uint64("event_id", id).Str("session_id", ev.SessionID).Msg("event published after payment")
    return nil
}
