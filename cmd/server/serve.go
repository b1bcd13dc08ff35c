package main

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/urfave/cli/v3"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/database"
    "github.com/iliyamo/artist-booking/internal/handler"
    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/payment"
    "github.com/iliyamo/artist-booking/internal/queue"
    "github.com/iliyamo/artist-booking/internal/repository"
    "github.com/iliyamo/artist-booking/internal/router"
    "github.com/iliyamo/artist-booking/internal/service"
    "github.com/iliyamo/artist-booking/internal/storage"
)

// serve wires config, storage, services and routes, then runs the API
// until the context is cancelled.
func serve(ctx context.Context, _ *cli.Command) error {
    cfg := config.Load()
    logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return err
    }
    defer db.Close()

    rdb := config.NewRedisClient(config.LoadRedisConfig())
    if rdb != nil {
        defer rdb.Close()
    }
    cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    storeCfg := config.LoadStorageConfig()
    bucket, err := storage.New(storeCfg)
    if err != nil {
        return err
    }
    payCfg := config.LoadPaymentConfig()

    var pub queue.Publisher = queue.NewAMQPPublisher(cfg.AMQPURL)
    if cfg.AMQPURL == "" {
        logging.Warn().Msg("no AMQP URL configured; booking events are kept in memory")
        pub = &queue.Recorder{}
    }

    profiles := repository.NewProfileRepo(db)
    tokens := repository.NewTokenRepo(db)
    artists := repository.NewArtistRepo(db)
    subs := repository.NewSubscriptionRepo(db)
    bookings := repository.NewBookingRepo(db)
    reviews := repository.NewReviewRepo(db)
    events := repository.NewEventRepo(db)
    messages := repository.NewMessageRepo(db)
    admin := repository.NewAdminRepo(db)

    h := router.Handlers{
        Auth:     handler.NewAuthHandler(cfg, profiles, tokens),
        Profiles: handler.NewProfileHandler(service.NewProfileService(profiles, artists, subs, bucket, cache)),
        Artists:  handler.NewArtistHandler(service.NewArtistService(profiles, artists, subs, reviews, bookings)),
        Bookings: handler.NewBookingHandler(service.NewBookingService(bookings, profiles, subs, artists, pub)),
        Events:   handler.NewEventHandler(service.NewEventService(events, bucket, payment.NewClient(payCfg), payCfg)),
        Messages: handler.NewMessageHandler(service.NewMessageService(messages, profiles, bookings)),
        Admin:    handler.NewAdminHandler(service.NewAdminService(admin, profiles, subs, events, cache)),
    }

    opts := router.Options{
        JWTSecret: cfg.JWTSecret,
        DB:        db,
        Cache:     cache,
        RateLimit: limiter,
        BodyLimit: strconv.Itoa(storeCfg.MaxUploadMB+1) + "M",
    }
    if strings.HasPrefix(storeCfg.PublicBaseURL, "/") {
        opts.StaticPrefix = storeCfg.PublicBaseURL
        opts.StaticDir = bucket.Dir()
    }
    e := router.New(h, opts)

    return run(ctx, e, ":"+cfg.Port, cfg.Env)
}

// run starts e and shuts it down gracefully once ctx is done.
func run(ctx context.Context, e *echo.Echo, addr, env string) error {
    errCh := make(chan error, 1)
    go func() {
        logging.Info().Str("addr", addr).Str("env", env).Msg("listening")
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        return err
    case <-ctx.Done():
    }

    logging.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return e.Shutdown(shutdownCtx)
}
