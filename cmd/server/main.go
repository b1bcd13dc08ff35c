package main // Entry point package

import (
    "context"
    "errors"
    "os"
    "os/signal"
    "syscall"

    "github.com/urfave/cli/v3"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/database"
    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/queue"
)

func main() {
    config.LoadDotEnv()
    logging.Init(logging.Config{
        Level:  envOr("LOG_LEVEL", "info"),
        Format: envOr("LOG_FORMAT", "json"),
    })

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    app := &cli.Command{
        Name:   "artist-booking",
        Usage:  "Artist booking marketplace API",
        Action: serve,
        Commands: []*cli.Command{
            {
                Name:   "serve",
                Usage:  "Run the HTTP API",
                Action: serve,
            },
            {
                Name:   "migrate",
                Usage:  "Apply pending database migrations",
                Action: migrate,
            },
            {
                Name:   "rollback",
                Usage:  "Revert the most recent migration",
                Action: rollback,
            },
            {
                Name:   "consume",
                Usage:  "Consume booking lifecycle events into the booking log",
                Action: consume,
                Flags: []cli.Flag{
                    &cli.StringFlag{
                        Name:  "log-path",
                        Usage: "file the consumer appends to",
                        Value: "logs/booking.log",
                    },
                },
            },
        },
    }

    if err := app.Run(ctx, os.Args); err != nil {
        logging.Fatal().Err(err).Msg("application error")
    }
}

func migrate(ctx context.Context, _ *cli.Command) error {
    cfg := config.LoadDB()
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return err
    }
    defer db.Close()
    return database.Migrate(ctx, db)
}

func rollback(ctx context.Context, _ *cli.Command) error {
    cfg := config.LoadDB()
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return err
    }
    defer db.Close()
    return database.Rollback(ctx, db)
}

func consume(ctx context.Context, cmd *cli.Command) error {
    cfg := config.Load()
    if cfg.AMQPURL == "" {
        return errors.New("consume: no AMQP URL configured")
    }
    c := queue.NewConsumer(cfg.AMQPURL)
    c.LogPath = cmd.String("log-path")
    logging.Info().Str("log_path", c.LogPath).Msg("booking consumer starting")
    if err := c.Run(ctx); err != nil && ctx.Err() == nil {
        return err
    }
    return nil
}

func envOr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
