// Package logging provides the zerolog-based logger shared by the server,
// the migration commands and the booking event consumer.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Uint64("request_id", id).Msg("booking request created")
//
// Always terminate chains with .Msg() or .Send().
package logging

import (
    "io"
    "os"
    "strings"
    "sync"
    "time"

    "github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
    // Level is the minimum level: trace, debug, info, warn, error, fatal, panic, disabled.
    Level string
    // Format is json or console.
    Format string
    // Caller adds file:line to each entry.
    Caller bool
    // Output defaults to os.Stderr.
    Output io.Writer
}

var (
    log zerolog.Logger
    mu  sync.RWMutex
)

func init() {
    initLogger(Config{Level: "info", Format: "json"})
}

// Init reconfigures the global logger.  Safe to call more than once.
func Init(cfg Config) {
    mu.Lock()
    defer mu.Unlock()
    initLogger(cfg)
}

func initLogger(cfg Config) {
    if cfg.Output == nil {
        cfg.Output = os.Stderr
    }
    zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
    zerolog.TimeFieldFormat = time.RFC3339
    zerolog.TimestampFieldName = "time"
    zerolog.MessageFieldName = "message"

    out := cfg.Output
    if strings.EqualFold(cfg.Format, "console") {
        out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
    }
    l := zerolog.New(out).With().Timestamp().Logger()
    if cfg.Caller {
        l = l.With().Caller().Logger()
    }
    log = l
}

// ParseLevel converts a level name to a zerolog.Level.  Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
    switch strings.ToLower(strings.TrimSpace(level)) {
    case "trace":
        return zerolog.TraceLevel
    case "debug":
        return zerolog.DebugLevel
    case "warn", "warning":
        return zerolog.WarnLevel
    case "error":
        return zerolog.ErrorLevel
    case "fatal":
        return zerolog.FatalLevel
    case "panic":
        return zerolog.PanicLevel
    case "disabled", "off":
        return zerolog.Disabled
    default:
        return zerolog.InfoLevel
    }
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
    mu.RLock()
    defer mu.RUnlock()
    return log
}

// With returns a child logger context of the global logger.
func With() zerolog.Context {
    l := Logger()
    return l.With()
}

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }
