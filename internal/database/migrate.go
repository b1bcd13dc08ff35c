package database

import (
    "context"
    "database/sql"
    "embed"
    "errors"
    "fmt"
    "path"
    "sort"
    "strconv"
    "strings"

    "github.com/iliyamo/artist-booking/internal/logging"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one numbered schema change with its up and down SQL.
type Migration struct {
    Version int
    Up      string
    Down    string
}

// ErrNothingToRollback is returned by Rollback on an empty history.
var ErrNothingToRollback = errors.New("no migrations to rollback")

// LoadMigrations reads the embedded files ("0001_init_up.sql",
// "0001_init_down.sql", ...) sorted by version.
func LoadMigrations() ([]Migration, error) {
    entries, err := migrationFiles.ReadDir("sql")
    if err != nil {
        return nil, fmt.Errorf("read migration directory: %w", err)
    }
    byVersion := make(map[int]*Migration)
    for _, entry := range entries {
        name := entry.Name()
        if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
            continue
        }
        version, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
        if err != nil {
            continue
        }
        content, err := migrationFiles.ReadFile(path.Join("sql", name))
        if err != nil {
            return nil, fmt.Errorf("read migration %s: %w", name, err)
        }
        m := byVersion[version]
        if m == nil {
            m = &Migration{Version: version}
            byVersion[version] = m
        }
        switch {
        case strings.HasSuffix(name, "_up.sql"):
            m.Up = string(content)
        case strings.HasSuffix(name, "_down.sql"):
            m.Down = string(content)
        }
    }
    out := make([]Migration, 0, len(byVersion))
    for _, m := range byVersion {
        if m.Up == "" || m.Down == "" {
            return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
        }
        out = append(out, *m)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
    return out, nil
}

// SplitStatements splits a migration body on ';' and drops blank and
// comment-only statements.
func SplitStatements(body string) []string {
    var out []string
    for _, raw := range strings.Split(body, ";") {
        var lines []string
        for _, line := range strings.Split(raw, "\n") {
            if strings.HasPrefix(strings.TrimSpace(line), "--") {
                continue
            }
            lines = append(lines, line)
        }
        if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
            out = append(out, stmt)
        }
    }
    return out
}

// Migrate applies every migration not yet recorded in schema_migrations.
// MySQL commits DDL implicitly, so each statement runs on its own and the
// version row is written once all statements succeeded.
func Migrate(ctx context.Context, db *sql.DB) error {
    migrations, err := LoadMigrations()
    if err != nil {
        return err
    }
    if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version INT PRIMARY KEY,
        applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
        return fmt.Errorf("create schema_migrations: %w", err)
    }
    for _, m := range migrations {
        var exists bool
        if err := db.QueryRowContext(ctx,
            "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.Version).Scan(&exists); err != nil {
            return fmt.Errorf("check migration %d: %w", m.Version, err)
        }
        if exists {
            continue
        }
        for _, stmt := range SplitStatements(m.Up) {
            if _, err := db.ExecContext(ctx, stmt); err != nil {
                return fmt.Errorf("apply migration %d: %w", m.Version, err)
            }
        }
        if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
            return fmt.Errorf("record migration %d: %w", m.Version, err)
        }
        logging.Info().Int("version", m.Version).Msg("migration applied")
    }
    return nil
}

// Rollback reverts the most recently applied migration.
func Rollback(ctx context.Context, db *sql.DB) error {
    migrations, err := LoadMigrations()
    if err != nil {
        return err
    }
    var current sql.NullInt64
    if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
        return fmt.Errorf("read current version: %w", err)
    }
    if !current.Valid {
        return ErrNothingToRollback
    }
    for _, m := range migrations {
        if m.Version != int(current.Int64) {
            continue
        }
        for _, stmt := range SplitStatements(m.Down) {
            if _, err := db.ExecContext(ctx, stmt); err != nil {
                return fmt.Errorf("rollback migration %d: %w", m.Version, err)
            }
        }
        if _, err := db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
            return err
        }
        logging.Info().Int("version", m.Version).Msg("migration rolled back")
        return nil
    }
    return fmt.Errorf("migration version %d not found", current.Int64)
}
