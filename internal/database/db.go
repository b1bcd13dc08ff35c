package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/go-sql-driver/mysql"
)

// DSN builds the go-sql-driver DSN.  parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps times consistent.  clientFoundRows makes
// RowsAffected count matched rows, which the repositories rely on for their
// conditional updates.  multiStatements stays off; migrations are executed
// statement by statement.
func DSN(user, pass, host, port, name string) string {
    cfg := mysql.NewConfig()
    cfg.User = user
    cfg.Passwd = pass
    cfg.Net = "tcp"
    cfg.Addr = fmt.Sprintf("%s:%s", host, port)
    cfg.DBName = name
    cfg.ParseTime = true
    cfg.Loc = time.UTC
    cfg.ClientFoundRows = true
    cfg.Params = map[string]string{"charset": "utf8mb4"}
    return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    return db, nil
}
