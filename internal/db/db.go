// internal/db/db.go
package db

import (
    "database/sql"
    "log"

    _ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection. The handle is
// returned to the caller and passed into repositories explicitly; there is no
// package-level connection.
func Open(databaseURL string) (*sql.DB, error) {
    conn, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }

    if err = conn.Ping(); err != nil {
        return nil, err
    }

    log.Println("✅ Connected to database")
    return conn, nil
}
