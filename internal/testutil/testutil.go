package testutil

import (
	"database/sql"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"userflow/internal/database"
	"userflow/pkg/logger"
)

var dbSequence int64

// NewLogger returns a logger that only speaks up on errors.
func NewLogger() logger.Logger {
	return logger.New(logger.ErrorLevel, io.Discard)
}

// NewTestDB opens an isolated in-memory database and applies every migration.
// The connection is closed when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := fmt.Sprintf("userflow_test_%d", atomic.AddInt64(&dbSequence, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	// An in-memory database lives as long as one connection is open; a single
	// pooled connection keeps it alive for the whole test.
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })

	migrations := database.NewMigrationService(db, "sqlite3", NewLogger())
	if err := migrations.RunMigrations(); err != nil {
		t.Fatalf("migrationlar uygulanamadı: %v", err)
	}

	return db
}
