package database

import (
	"database/sql"
	"io"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

func newMigratedDB(t *testing.T) (*sql.DB, *MigrationService) {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	svc := NewMigrationService(db, "sqlite3", logger.New(logger.ErrorLevel, io.Discard))
	require.NoError(t, svc.RunMigrations())

	return db, svc
}

func tableNames(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	require.NoError(t, err)
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names[name] = true
	}
	require.NoError(t, rows.Err())

	return names
}

func TestRunMigrationsCreatesSchema(t *testing.T) {
	db, _ := newMigratedDB(t)

	names := tableNames(t, db)
	for _, table := range []string{"migrations", "roles", "users", "audit_logs", "events"} {
		assert.True(t, names[table], "tablo eksik: %s", table)
	}
}

func TestRunMigrationsSeedsRoles(t *testing.T) {
	db, _ := newMigratedDB(t)

	rows, err := db.Query("SELECT id, name FROM roles ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id int64
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{domain.RoleNameAdmin, domain.RoleNameWriter, domain.RoleNameReader}, names)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db, svc := newMigratedDB(t)

	require.NoError(t, svc.RunMigrations())
	require.NoError(t, svc.RunMigrations())

	var roleCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM roles").Scan(&roleCount))
	assert.Equal(t, 3, roleCount)

	var migrationCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&migrationCount))
	assert.Equal(t, 5, migrationCount)
}

func TestIsMigrationApplied(t *testing.T) {
	_, svc := newMigratedDB(t)

	applied, err := svc.IsMigrationApplied("create_users_table")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = svc.IsMigrationApplied("create_invoices_table")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestUsersTableEnforcesConstraints(t *testing.T) {
	db, _ := newMigratedDB(t)

	insert := "INSERT INTO users (email, password, fullname, role_id) VALUES ($1, $2, $3, $4)"

	_, err := db.Exec(insert, "a@x.com", "pw", "Kullanıcı A", 1)
	require.NoError(t, err)

	// Duplicate email is rejected by the unique index.
	_, err = db.Exec(insert, "a@x.com", "pw", "Kullanıcı B", 1)
	require.Error(t, err)

	// A reference to a missing role is rejected by the foreign key.
	_, err = db.Exec(insert, "b@x.com", "pw", "Kullanıcı B", 99)
	require.Error(t, err)

	// A seeded role cannot be removed while users still reference it.
	_, err = db.Exec("DELETE FROM roles WHERE id = 1")
	require.Error(t, err)
}
