package database

import (
	"database/sql"
	"fmt"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

type Migration struct {
	ID        int64
	Name      string
	AppliedAt time.Time
}

type MigrationService struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func NewMigrationService(db *sql.DB, driver string, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// autoIncrementPK returns the engine specific column definition for an
// auto assigned integer primary key.
func (m *MigrationService) autoIncrementPK() string {
	if m.driver == "sqlite3" {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "SERIAL PRIMARY KEY"
}

func (m *MigrationService) InitMigrationTable() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS migrations (
        id %s,
        name TEXT NOT NULL UNIQUE,
        applied_at TIMESTAMP NOT NULL
    )
    `, m.autoIncrementPK())

	_, err := m.db.Exec(query)
	if err != nil {
		m.logger.Error("Migration tablosu oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return err
	}

	return nil
}

func (m *MigrationService) IsMigrationApplied(name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE name = $1"
	err := m.db.QueryRow(query, name).Scan(&count)
	if err != nil {
		m.logger.Error("Migration durumu kontrol edilemedi", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

func (m *MigrationService) RecordMigration(name string) error {
	query := "INSERT INTO migrations (name, applied_at) VALUES ($1, $2)"
	_, err := m.db.Exec(query, name, time.Now())
	if err != nil {
		m.logger.Error("Migration kaydedilemedi", map[string]interface{}{"name": name, "error": err.Error()})
		return err
	}

	return nil
}

// ApplyMigration runs a single migration once. Every migration is written to
// be idempotent, so a crash between apply and record is safe to replay.
func (m *MigrationService) ApplyMigration(name string, migrationFunc func(*sql.DB) error) error {
	applied, err := m.IsMigrationApplied(name)
	if err != nil {
		return err
	}

	if applied {
		m.logger.Info("Migration zaten uygulanmış", map[string]interface{}{"name": name})
		return nil
	}

	m.logger.Info("Migration uygulanıyor", map[string]interface{}{"name": name})

	if err := migrationFunc(m.db); err != nil {
		m.logger.Error("Migration uygulanamadı", map[string]interface{}{"name": name, "error": err.Error()})
		return err
	}

	if err := m.RecordMigration(name); err != nil {
		return err
	}

	m.logger.Info("Migration başarıyla uygulandı", map[string]interface{}{"name": name})
	return nil
}

func (m *MigrationService) RunMigrations() error {
	m.logger.Info("Migrationlar başlatılıyor", map[string]interface{}{})

	if err := m.InitMigrationTable(); err != nil {
		return fmt.Errorf("migration tablosu oluşturulamadı: %w", err)
	}

	migrations := []struct {
		Name string
		Func func(*sql.DB) error
	}{
		{"create_roles_table", m.createRolesTable},
		{"seed_roles", m.seedRoles},
		{"create_users_table", m.createUsersTable},
		{"create_audit_logs_table", m.createAuditLogsTable},
		{"create_event_store_table", m.createEventStoreTable},
	}

	for _, migration := range migrations {
		if err := m.ApplyMigration(migration.Name, migration.Func); err != nil {
			return fmt.Errorf("migration uygulanamadı %s: %w", migration.Name, err)
		}
	}

	return nil
}

func (m *MigrationService) createRolesTable(db *sql.DB) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS roles (
        id %s,
        name VARCHAR(50) NOT NULL UNIQUE,
        description TEXT,
        created_at TIMESTAMP NOT NULL
    )
    `, m.autoIncrementPK())

	_, err := db.Exec(query)
	return err
}

func (m *MigrationService) seedRoles(db *sql.DB) error {
	roles := []struct {
		Name        string
		Description string
	}{
		{domain.RoleNameAdmin, "Tam yetkili yönetici"},
		{domain.RoleNameWriter, "İçerik oluşturabilir ve düzenleyebilir"},
		{domain.RoleNameReader, "Salt okunur erişim"},
	}

	query := `
    INSERT INTO roles (name, description, created_at)
    VALUES ($1, $2, $3)
    ON CONFLICT (name) DO NOTHING
    `

	for _, role := range roles {
		if _, err := db.Exec(query, role.Name, role.Description, time.Now()); err != nil {
			return err
		}
	}

	return nil
}

func (m *MigrationService) createUsersTable(db *sql.DB) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS users (
        id %s,
        email VARCHAR(100) NOT NULL UNIQUE,
        password VARCHAR(100) NOT NULL,
        fullname VARCHAR(100) NOT NULL,
        role_id INTEGER NOT NULL,
        FOREIGN KEY (role_id) REFERENCES roles (id) ON DELETE RESTRICT
    )
    `, m.autoIncrementPK())

	_, err := db.Exec(query)
	return err
}

func (m *MigrationService) createAuditLogsTable(db *sql.DB) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS audit_logs (
        id %s,
        entity_type TEXT NOT NULL,
        entity_id INTEGER NOT NULL,
        action TEXT NOT NULL,
        details TEXT,
        created_at TIMESTAMP NOT NULL
    );

    CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity_type, entity_id);
    `, m.autoIncrementPK())

	_, err := db.Exec(query)
	return err
}

func (m *MigrationService) createEventStoreTable(db *sql.DB) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS events (
        id %s,
        aggregate_id VARCHAR(100) NOT NULL,
        aggregate_type VARCHAR(50) NOT NULL,
        event_type VARCHAR(100) NOT NULL,
        event_data TEXT NOT NULL,
        version INTEGER NOT NULL,
        created_at TIMESTAMP NOT NULL,
        metadata TEXT,
        UNIQUE (aggregate_type, aggregate_id, version)
    );

    CREATE INDEX IF NOT EXISTS events_aggregate_idx ON events (aggregate_type, aggregate_id);
    CREATE INDEX IF NOT EXISTS events_type_idx ON events (event_type);
    `, m.autoIncrementPK())

	_, err := db.Exec(query)
	return err
}
