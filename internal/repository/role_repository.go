package repository

import (
	"database/sql"
	"fmt"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
	"userflow/pkg/metrics"
)

type RoleRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRoleRepository(db *sql.DB, logger logger.Logger) domain.RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

func (r *RoleRepository) FindByID(id int64) (*domain.Role, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("find_by_id", "roles", time.Since(start))
	}()

	query := `SELECT id, name, description, created_at FROM roles WHERE id = $1`

	var role domain.Role
	err := r.db.QueryRow(query, id).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Rol ID'ye göre bulunamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("rol sorgulanamadı: %w", err)
	}

	return &role, nil
}

func (r *RoleRepository) FindByName(name string) (*domain.Role, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("find_by_name", "roles", time.Since(start))
	}()

	query := `SELECT id, name, description, created_at FROM roles WHERE name = $1`

	var role domain.Role
	err := r.db.QueryRow(query, name).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Rol adına göre bulunamadı", map[string]interface{}{"name": name, "error": err.Error()})
		return nil, fmt.Errorf("rol sorgulanamadı: %w", err)
	}

	return &role, nil
}

func (r *RoleRepository) FindAll() ([]*domain.Role, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("find_all", "roles", time.Since(start))
	}()

	query := `SELECT id, name, description, created_at FROM roles ORDER BY id`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Roller sorgulanamadı", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("roller sorgulanamadı: %w", err)
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			r.logger.Error("Rol satırı okunamadı", map[string]interface{}{"error": err.Error()})
			return nil, fmt.Errorf("rol satırı okunamadı: %w", err)
		}
		roles = append(roles, &role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roller okunamadı: %w", err)
	}

	return roles, nil
}

func (r *RoleRepository) Exists(id int64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("exists", "roles", time.Since(start))
	}()

	var count int
	query := `SELECT COUNT(*) FROM roles WHERE id = $1`
	if err := r.db.QueryRow(query, id).Scan(&count); err != nil {
		r.logger.Error("Rol varlığı kontrol edilemedi", map[string]interface{}{"id": id, "error": err.Error()})
		return false, fmt.Errorf("rol varlığı kontrol edilemedi: %w", err)
	}

	return count > 0, nil
}
