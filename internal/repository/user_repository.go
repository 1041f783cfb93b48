package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/database"
	"userflow/pkg/logger"
	"userflow/pkg/metrics"
)

type UserRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserRepository(db *sql.DB, logger logger.Logger) domain.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// translateConstraint maps engine level constraint failures onto the domain
// errors callers branch on. Anything else passes through untouched.
func translateConstraint(err error) error {
	translated := database.TranslateError(err)

	switch {
	case errors.Is(translated, database.ErrUniqueViolation):
		return domain.ErrDuplicateEmail
	case errors.Is(translated, database.ErrForeignKeyViolation):
		return domain.ErrRoleNotFound
	case errors.Is(translated, database.ErrNotNullViolation):
		return domain.ErrMissingField
	}

	return err
}

func (r *UserRepository) FindByID(id int64) (*domain.User, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("find_by_id", "users", time.Since(start))
	}()

	query := `SELECT id, email, password, fullname, role_id FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Fullname,
		&user.RoleID,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Kullanıcı ID'ye göre bulunamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("kullanıcı sorgulanamadı: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*domain.User, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("find_by_email", "users", time.Since(start))
	}()

	query := `SELECT id, email, password, fullname, role_id FROM users WHERE email = $1`

	var user domain.User
	err := r.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Fullname,
		&user.RoleID,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Kullanıcı e-posta adresine göre bulunamadı", map[string]interface{}{"email": email, "error": err.Error()})
		return nil, fmt.Errorf("kullanıcı sorgulanamadı: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Create(user *domain.User) error {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("create", "users", time.Since(start))
	}()

	query := `
		INSERT INTO users (email, password, fullname, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		user.Email,
		user.Password,
		user.Fullname,
		user.RoleID,
	).Scan(&user.ID)

	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		r.logger.Error("Kullanıcı oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("kullanıcı oluşturulamadı: %w", err)
	}

	return nil
}

func (r *UserRepository) Update(user *domain.User) error {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("update", "users", time.Since(start))
	}()

	query := `
		UPDATE users
		SET email = $1, password = $2, fullname = $3, role_id = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(
		query,
		user.Email,
		user.Password,
		user.Fullname,
		user.RoleID,
		user.ID,
	)

	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		r.logger.Error("Kullanıcı güncellenemedi", map[string]interface{}{"id": user.ID, "error": err.Error()})
		return fmt.Errorf("kullanıcı güncellenemedi: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("kullanıcı güncellenemedi: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) Delete(id int64) error {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("delete", "users", time.Since(start))
	}()

	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Error("Kullanıcı silinemedi", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("kullanıcı silinemedi: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("kullanıcı silinemedi: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
