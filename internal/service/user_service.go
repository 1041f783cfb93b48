package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
	"userflow/pkg/metrics"
)

type UserService struct {
	repo     domain.UserRepository
	roleSvc  domain.RoleService
	auditSvc domain.AuditLogService
	eventSvc domain.EventStoreService
	logger   logger.Logger
}

func NewUserService(
	repo domain.UserRepository,
	roleSvc domain.RoleService,
	auditSvc domain.AuditLogService,
	eventSvc domain.EventStoreService,
	logger logger.Logger,
) domain.UserService {
	return &UserService{
		repo:     repo,
		roleSvc:  roleSvc,
		auditSvc: auditSvc,
		eventSvc: eventSvc,
		logger:   logger,
	}
}

func (s *UserService) GetUserByID(id int64) (*domain.User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		s.logger.Error("Kullanıcı ID'ye göre sorgulanamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, err
	}

	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByEmail(email string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(email)
	if err != nil {
		s.logger.Error("Kullanıcı e-posta adresine göre sorgulanamadı", map[string]interface{}{"email": email, "error": err.Error()})
		return nil, err
	}

	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) CreateUser(input *domain.UpsertUser) (*domain.User, error) {
	if err := input.Validate(); err != nil {
		metrics.RecordUserOperation("create", "invalid")
		return nil, err
	}

	existing, err := s.repo.FindByEmail(input.Email)
	if err != nil {
		s.logger.Error("E-posta adresi kontrolü sırasında hata oluştu", map[string]interface{}{"email": input.Email, "error": err.Error()})
		metrics.RecordUserOperation("create", "error")
		return nil, err
	}

	if existing != nil {
		metrics.RecordUserOperation("create", "duplicate")
		return nil, domain.ErrDuplicateEmail
	}

	exists, err := s.roleSvc.RoleExists(input.RoleID)
	if err != nil {
		s.logger.Error("Rol kontrolü sırasında hata oluştu", map[string]interface{}{"role_id": input.RoleID, "error": err.Error()})
		metrics.RecordUserOperation("create", "error")
		return nil, err
	}

	if !exists {
		metrics.RecordUserOperation("create", "invalid_role")
		return nil, domain.ErrRoleNotFound
	}

	user := &domain.User{
		Email:    input.Email,
		Password: input.Password,
		Fullname: input.Fullname,
		RoleID:   input.RoleID,
	}

	// The unique and foreign key constraints back this up if a concurrent
	// writer slips past the checks above.
	if err := s.repo.Create(user); err != nil {
		metrics.RecordUserOperation("create", "error")
		return nil, err
	}

	metrics.RecordUserOperation("create", "success")

	s.auditSvc.LogActionAsync(domain.EntityTypeUser, user.ID, domain.ActionTypeCreate,
		fmt.Sprintf("Kullanıcı oluşturuldu: %s", user.Email))
	s.recordEvent(user, domain.EventTypeUserCreated)

	return user, nil
}

func (s *UserService) UpdateUser(id int64, input *domain.UpsertUser) (*domain.User, error) {
	if err := input.Validate(); err != nil {
		metrics.RecordUserOperation("update", "invalid")
		return nil, err
	}

	existing, err := s.repo.FindByID(id)
	if err != nil {
		s.logger.Error("Kullanıcı güncellemesi sırasında hata oluştu", map[string]interface{}{"id": id, "error": err.Error()})
		metrics.RecordUserOperation("update", "error")
		return nil, err
	}

	if existing == nil {
		metrics.RecordUserOperation("update", "not_found")
		return nil, domain.ErrUserNotFound
	}

	if existing.Email != input.Email {
		emailUser, err := s.repo.FindByEmail(input.Email)
		if err != nil {
			s.logger.Error("E-posta adresi kontrolü sırasında hata oluştu", map[string]interface{}{"email": input.Email, "error": err.Error()})
			metrics.RecordUserOperation("update", "error")
			return nil, err
		}

		if emailUser != nil {
			metrics.RecordUserOperation("update", "duplicate")
			return nil, domain.ErrDuplicateEmail
		}
	}

	exists, err := s.roleSvc.RoleExists(input.RoleID)
	if err != nil {
		s.logger.Error("Rol kontrolü sırasında hata oluştu", map[string]interface{}{"role_id": input.RoleID, "error": err.Error()})
		metrics.RecordUserOperation("update", "error")
		return nil, err
	}

	if !exists {
		metrics.RecordUserOperation("update", "invalid_role")
		return nil, domain.ErrRoleNotFound
	}

	user := &domain.User{
		ID:       id,
		Email:    input.Email,
		Password: input.Password,
		Fullname: input.Fullname,
		RoleID:   input.RoleID,
	}

	if err := s.repo.Update(user); err != nil {
		metrics.RecordUserOperation("update", "error")
		return nil, err
	}

	metrics.RecordUserOperation("update", "success")

	s.auditSvc.LogActionAsync(domain.EntityTypeUser, user.ID, domain.ActionTypeUpdate,
		fmt.Sprintf("Kullanıcı güncellendi: %s", user.Email))
	s.recordEvent(user, domain.EventTypeUserUpdated)

	return user, nil
}

func (s *UserService) DeleteUser(id int64) error {
	existing, err := s.repo.FindByID(id)
	if err != nil {
		s.logger.Error("Kullanıcı silme sırasında hata oluştu", map[string]interface{}{"id": id, "error": err.Error()})
		metrics.RecordUserOperation("delete", "error")
		return err
	}

	if existing == nil {
		metrics.RecordUserOperation("delete", "not_found")
		return domain.ErrUserNotFound
	}

	if err := s.repo.Delete(id); err != nil {
		metrics.RecordUserOperation("delete", "error")
		return err
	}

	metrics.RecordUserOperation("delete", "success")

	s.auditSvc.LogActionAsync(domain.EntityTypeUser, id, domain.ActionTypeDelete,
		fmt.Sprintf("Kullanıcı silindi: %s", existing.Email))
	s.recordEvent(existing, domain.EventTypeUserDeleted)

	return nil
}

// recordEvent appends a passwordless snapshot of the user to the event
// stream. Event store failures are logged and never fail the operation.
func (s *UserService) recordEvent(user *domain.User, eventType domain.EventType) {
	payload, err := json.Marshal(map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"fullname": user.Fullname,
		"role_id":  user.RoleID,
	})
	if err != nil {
		s.logger.Error("Event verisi hazırlanamadı", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
		return
	}

	aggregateID := strconv.FormatInt(user.ID, 10)

	lastVersion, err := s.eventSvc.GetLastVersion(domain.AggregateTypeUser, aggregateID)
	if err != nil {
		s.logger.Error("Son event versiyonu okunamadı", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
		return
	}

	event := &domain.Event{
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeUser,
		EventType:     eventType,
		EventData:     payload,
		Version:       lastVersion + 1,
		CreatedAt:     time.Now(),
	}

	if err := s.eventSvc.SaveEvent(event); err != nil {
		s.logger.Error("Kullanıcı eventi kaydedilemedi", map[string]interface{}{
			"user_id":    user.ID,
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}
