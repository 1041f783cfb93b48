package service

import (
	"context"
	"fmt"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/circuitbreaker"
	"userflow/pkg/fallback"
	"userflow/pkg/logger"
)

const roleRegistryFallback = "role-registry"

// RoleService reads the role registry through a fallback policy: results are
// remembered in process and served as last known good values when the
// registry is unreachable. The registry itself is read only; roles are
// provisioned by migration.
type RoleService struct {
	repo     domain.RoleRepository
	fallback *fallback.FallbackManager
	logger   logger.Logger
}

func NewRoleService(repo domain.RoleRepository, fm *fallback.FallbackManager, logger logger.Logger) domain.RoleService {
	fm.RegisterFallback(&fallback.FallbackConfig{
		Name:     roleRegistryFallback,
		Strategy: fallback.StrategyCache,
		CacheTTL: 5 * time.Minute,
		Timeout:  3 * time.Second,
		CircuitBreaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:        roleRegistryFallback,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	})

	return &RoleService{
		repo:     repo,
		fallback: fm,
		logger:   logger,
	}
}

func (s *RoleService) GetRoleByID(id int64) (*domain.Role, error) {
	result, err := s.fallback.Execute(context.Background(), roleRegistryFallback,
		fmt.Sprintf("role:id:%d", id),
		func(ctx context.Context) (interface{}, error) {
			role, err := s.repo.FindByID(id)
			if err != nil {
				return nil, err
			}
			if role == nil {
				return nil, nil
			}
			return role, nil
		})

	if err != nil {
		s.logger.Error("Rol sorgulanamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, err
	}

	role, ok := result.(*domain.Role)
	if !ok || role == nil {
		return nil, domain.ErrRoleNotFound
	}

	return role, nil
}

func (s *RoleService) GetRoleByName(name string) (*domain.Role, error) {
	result, err := s.fallback.Execute(context.Background(), roleRegistryFallback,
		fmt.Sprintf("role:name:%s", name),
		func(ctx context.Context) (interface{}, error) {
			role, err := s.repo.FindByName(name)
			if err != nil {
				return nil, err
			}
			if role == nil {
				return nil, nil
			}
			return role, nil
		})

	if err != nil {
		s.logger.Error("Rol adına göre sorgulanamadı", map[string]interface{}{"name": name, "error": err.Error()})
		return nil, err
	}

	role, ok := result.(*domain.Role)
	if !ok || role == nil {
		return nil, domain.ErrRoleNotFound
	}

	return role, nil
}

func (s *RoleService) ListRoles() ([]*domain.Role, error) {
	result, err := s.fallback.Execute(context.Background(), roleRegistryFallback,
		"roles:all",
		func(ctx context.Context) (interface{}, error) {
			roles, err := s.repo.FindAll()
			if err != nil {
				return nil, err
			}
			return roles, nil
		})

	if err != nil {
		s.logger.Error("Roller listelenemedi", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	roles, _ := result.([]*domain.Role)
	return roles, nil
}

// RoleExists only remembers positive answers, so a role added later is
// picked up as soon as the registry responds again.
func (s *RoleService) RoleExists(id int64) (bool, error) {
	result, err := s.fallback.Execute(context.Background(), roleRegistryFallback,
		fmt.Sprintf("role:exists:%d", id),
		func(ctx context.Context) (interface{}, error) {
			exists, err := s.repo.Exists(id)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, nil
			}
			return true, nil
		})

	if err != nil {
		s.logger.Error("Rol varlığı kontrol edilemedi", map[string]interface{}{"id": id, "error": err.Error()})
		return false, err
	}

	exists, ok := result.(bool)
	return ok && exists, nil
}
