package factory

import (
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"userflow/internal/config"
	"userflow/internal/domain"
	"userflow/internal/repository"
	"userflow/internal/service"
	"userflow/pkg/cache"
	"userflow/pkg/database"
	"userflow/pkg/fallback"
	"userflow/pkg/logger"
	"userflow/pkg/redis"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetDB() *sql.DB
	GetConnectionManager() *database.ConnectionManager
	GetFallbackManager() *fallback.FallbackManager
	GetRedisClient() *goredis.Client
	GetCache() cache.Cache
	GetCacheManager() cache.CacheStrategy
	GetWarmUpManager() *cache.WarmUpManager

	GetUserRepository() domain.UserRepository
	GetRoleRepository() domain.RoleRepository
	GetAuditLogRepository() domain.AuditLogRepository
	GetEventStoreRepository() domain.EventStoreRepository

	GetUserService() domain.UserService
	GetRoleService() domain.RoleService
	GetAuditLogService() domain.AuditLogService
	GetEventStoreService() domain.EventStoreService

	Close() error
}

type AppFactory struct {
	config            *config.Config
	logger            logger.Logger
	connectionManager *database.ConnectionManager
	fallbackManager   *fallback.FallbackManager
	redisClient       *redis.RedisClient
	cache             cache.Cache
	cacheManager      cache.CacheStrategy
	warmUpManager     *cache.WarmUpManager

	userRepository       domain.UserRepository
	roleRepository       domain.RoleRepository
	auditLogRepository   domain.AuditLogRepository
	eventStoreRepository domain.EventStoreRepository

	userService       domain.UserService
	roleService       domain.RoleService
	auditLogService   domain.AuditLogService
	eventStoreService domain.EventStoreService
}

func NewFactory() (Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), nil)

	connManager, err := database.NewConnectionManager(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("veritabanı bağlantısı kurulamadı: %w", err)
	}

	factory := &AppFactory{
		config:            cfg,
		logger:            log,
		connectionManager: connManager,
		fallbackManager:   fallback.NewFallbackManager(log),
	}

	// Cache is optional; without REDIS_HOST the services hit the database directly.
	if cfg.Redis.Host != "" {
		redisClient, err := redis.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("Redis bağlantısı kurulamadı: %w", err)
		}

		factory.redisClient = redisClient
		factory.cache = cache.NewRedisCache(redisClient.Client, log, "userflow")
		factory.cacheManager = cache.NewCacheManager(factory.cache, log)
	}

	factory.initRepositories()
	factory.initServices()

	return factory, nil
}

func (f *AppFactory) initRepositories() {
	writeDB := f.connectionManager.GetWriteDB()

	f.userRepository = repository.NewUserRepository(writeDB, f.logger)
	f.auditLogRepository = repository.NewAuditLogRepository(writeDB, f.logger)
	f.eventStoreRepository = repository.NewEventStoreRepository(writeDB, f.logger)

	// The role registry is read only at runtime, so its queries may go to a replica.
	f.roleRepository = repository.NewRoleRepository(f.connectionManager.GetReadDB(), f.logger)
}

func (f *AppFactory) initServices() {
	f.eventStoreService = service.NewEventStoreService(f.eventStoreRepository, f.logger)
	f.roleService = service.NewRoleService(f.roleRepository, f.fallbackManager, f.logger)
	f.auditLogService = service.NewAuditLogService(f.auditLogRepository, f.fallbackManager, f.logger)

	// Wrap the dependencies first so the user service sees the cached views.
	if f.cache != nil {
		f.roleService = service.NewCachedRoleService(f.roleService, f.cache, f.cacheManager, f.logger)
		f.auditLogService = service.NewCachedAuditLogService(f.auditLogService, f.cache, f.cacheManager, f.logger)
	}

	f.userService = service.NewUserService(
		f.userRepository,
		f.roleService,
		f.auditLogService,
		f.eventStoreService,
		f.logger,
	)

	if f.cache != nil {
		f.userService = service.NewCachedUserService(f.userService, f.cache, f.cacheManager, f.logger)
		f.warmUpManager = cache.NewWarmUpManager(f.cache, f.logger, f.userService, f.roleService)
	}
}

// Close tears the application down in dependency order: the audit queue and
// retry workers are drained while the database is still reachable, then the
// connections go away.
func (f *AppFactory) Close() error {
	if f.auditLogService != nil {
		f.auditLogService.Shutdown()
	}

	f.fallbackManager.Close()

	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			f.logger.Warn("Redis bağlantısı kapatılamadı", map[string]interface{}{"error": err.Error()})
		}
	}

	return f.connectionManager.Close()
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetDB() *sql.DB {
	return f.connectionManager.GetWriteDB()
}

func (f *AppFactory) GetConnectionManager() *database.ConnectionManager {
	return f.connectionManager
}

func (f *AppFactory) GetFallbackManager() *fallback.FallbackManager {
	return f.fallbackManager
}

func (f *AppFactory) GetRedisClient() *goredis.Client {
	if f.redisClient == nil {
		return nil
	}
	return f.redisClient.Client
}

func (f *AppFactory) GetCache() cache.Cache {
	return f.cache
}

func (f *AppFactory) GetCacheManager() cache.CacheStrategy {
	return f.cacheManager
}

func (f *AppFactory) GetWarmUpManager() *cache.WarmUpManager {
	return f.warmUpManager
}

func (f *AppFactory) GetUserRepository() domain.UserRepository {
	return f.userRepository
}

func (f *AppFactory) GetRoleRepository() domain.RoleRepository {
	return f.roleRepository
}

func (f *AppFactory) GetAuditLogRepository() domain.AuditLogRepository {
	return f.auditLogRepository
}

func (f *AppFactory) GetEventStoreRepository() domain.EventStoreRepository {
	return f.eventStoreRepository
}

func (f *AppFactory) GetUserService() domain.UserService {
	return f.userService
}

func (f *AppFactory) GetRoleService() domain.RoleService {
	return f.roleService
}

func (f *AppFactory) GetAuditLogService() domain.AuditLogService {
	return f.auditLogService
}

func (f *AppFactory) GetEventStoreService() domain.EventStoreService {
	return f.eventStoreService
}
