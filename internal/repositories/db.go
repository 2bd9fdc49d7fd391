// Package repositories provides the data access layer. Every query that
// touches tenant-owned data is scoped by tenant id; lifecycle services
// group their writes through the TransactionManager so state changes,
// audit entries and counters persist atomically.
package repositories

import (
	"log"
	"time"

	"merx/internal/config"
	"merx/internal/models"
	"merx/internal/repositories/cache"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB
var CacheService *cache.CacheService

// DBConfig holds database connection pool configuration
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var dbConfig = DBConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    100,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: time.Minute * 30,
}

// InitDB connects to Postgres and Redis, configures pooling and runs
// migrations.
func InitDB() error {
	db, err := gorm.Open(postgres.Open(config.DatabaseDSN()), &gorm.Config{
		// Surface unique violations as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger: logger.New(
			log.Default(),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return err
	}
	DB = db

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	CacheService = cache.NewCacheService(redisClient, 24*time.Hour)

	return db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Merchant{},
		&models.Transaction{},
		&models.AuditLog{},
	)
}
