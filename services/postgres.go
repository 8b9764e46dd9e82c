package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lac-hong-legacy/ido_api/config"
	"github.com/lac-hong-legacy/ido_api/model"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"

	pgUniqueViolation = "23505"

	priceCacheRetention = 7 * 24 * time.Hour
)

// Models lists every table owned by the relational store.
var Models = []interface{}{
	&model.User{},
	&model.UserSettings{},
	&model.Project{},
	&model.IdoPool{},
	&model.UserInvestment{},
	&model.PriceCache{},
}

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	driver   string
	database string

	stopCleanup chan struct{}
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

// NewPostgresService builds an unconnected service for use outside the service container.
func NewPostgresService(cfg *config.Config) *PostgresService {
	ds := &PostgresService{}
	ds.applyConfig(cfg)
	return ds
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.applyConfig(ctx.Service(CONFIG_SVC).(*ConfigService).Config())

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) applyConfig(cfg *config.Config) {
	ds.driver = cfg.DBDriver
	if ds.driver == DriverSqlite {
		ds.database = cfg.SqlitePath
	} else {
		ds.database = cfg.PostgresDSN()
	}
}

func (ds *PostgresService) Start() (err error) {
	if err = ds.Connect(); err != nil {
		return err
	}

	if err = ds.Migrate(); err != nil {
		return err
	}

	ds.stopCleanup = make(chan struct{})
	ticker := time.NewTicker(24 * time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ds.CleanupExpiredData(); err != nil {
					log.WithError(err).Error("Failed to clean up expired data")
				}
			case <-ds.stopCleanup:
				return
			}
		}
	}()

	log.Info("Database connected and migrated")
	return nil
}

func (ds *PostgresService) dialector() gorm.Dialector {
	if ds.driver == DriverSqlite {
		return sqlite.Open(ds.database)
	}
	return postgres.Open(ds.database)
}

// Connect opens the database, retrying with capped exponential backoff.
func (ds *PostgresService) Connect() (err error) {
	const attempts = 10
	delay := time.Second

	for attempt := 1; ; attempt++ {
		if err = ds.open(); err == nil {
			log.WithField("driver", ds.driver).Info("Connected to database")
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("connect to %s after %d attempts: %w", ds.driver, attempts, err)
		}

		log.WithError(err).WithFields(log.Fields{"attempt": attempt, "retry_in": delay}).Warn("Database connection failed")
		time.Sleep(delay)
		delay = min(delay*2, 10*time.Second)
	}
}

func (ds *PostgresService) open() error {
	db, err := gorm.Open(ds.dialector(), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return err
	}
	ds.db = db
	if err := ds.Ping(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	return nil
}

func (ds *PostgresService) Migrate() error {
	if err := ds.db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// CleanupExpiredData drops price rows the feed has not refreshed for a week.
func (ds *PostgresService) CleanupExpiredData() error {
	cutoff := time.Now().Add(-priceCacheRetention).UnixMilli()
	result := ds.db.Where("last_updated < ?", cutoff).Delete(&model.PriceCache{})
	if result.Error != nil {
		return ds.HandleError(result.Error)
	}
	if result.RowsAffected > 0 {
		log.WithField("rows", result.RowsAffected).Info("Removed stale price cache rows")
	}
	return nil
}

func (ds *PostgresService) Ping() error {
	if ds.db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (ds *PostgresService) Shutdown() {
	if ds.stopCleanup != nil {
		close(ds.stopCleanup)
		ds.stopCleanup = nil
	}
	if ds.db == nil {
		return
	}
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// IsUniqueViolation reports whether err came from a unique index.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

type dbErrorClass struct {
	status int
	kind   string
}

func classifyDBError(err error) dbErrorClass {
	msg := err.Error()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dbErrorClass{http.StatusNotFound, "NOT_FOUND"}
	case IsUniqueViolation(err):
		return dbErrorClass{http.StatusConflict, "UNIQUE_CONSTRAINT"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return dbErrorClass{http.StatusBadRequest, "FOREIGN_KEY_VIOLATION"}
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return dbErrorClass{http.StatusInternalServerError, "TRANSACTION_ERROR"}
	case strings.Contains(msg, "connection refused"):
		return dbErrorClass{http.StatusServiceUnavailable, "DATABASE_CONNECTION_ERROR"}
	case strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"):
		return dbErrorClass{http.StatusInternalServerError, "SCHEMA_ERROR"}
	default:
		return dbErrorClass{http.StatusInternalServerError, "INTERNAL_ERROR"}
	}
}

// HandleError logs err with its classification and prefixes it with the class name.
func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	class := classifyDBError(err)
	entry := log.WithError(err).WithFields(log.Fields{"status_code": class.status, "error_type": class.kind})
	if class.status >= http.StatusInternalServerError {
		entry.Error("Database error")
	} else {
		entry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", class.kind, err)
}
