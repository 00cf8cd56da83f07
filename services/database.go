package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Fababum/portfolio/model"
	"github.com/alphabatem/common/context"
	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type DatabaseService struct {
	context.DefaultService
	db *gorm.DB

	driver   string
	database string
}

const DATABASE_SVC = "database_svc"

func (ds DatabaseService) Id() string {
	return DATABASE_SVC
}

// Db Access to the raw gorm handle
func (ds DatabaseService) Db() *gorm.DB {
	return ds.db
}

func (ds *DatabaseService) Configure(ctx *context.Context) error {
	var err error
	if ds.driver, ds.database, err = DatabaseFromEnv(); err != nil {
		return err
	}
	return ds.DefaultService.Configure(ctx)
}

// DatabaseFromEnv resolves the driver and its DSN (or sqlite path) from DB_* variables.
func DatabaseFromEnv() (driver string, database string, err error) {
	driver = strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = DriverSqlite
	}

	switch driver {
	case DriverSqlite:
		database = os.Getenv("DB_DATABASE")
		if database == "" {
			database = "portfolio.db"
		}
	case DriverPostgres:
		database = postgresDSN()
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return driver, database, nil
}

func postgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		env("DB_HOST", "localhost"),
		env("DB_USER", "postgres"),
		env("DB_PASSWORD", "postgres"),
		env("DB_NAME", "portfolio"),
		env("DB_PORT", "5432"),
		env("DB_SSLMODE", "disable"),
		env("DB_TIMEZONE", "UTC"),
	)
}

func Dialector(driver, database string) gorm.Dialector {
	if driver == DriverPostgres {
		return postgres.Open(database)
	}
	return sqlite.Open(database)
}

// Start opens the connection, retrying with exponential backoff, and migrates
// the schema.
func (ds *DatabaseService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.WithFields(log.Fields{"driver": ds.driver, "attempt": attempt}).Info("Connecting to database")

		ds.db, err = gorm.Open(Dialector(ds.driver, ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})
		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if err = sqlDB.Ping(); err == nil {
					break
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.WithError(err).Errorf("Failed to connect to database after %d attempts", maxRetries)
			return err
		}

		log.WithError(err).Warnf("Database connection failed, retrying in %v", retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err = Migrate(ds.db); err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}

	log.WithField("driver", ds.driver).Info("Database connected and migrated successfully")
	return nil
}

func (ds *DatabaseService) Shutdown() {
	if ds.db == nil {
		return
	}
	if sqlDB, err := ds.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.AdminUser{},
		&model.AdminSession{},
		&model.Visitor{},
		&model.Visit{},
	)
}

func HandleDBError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError
		errorType = "TRANSACTION_ERROR"
	default:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"),
			strings.Contains(msg, "duplicate key value violates unique constraint"):
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		case strings.Contains(msg, "no such table"),
			strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"):
			statusCode = http.StatusInternalServerError
			errorType = "SCHEMA_ERROR"
		case strings.Contains(msg, "connection refused"):
			statusCode = http.StatusServiceUnavailable
			errorType = "DATABASE_CONNECTION_ERROR"
		default:
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Debug("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}
