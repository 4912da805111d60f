package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
)

// Connect opens the database named by dsn and runs migrations.
// postgres:// URLs use the Postgres driver and create the database when missing;
// anything else is treated as a SQLite path, ":memory:" included.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	conn, err := Open(dsn, log)
	if err != nil {
		return nil, err
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return conn, nil
}

// Open connects without migrating.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.NewGormLogger(log, gormlogger.Warn),
	}

	if !isPostgres(dsn) {
		conn, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		// every pooled connection to ":memory:" would get its own empty database
		sqlDB.SetMaxOpenConns(1)
		return conn, nil
	}

	if err := ensureDatabase(dsn); err != nil {
		return nil, fmt.Errorf("failed to ensure database: %w", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Warn("failed to ensure uuid-ossp extension", zap.Error(err))
	}

	return conn, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.UserProfile{},
		&models.OTP{},
		&models.Category{},
		&models.Brand{},
		&models.Color{},
		&models.Size{},
		&models.Product{},
		&models.Promotion{},
		&models.Review{},
		&models.WishlistItem{},
		&models.Cart{},
		&models.CartItem{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

// HealthCheck pings the underlying connection pool.
func HealthCheck(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func ensureDatabase(dsn string) error {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
