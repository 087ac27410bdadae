package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/call-scheduler/environments"
	"github.com/onurcolak/call-scheduler/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

func RunMigrations(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scheduled_calls (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		phone_number VARCHAR(20) NOT NULL,
		scheduled_time DATETIME NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		call_api_id VARCHAR(100),
		call_status VARCHAR(50),
		error_message TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_scheduled_calls_status (status),
		INDEX idx_scheduled_calls_scheduled_time (scheduled_time),
		INDEX idx_scheduled_calls_status_time (status, scheduled_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Infof("Database migrations completed")

	return nil
}

func SeedTestData(db *sqlx.DB) error {
	var count int

	err := db.Get(&count, "SELECT COUNT(*) FROM scheduled_calls")
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d calls, skipping seed", count)
		return nil
	}

	testCalls := []struct {
		phoneNumber string
		offset      time.Duration
	}{
		{"+905551234567", 1 * time.Minute},
		{"+905559876543", 5 * time.Minute},
		{"+905551112233", 15 * time.Minute},
		{"+905554445566", 30 * time.Minute},
		{"+905557778899", time.Hour},
		{"+15551234567", 2 * time.Hour},
		{"+15559876543", 4 * time.Hour},
		{"+442071234567", 8 * time.Hour},
	}

	now := time.Now()
	for _, call := range testCalls {
		_, err := db.Exec(
			"INSERT INTO scheduled_calls (phone_number, scheduled_time, status) VALUES (?, ?, 'pending')",
			call.phoneNumber, now.Add(call.offset),
		)
		if err != nil {
			return fmt.Errorf("failed to seed test data: %w", err)
		}
	}

	logger.Infof("Seeded %d test calls", len(testCalls))
	return nil
}
