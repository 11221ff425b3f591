package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Open connects to Postgres, waits for it to become reachable, tunes the
// pool, and bootstraps the schema. The returned pool is owned by the caller
// and must be closed at shutdown.
func Open(cfg Config, logger *zap.Logger) (*sql.DB, error) {
	database, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for attempt := 1; ; attempt++ {
		if err = database.Ping(); err == nil {
			break
		}
		if attempt == 5 {
			database.Close()
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
		}
		logger.Info("waiting for database", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(5 * time.Minute)

	if err := createTables(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info("database connection established", zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return database, nil
}

func createTables(database *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			full_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			role VARCHAR(50) NOT NULL,
			profile_image TEXT NOT NULL DEFAULT '',
			coins INTEGER NOT NULL CHECK (coins >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id SERIAL PRIMARY KEY,
			creator_email VARCHAR(255) NOT NULL REFERENCES users(email),
			task_title VARCHAR(255) NOT NULL,
			task_detail TEXT NOT NULL DEFAULT '',
			task_image_url TEXT NOT NULL DEFAULT '',
			submission_info TEXT NOT NULL DEFAULT '',
			completion_date VARCHAR(50) NOT NULL DEFAULT '',
			task_quantity INTEGER NOT NULL CHECK (task_quantity > 0),
			payable_amount INTEGER NOT NULL CHECK (payable_amount > 0),
			total_cost INTEGER NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS submissions (
			id SERIAL PRIMARY KEY,
			task_id INTEGER NOT NULL REFERENCES tasks(id),
			task_title VARCHAR(255) NOT NULL DEFAULT '',
			worker_email VARCHAR(255) NOT NULL,
			worker_name VARCHAR(255) NOT NULL DEFAULT '',
			creator_email VARCHAR(255) NOT NULL,
			payable_amount INTEGER NOT NULL,
			submission_details TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_submission_status CHECK (status IN ('pending', 'approved', 'rejected'))
		);

		CREATE TABLE IF NOT EXISTS withdrawals (
			id SERIAL PRIMARY KEY,
			worker_email VARCHAR(255) NOT NULL,
			worker_name VARCHAR(255) NOT NULL DEFAULT '',
			withdrawal_coin INTEGER NOT NULL CHECK (withdrawal_coin > 0),
			withdrawal_amount INTEGER NOT NULL CHECK (withdrawal_amount > 0),
			payment_system VARCHAR(100) NOT NULL,
			account_number VARCHAR(100) NOT NULL,
			withdraw_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_submissions_worker ON submissions(worker_email);
		CREATE INDEX IF NOT EXISTS idx_submissions_creator_status ON submissions(creator_email, status);
		CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator_email);
	`

	_, err := database.Exec(query)
	return err
}
