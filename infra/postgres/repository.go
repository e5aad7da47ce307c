package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"impostor-service/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// latestRoomID resolves a code to its most recent room. Finished rooms keep
// their code, so a code may map to several rows over time.
const latestRoomID = `(SELECT id FROM rooms WHERE code = $1 ORDER BY id DESC LIMIT 1)`

type Repository struct {
	db *sql.DB
}

func NewRepository(connString string) (*Repository, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Pool tuning
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	zap.L().Info("Connected to PostgreSQL successfully")

	if err := initDB(db); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapError translates driver errors into domain errors.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s: %s", domain.ErrConflict, what, pqErr.Constraint)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrBackend, what, err)
}
