package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// busyTimeout is how long SQLite waits on a locked file before failing.
const busyTimeout = 5 * time.Second

// Store wraps the gorm handle for the SQLite data file.
type Store struct {
	db     *gorm.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	// One connection serialises writers inside the process.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	s := &Store{db: db, path: path, logger: logger}

	if err := s.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&User{}, &Task{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	logger.Info("database opened", zap.String("path", path))
	return s, nil
}

// dsn builds the driver DSN with the pragmas the store relies on.
func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds())
}

// DB returns the gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
