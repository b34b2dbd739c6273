// Package store is the record store: one gorm-backed table per collection,
// each keyed by a single identifier, with conditional writes and
// multi-record transactions.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/exceptionzofficial/testing-backend-akshaya/config"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"

	"github.com/glebarez/sqlite"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when no record has the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed is returned when a conditional write finds the
	// stored record in a state other than the one required.
	ErrConditionFailed = errors.New("condition failed")
)

// Cond is an extra predicate the stored record must satisfy for a
// conditional update to apply.
type Cond struct {
	Query string
	Args  []any
}

// Where builds a Cond.
func Where(query string, args ...any) Cond {
	return Cond{Query: query, Args: args}
}

// Incr is an update value that adds n to column atomically in the database.
func Incr(column string, n int) any {
	return gorm.Expr(column+" + ?", n)
}

type Store struct {
	db *gorm.DB
}

// New wraps an already opened database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	case "sqlite3":
		dialector = cgosqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	// SQLite allows one writer; a single connection makes transactions queue
	// instead of failing with "database is locked".
	sqlDB.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates every collection table.
func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&models.User{},
		&models.Rider{},
		&models.Order{},
		&models.CatalogItem{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transact runs fn inside one database transaction. The Store passed to fn
// must be used for every read and write that belongs to the transaction;
// any error returned by fn rolls everything back.
func (s *Store) Transact(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// insert writes rec only if no record with the same key exists.
func (s *Store) insert(ctx context.Context, rec any) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return fmt.Errorf("insert failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// first loads the single record matching query. Find is used instead of
// First so a miss is not traced as a query error.
func (s *Store) first(ctx context.Context, dest any, query string, args ...any) error {
	res := s.db.WithContext(ctx).Where(query, args...).Limit(1).Find(dest)
	if res.Error != nil {
		return fmt.Errorf("read failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// update applies updates to the record matched by key, provided every cond
// holds. Zero matched rows is reported as ErrNotFound when the key is absent
// and ErrConditionFailed otherwise.
func (s *Store) update(ctx context.Context, model any, key Cond, updates map[string]any, conds []Cond) error {
	q := s.db.WithContext(ctx).Model(model).Where(key.Query, key.Args...)
	for _, c := range conds {
		q = q.Where(c.Query, c.Args...)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update failed: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where(key.Query, key.Args...).Count(&n).Error; err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConditionFailed
}
