package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// fieldTooLong reports whether s exceeds max characters. Counts runes,
// matching varchar length semantics.
func fieldTooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// Postgres error codes surfaced to callers as typed errors
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// BaseRepository provides common repository functionality
type BaseRepository struct {
	db             *bun.DB
	defaultTimeout time.Duration
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *bun.DB) *BaseRepository {
	return &BaseRepository{
		db:             db,
		defaultTimeout: config.DefaultQueryTimeout,
	}
}

// RepositoryError represents a repository-level error
type RepositoryError struct {
	Operation string
	Entity    string
	Err       error
}

func (re *RepositoryError) Error() string {
	return fmt.Sprintf("repository error during %s for %s: %v", re.Operation, re.Entity, re.Err)
}

func (re *RepositoryError) Unwrap() error {
	return re.Err
}

// NotFoundError represents an entity not found error
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", nfe.Entity, nfe.ID)
}

// ConflictError represents a data conflict error, typically a unique
// constraint violation
type ConflictError struct {
	Entity     string
	Constraint string
}

func (ce *ConflictError) Error() string {
	if ce.Constraint != "" {
		return fmt.Sprintf("%s violates constraint %s", ce.Entity, ce.Constraint)
	}
	return fmt.Sprintf("%s already exists", ce.Entity)
}

// InvalidReferenceError represents a foreign key violation: the referenced
// row does not exist
type InvalidReferenceError struct {
	Entity     string
	Constraint string
}

func (ire *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s references a missing row (%s)", ire.Entity, ire.Constraint)
}

// CheckViolationError represents a CHECK constraint violation, e.g. a
// cooking time or amount below the declared minimum
type CheckViolationError struct {
	Entity     string
	Constraint string
}

func (cve *CheckViolationError) Error() string {
	return fmt.Sprintf("%s violates check constraint %s", cve.Entity, cve.Constraint)
}

// WithTimeout creates a context with the default timeout
func (br *BaseRepository) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, br.defaultTimeout)
}

// WithCustomTimeout creates a context with a custom timeout
func (br *BaseRepository) WithCustomTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// HandleError standardizes error handling across repositories
func (br *BaseRepository) HandleError(operation, entity string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: "unknown"}
	}

	if typed := mapPgError(entity, err); typed != nil {
		return typed
	}

	return &RepositoryError{
		Operation: operation,
		Entity:    entity,
		Err:       err,
	}
}

// HandleErrorWithID standardizes error handling with specific ID
func (br *BaseRepository) HandleErrorWithID(operation, entity string, id interface{}, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: id}
	}

	if typed := mapPgError(entity, err); typed != nil {
		return typed
	}

	return &RepositoryError{
		Operation: operation,
		Entity:    entity,
		Err:       err,
	}
}

// mapPgError converts the server-side constraint violations the schema
// declares into typed errors callers can branch on
func mapPgError(entity string, err error) error {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case uniqueViolationCode:
			return &ConflictError{Entity: entity, Constraint: pe.ConstraintName}
		case foreignKeyViolationCode:
			return &InvalidReferenceError{Entity: entity, Constraint: pe.ConstraintName}
		case checkViolationCode:
			return &CheckViolationError{Entity: entity, Constraint: pe.ConstraintName}
		}
		return nil
	}

	// bun queries go through pgdriver, which has its own error type
	var de pgdriver.Error
	if errors.As(err, &de) {
		switch de.Field('C') {
		case uniqueViolationCode:
			return &ConflictError{Entity: entity, Constraint: de.Field('n')}
		case foreignKeyViolationCode:
			return &InvalidReferenceError{Entity: entity, Constraint: de.Field('n')}
		case checkViolationCode:
			return &CheckViolationError{Entity: entity, Constraint: de.Field('n')}
		}
	}
	return nil
}

// Transaction executes a function within a database transaction
func (br *BaseRepository) Transaction(ctx context.Context, fn func(context.Context, bun.Tx) error) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	return br.db.RunInTx(timeoutCtx, nil, fn)
}

// Count returns the count of records matching the query
func (br *BaseRepository) Count(ctx context.Context, entity string, query *bun.SelectQuery) (int, error) {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	count, err := query.Count(timeoutCtx)
	return count, br.HandleError("count", entity, err)
}

// Exists checks if a record exists
func (br *BaseRepository) Exists(ctx context.Context, entity string, query *bun.SelectQuery) (bool, error) {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	exists, err := query.Exists(timeoutCtx)
	return exists, br.HandleError("exists", entity, err)
}

// GetDB returns the underlying database connection
func (br *BaseRepository) GetDB() *bun.DB {
	return br.db
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsInvalidReference checks if an error is an InvalidReferenceError
func IsInvalidReference(err error) bool {
	var ire *InvalidReferenceError
	return errors.As(err, &ire)
}

// IsCheckViolation checks if an error is a CheckViolationError
func IsCheckViolation(err error) bool {
	var cve *CheckViolationError
	return errors.As(err, &cve)
}

// IsRepositoryError checks if an error is a RepositoryError
func IsRepositoryError(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}
