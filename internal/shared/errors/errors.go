// Package errors provides the HTTP-facing application error type and helpers
// for classifying storage errors.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	sqlitedriver "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal_error"
	ErrorTypeBadRequest ErrorType = "bad_request"
)

// AppError represents an application error with additional context.
// Cause, when set, keeps the underlying error reachable through errors.Is.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying error and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newAppError(errType ErrorType, code int, message string, details []string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: strings.Join(details, "; "),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeBadRequest, http.StatusBadRequest, message, details)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeConflict
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeNotFound
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeValidation
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "Duplicate entry"): // MySQL
		return true
	case strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "violates unique constraint"): // PostgreSQL
		return true
	case strings.Contains(errStr, "UNIQUE constraint failed"): // SQLite
		return true
	}
	return false
}

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213

	sqliteBusy   = 5
	sqliteLocked = 6
)

// IsTransientLockError reports whether err is a lock contention failure that
// succeeds when the whole transaction is retried: MySQL deadlock and lock wait
// timeout, PostgreSQL serialization failure and deadlock, SQLite busy/locked.
func IsTransientLockError(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	var liteErr *sqlitedriver.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqliteBusy || primary == sqliteLocked
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "Deadlock found"), strings.Contains(errStr, "Lock wait timeout exceeded"): // MySQL
		return true
	case strings.Contains(errStr, "could not serialize access"), strings.Contains(errStr, "deadlock detected"): // PostgreSQL
		return true
	case strings.Contains(errStr, "SQLITE_BUSY"), strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "database table is locked"): // SQLite
		return true
	}
	return false
}
