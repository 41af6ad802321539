package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeCorrupt means a record could not be decoded or parsed.
	ErrCodeCorrupt ErrorCode = "CORRUPT"

	// ErrCodeMigration means a migration chain failed or cycled.
	ErrCodeMigration ErrorCode = "MIGRATION_FAILED"

	// ErrCodeShape means migrated state did not satisfy the state schema.
	ErrCodeShape ErrorCode = "SHAPE_INVALID"

	// ErrCodePersist means the state could not be written.
	ErrCodePersist ErrorCode = "PERSIST_FAILED"

	// ErrCodeStorage means the storage backend failed on read or delete.
	ErrCodeStorage ErrorCode = "STORAGE_FAILED"
)

// Error is a classified store failure.
type Error struct {
	Code ErrorCode
	// Op is the store operation: "load", "import", "persist", "clear".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op string, code ErrorCode, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the ErrorCode of err, or "" when err is not a store Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCorrupt reports whether err is a decode or parse failure.
func IsCorrupt(err error) bool {
	return CodeOf(err) == ErrCodeCorrupt
}
