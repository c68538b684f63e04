package database

import (
	"errors"
	"fmt"
)

// Code classifies every error the store returns.
type Code int

const (
	CodeUnknown Code = iota
	CodeEnvironmentUnsupported
	CodeOpenFailed
	CodeBlocked
	CodeMigrationFailed
	CodeNotFound
	CodeIndexNotFound
	CodeDuplicateKey
	CodeWriteError
	CodeReadError
)

var codeNames = map[Code]string{
	CodeUnknown:                "unknown",
	CodeEnvironmentUnsupported: "environment unsupported",
	CodeOpenFailed:             "open failed",
	CodeBlocked:                "blocked",
	CodeMigrationFailed:        "migration failed",
	CodeNotFound:               "not found",
	CodeIndexNotFound:          "index not found",
	CodeDuplicateKey:           "duplicate key",
	CodeWriteError:             "write error",
	CodeReadError:              "read error",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is the typed error returned by every store operation.
type Error struct {
	Code       Code
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	msg := "database: "
	if e.Op != "" {
		msg += e.Op + " "
	}
	if e.Collection != "" {
		msg += e.Collection + " "
	}
	if e.Op != "" || e.Collection != "" {
		msg = msg[:len(msg)-1] + ": "
	}
	msg += e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrEnvironmentUnsupported = &Error{Code: CodeEnvironmentUnsupported}
	ErrOpenFailed             = &Error{Code: CodeOpenFailed}
	ErrBlocked                = &Error{Code: CodeBlocked}
	ErrMigrationFailed        = &Error{Code: CodeMigrationFailed}
	ErrNotFound               = &Error{Code: CodeNotFound}
	ErrIndexNotFound          = &Error{Code: CodeIndexNotFound}
	ErrDuplicateKey           = &Error{Code: CodeDuplicateKey}
	ErrWriteError             = &Error{Code: CodeWriteError}
	ErrReadError              = &Error{Code: CodeReadError}
)

// Causes wrapped inside an *Error.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidKey         = errors.New("invalid key")
	ErrMissingKey         = errors.New("record has no key at key path")
	ErrInvalidRecord      = errors.New("record is not a JSON object")
	ErrInvalidRange       = errors.New("invalid key range")
	ErrVersionTooNew      = errors.New("persisted version is newer than requested version")
	ErrUnknownVersion     = errors.New("requested version is not declared")
	ErrSchemaConflict     = errors.New("persisted definition differs from registry")
	ErrTxDone             = errors.New("transaction has already finished")
	ErrReadOnly           = errors.New("write inside a read-only transaction")
	ErrHandleClosed       = errors.New("handle is closed")
)

func newError(code Code, op, collection string, err error) *Error {
	return &Error{Code: code, Op: op, Collection: collection, Err: err}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Wrap keeps an existing *Error as is and classifies anything else with code.
func Wrap(code Code, op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(code, op, collection, err)
}
