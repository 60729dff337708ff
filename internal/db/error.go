package db

import (
	"errors"
	"fmt"
)

// DuplicateKeyError is returned when a unique index rejects a document,
// Key names the conflicting record.
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return describe(e.Key, e.Message)
}

func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// NotFoundError is returned by lookups and by updates that matched nothing.
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return describe(e.Key, e.Message)
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func describe(key, msg string) string {
	if key == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", msg, key)
}
