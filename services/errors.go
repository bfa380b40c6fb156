package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error categories. Every error returned by a service wraps exactly one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	// ErrStore marks persistence failures; callers may retry at a higher layer.
	ErrStore = errors.New("store failure")
	// ErrInconsistency marks a multi-step write that committed partially.
	ErrInconsistency = errors.New("inconsistent state")

	ErrAlreadyExists  = fmt.Errorf("%w: friend request already exists", ErrConflict)
	ErrAlreadyFriends = fmt.Errorf("%w: already friends", ErrConflict)
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindForbidden     ErrorKind = "forbidden"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindStore         ErrorKind = "store_failure"
	KindInconsistency ErrorKind = "inconsistency"
	KindInternal      ErrorKind = "internal"
	KindNone          ErrorKind = "ok"
)

// KindOf maps an error to its category.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInconsistency):
		return KindInconsistency
	case errors.Is(err, ErrStore):
		return KindStore
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
