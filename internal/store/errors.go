package store

import (
	"errors"

	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
)

// Translate maps a store error onto the public error taxonomy. Typed errors
// pass through untouched so service-level decisions survive Atomic.
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	case errors.Is(err, ErrDuplicate):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeStoreFailure, err, "storage failure")
	}
}
