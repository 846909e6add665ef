package service

import (
	"errors"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/storage"
)

// notFoundOr maps storage.ErrNotFound and storage.ErrReference to a NotFound
// error with the given message and anything else to a storage error for op.
func notFoundOr(err error, op, format string, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrReference) {
		return apperr.NotFound(format, args...)
	}
	return apperr.Storage(op, err)
}
