package service

import (
	"context"
	"errors"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// storageErr converts a repository failure into the service error taxonomy.
// Errors that already carry a kind pass through.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.KindUnavailable, op, "storage unavailable", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Wrap(apperr.KindDuplicate, op, "record already exists", err)
	}

	return apperr.Wrap(apperr.KindInternal, op, "storage failure", err)
}
