package service

import (
	"errors"
	"strconv"

	"verifyx/internal/sentinel"
	dErrors "verifyx/pkg/domain-errors"
)

// translate maps store sentinels to domain errors. Domain errors raised by
// validate callbacks keep their code.
func translate(err error, notFound, internal string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "verification session was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, internal)
	}
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
