package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrForbidden indicates the requesting user does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidColumnSet indicates the request named unknown output columns.
	// Match with errors.Is; the concrete error lists the offending names.
	ErrInvalidColumnSet = errors.New("invalid column set")
	// ErrUploadTooLarge indicates the upload exceeds the configured limit.
	ErrUploadTooLarge = errors.New("upload too large")
)

// InvalidColumnsError reports which requested columns are not recognized.
type InvalidColumnsError struct {
	Unknown []string
}

func (e *InvalidColumnsError) Error() string {
	return fmt.Sprintf("invalid column set: unknown columns %s", strings.Join(e.Unknown, ", "))
}

func (e *InvalidColumnsError) Is(target error) bool {
	return target == ErrInvalidColumnSet
}
