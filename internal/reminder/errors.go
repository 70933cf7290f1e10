package reminder

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no reminder has the requested ID.
	ErrNotFound = errors.New("reminder not found")
	// ErrInvalid wraps validation failures.
	ErrInvalid = errors.New("invalid reminder")
	// ErrPermissionDenied is returned by notifiers when the platform refuses
	// to deliver notifications.
	ErrPermissionDenied = errors.New("notification permission denied")
)
