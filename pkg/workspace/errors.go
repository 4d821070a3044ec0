package workspace

import "errors"

var (
	// ErrTokenNotFound is returned for an id that is not on the workspace.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenLoading is returned when dragging a loading placeholder.
	ErrTokenLoading = errors.New("token is still combining")

	// ErrConfirmationRequired is returned by ResetAll without confirmation.
	ErrConfirmationRequired = errors.New("reset requires confirmation")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("workspace closed")

	// ErrBusy is returned when the combination queue is full. The inputs have
	// already been put back.
	ErrBusy = errors.New("too many combinations in flight")
)
