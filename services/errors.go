package services

// Service errors carry user-facing messages; controllers map the type
// to an HTTP status. A failed validation or authorization never leaves
// partial state behind.

// ValidationError: bad input shape, missing required comment, invalid
// state for the requested transition.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ForbiddenError: the actor's role or identity does not allow the
// transition.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NotFoundError: task, record or user absent.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func validationErr(msg string) error { return &ValidationError{Message: msg} }
func forbiddenErr(msg string) error  { return &ForbiddenError{Message: msg} }
func notFoundErr(msg string) error   { return &NotFoundError{Message: msg} }
