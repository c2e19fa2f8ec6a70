package handlers

const (
	// ActAsHeader names the child profile a parent is acting for
	ActAsHeader = "X-Act-As-Profile"

	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthenticated     = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrNotFound            = "Not found"
	ErrConflict            = "Conflict with existing data"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
)
