package errors

import "fmt"

var (
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrNotAuthenticated   = fmt.Errorf("connection is not authenticated")
	ErrAlreadyConnected   = fmt.Errorf("connection id already registered")
	ErrConnectionNotFound = fmt.Errorf("connection not found")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrEmptyMessage       = fmt.Errorf("message content is empty")
	ErrMessageTooLong     = fmt.Errorf("message content exceeds the maximum length")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrNotWorkspaceMember = fmt.Errorf("user is not a member of the workspace")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
