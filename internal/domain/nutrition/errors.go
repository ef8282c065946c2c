package nutrition

import "errors"

// Domain errors
var (
	ErrInvalidProfile = errors.New("invalid user profile")
	ErrMissingData    = errors.New("missing nutrition data")
)
