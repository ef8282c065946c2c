package advice

import "errors"

// Domain errors
var (
	ErrAIServiceUnavailable = errors.New("ai service unavailable")
	ErrMalformedAIResponse  = errors.New("malformed ai response")
)
