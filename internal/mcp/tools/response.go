package tools

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// Response is the standard envelope every tool call returns. A call never
// reports partial success under a success flag; mixed results use the
// "partial" status.
type Response struct {
	Status    string         `json:"status"` // success | error | warning | partial
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      any            `json:"data"`
	ErrorCode string         `json:"error_code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// OK wraps a successful result.
func OK(message string, data any) *Response {
	return &Response{Status: "success", Success: true, Message: message, Data: data, Timestamp: stamp()}
}

// Warning wraps a result that succeeded with caveats.
func Warning(message string, data any, details map[string]any) *Response {
	return &Response{Status: "warning", Success: true, Message: message, Data: data, Details: details, Timestamp: stamp()}
}

// Partial wraps a mixed result.
func Partial(message string, data any, details map[string]any) *Response {
	return &Response{Status: "partial", Success: false, Message: message, Data: data, Details: details, Timestamp: stamp()}
}

// Fail builds an error envelope directly.
func Fail(code domain.ErrorCode, message string, details map[string]any) *Response {
	return &Response{
		Status:    "error",
		Success:   false,
		Message:   message,
		ErrorCode: string(code),
		Details:   details,
		Timestamp: stamp(),
	}
}

// FromError maps a failure to the envelope. Domain errors surface their
// stable code and details; anything else is an internal error logged with
// the correlation id that appears in details.
func FromError(err error, correlationID string) *Response {
	if de, ok := domain.AsError(err); ok && de.Code != domain.CodeInternal {
		return Fail(de.Code, de.Message, de.Details)
	}

	log.Error().Err(err).Str("correlation_id", correlationID).Msg("internal error")
	details := map[string]any{}
	if correlationID != "" {
		details["correlation_id"] = correlationID
	}
	return Fail(domain.CodeInternal, "an internal error occurred", details)
}
