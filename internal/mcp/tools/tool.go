package tools

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agenthub/agenthub-api/internal/auth"
	"github.com/agenthub/agenthub-api/internal/facade"
)

// Definition describes one tool: its schema and whether it requires an
// authenticated principal (liveness tools do not).
type Definition struct {
	Name         string
	Description  string
	RequiresAuth bool
	Schema       Schema
}

// Context carries the per-request state a handler needs: the verified
// principal, the facade service, the contextual logger, and the names of
// the tools the dispatcher exposes (for capability reporting).
type Context struct {
	Principal     *auth.Principal
	Facades       *facade.Service
	Logger        *zerolog.Logger
	CorrelationID string
	ToolNames     []string
}

// Handler executes one tool invocation with coerced arguments and returns
// the standard response envelope.
type Handler func(ctx context.Context, tc *Context, args map[string]any) *Response

// Descriptor is the tools/list wire shape.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}
