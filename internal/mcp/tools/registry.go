package tools

import (
	"context"
	"fmt"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// Tool pairs a definition with the handler that executes it. The full
// tool surface is declared as a catalog of these and turned into a
// Registry in one construction step.
type Tool struct {
	Definition
	Handler Handler
}

// Registry is an immutable name → tool lookup. Because the catalog is
// sealed at construction, lookups need no locking and tools/list order is
// simply catalog order.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry validates a catalog and builds the lookup. Nameless or
// handlerless entries and duplicate names are construction errors: the
// catalog is static, so these can only be programming mistakes.
func NewRegistry(catalog []Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(catalog))}
	for i, tool := range catalog {
		switch {
		case tool.Name == "":
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		case tool.Handler == nil:
			return nil, fmt.Errorf("tool %q has no handler", tool.Name)
		}
		if _, dup := r.byName[tool.Name]; dup {
			return nil, fmt.Errorf("tool %q declared twice", tool.Name)
		}
		r.byName[tool.Name] = tool
		r.order = append(r.order, tool.Name)
	}
	return r, nil
}

// List renders the catalog as tools/list descriptors, in catalog order.
func (r *Registry) List() []Descriptor {
	descriptors := make([]Descriptor, len(r.order))
	for i, name := range r.order {
		tool := r.byName[name]
		descriptors[i] = Descriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Schema.JSONSchema(),
		}
	}
	return descriptors
}

// Names returns the tool names in catalog order.
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}

// Get retrieves a tool definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &tool.Definition, true
}

// Call coerces the arguments, enforces authentication, and executes the
// tool. Every outcome is a standard response envelope; ok is false only
// when the tool does not exist.
func (r *Registry) Call(ctx context.Context, tc *Context, name string, args map[string]any) (resp *Response, ok bool) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, false
	}

	// Authentication short-circuits before coercion spends any effort.
	if tool.RequiresAuth && tc.Principal == nil {
		return FromError(domain.Unauthenticated("missing or invalid bearer token"), tc.CorrelationID), true
	}

	if args == nil {
		args = map[string]any{}
	}
	coerced, err := tool.Schema.Coerce(args)
	if err != nil {
		return FromError(err, tc.CorrelationID), true
	}

	return tool.Handler(ctx, tc, coerced), true
}
