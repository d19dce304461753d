package tools

import (
	"context"
	"time"
)

var agentActions = []string{"register", "assign", "unassign", "list"}

func handleManageAgent(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.AgentFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	switch action {
	case "register":
		projectID, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		name, err := reqString(args, "name")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		description, _ := getString(args, "description")
		agent, err := f.Register(ctx, projectID, name, description)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agent registered", map[string]any{"agent": agent})

	case "assign":
		branchID, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		identifier, err := reqString(args, "agent_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		agent, err := f.Assign(ctx, branchID, identifier)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agent assigned", map[string]any{"agent": agent, "git_branch_id": branchID})

	case "unassign":
		branchID, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		identifier, err := reqString(args, "agent_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Unassign(ctx, branchID, identifier); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agent unassigned", map[string]any{"git_branch_id": branchID})

	case "list":
		branchID, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		agents, err := f.ListByBranch(ctx, branchID)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agents listed", map[string]any{"agents": agents, "count": len(agents)})

	default:
		return actionError("manage_agent", action, agentActions)
	}
}

func handleCallAgent(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.AgentFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}
	name, err := reqString(args, "agent_name")
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}
	agent, err := f.Call(ctx, name)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}
	return OK("agent descriptor retrieved", map[string]any{"agent": agent})
}

func handleHealthCheck(_ context.Context, _ *Context, _ map[string]any) *Response {
	return OK("server healthy", map[string]any{
		"status": "healthy",
		"uptime_checked_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCapabilities reports the dispatcher's tool surface; the names are
// handed in through the tool context so the report always matches what
// the server actually built.
func handleCapabilities(_ context.Context, tc *Context, _ map[string]any) *Response {
	authModes := []string{"platform_oidc", "api_token"}
	return OK("server capabilities", map[string]any{
		"tools":      tc.ToolNames,
		"auth_modes": authModes,
		"features": map[string]any{
			"context_inheritance": true,
			"dependency_tracking": true,
			"delegation_queue":    true,
			"counter_projection":  true,
			"event_stream":        true,
		},
	})
}
