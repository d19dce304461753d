package tools

import (
	"context"
)

var branchActions = []string{"create", "get", "list", "update", "delete", "assign_agent",
	"unassign_agent", "list_agents", "recompute_counters"}

func handleManageBranch(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.BranchFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	switch action {
	case "create":
		projectID, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		name, err := reqString(args, "name")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		description, _ := getString(args, "description")
		b, err := f.Create(ctx, projectID, name, description)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("branch created", map[string]any{"branch": b})

	case "get":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		b, err := f.Get(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("branch retrieved", map[string]any{"branch": b})

	case "list":
		projectID, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		branches, err := f.List(ctx, projectID)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("branches listed", map[string]any{"branches": branches, "count": len(branches)})

	case "update":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		b, err := f.Update(ctx, id, optStringPtr(args, "name"), optStringPtr(args, "description"))
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("branch updated", map[string]any{"branch": b})

	case "delete":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Delete(ctx, id); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("branch deleted", map[string]any{"git_branch_id": id})

	case "assign_agent":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		identifier, err := reqString(args, "agent_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		agent, err := f.AssignAgent(ctx, id, identifier)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agent assigned", map[string]any{"agent": agent, "git_branch_id": id})

	case "unassign_agent":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		identifier, err := reqString(args, "agent_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.UnassignAgent(ctx, id, identifier); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agent unassigned", map[string]any{"git_branch_id": id})

	case "list_agents":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		agents, err := f.ListAgents(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agents listed", map[string]any{"agents": agents, "count": len(agents)})

	case "recompute_counters":
		id, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		b, err := f.Recompute(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("branch counters recomputed", map[string]any{"branch": b})

	default:
		return actionError("manage_git_branch", action, branchActions)
	}
}
