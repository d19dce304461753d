package tools

import (
	"context"
)

var projectActions = []string{"create", "get", "list", "update", "delete", "project_health_check",
	"cleanup_obsolete", "validate_integrity", "rebalance_agents", "recompute_counters"}

func handleManageProject(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.ProjectFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	switch action {
	case "create":
		name, err := reqString(args, "name")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		description, _ := getString(args, "description")
		p, err := f.Create(ctx, name, description)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("project created", map[string]any{"project": p})

	case "get":
		id, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		p, err := f.Get(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("project retrieved", map[string]any{"project": p})

	case "list":
		projects, err := f.List(ctx)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("projects listed", map[string]any{"projects": projects, "count": len(projects)})

	case "update":
		id, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		p, err := f.Update(ctx, id, optStringPtr(args, "name"), optStringPtr(args, "description"))
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("project updated", map[string]any{"project": p})

	case "delete":
		id, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Delete(ctx, id); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("project deleted", map[string]any{"project_id": id})

	case "project_health_check":
		id, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		report, err := f.HealthCheck(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if !report.Healthy {
			return Warning("project has health issues", map[string]any{"report": report},
				map[string]any{"issues": report.Issues})
		}
		return OK("project healthy", map[string]any{"report": report})

	case "validate_integrity":
		id, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		report, err := f.ValidateIntegrity(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if !report.Valid {
			return Warning("integrity issues found", map[string]any{"report": report},
				map[string]any{"issues": report.Issues})
		}
		return OK("integrity verified", map[string]any{"report": report})

	case "cleanup_obsolete":
		removed, err := f.CleanupObsolete(ctx)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("obsolete records removed", map[string]any{"removed": removed})

	case "rebalance_agents":
		id, err := reqUUID(args, "project_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		result, err := f.RebalanceAgents(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("agents rebalanced", map[string]any{"result": result})

	case "recompute_counters":
		report, err := f.RecomputeCounters(ctx)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if len(report.Repaired) > 0 {
			return Warning("counter drift repaired", map[string]any{"report": report},
				map[string]any{"repaired_branches": len(report.Repaired)})
		}
		return OK("counters verified", map[string]any{"report": report})

	default:
		return actionError("manage_project", action, projectActions)
	}
}
