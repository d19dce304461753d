package tools

import (
	"context"
)

var dependencyActions = []string{"add_dependency", "remove_dependency", "get_dependencies",
	"clear_dependencies", "get_blocking_tasks"}

func handleManageDependency(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.DependencyFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	taskID, err := reqUUID(args, "task_id")
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	switch action {
	case "add_dependency":
		depID, err := reqUUID(args, "dependency_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Add(ctx, taskID, depID); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("dependency added", map[string]any{"task_id": taskID, "depends_on": depID})

	case "remove_dependency":
		depID, err := reqUUID(args, "dependency_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Remove(ctx, taskID, depID); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("dependency removed", map[string]any{"task_id": taskID, "depends_on": depID})

	case "get_dependencies":
		info, err := f.Get(ctx, taskID)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("dependencies retrieved", map[string]any{"dependencies": info})

	case "clear_dependencies":
		if err := f.Clear(ctx, taskID); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("dependencies cleared", map[string]any{"task_id": taskID})

	case "get_blocking_tasks":
		blocking, err := f.Blocking(ctx, taskID)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("blocking tasks retrieved", map[string]any{
			"task_id":        taskID,
			"blocking_tasks": blocking,
			"count":          len(blocking),
		})

	default:
		return actionError("manage_dependency", action, dependencyActions)
	}
}
