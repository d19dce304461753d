package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/service"
)

var errMissingProgress = domain.MissingField("progress_percentage")

var taskActions = []string{"create", "get", "list", "update", "complete", "delete",
	"add_dependency", "remove_dependency", "list_subtasks", "append_progress"}

func handleManageTask(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.TaskFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	switch action {
	case "create":
		branchID, err := reqUUID(args, "git_branch_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		title, err := reqString(args, "title")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		assignees, _ := getStringList(args, "assignees")
		labels, _ := getStringList(args, "labels")
		depStrings, _ := getStringList(args, "dependencies")
		deps, err := uuidList(depStrings, "dependencies")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		dueDate, err := optDueDate(args, "due_date")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		description, _ := getString(args, "description")
		priority, _ := getString(args, "priority")
		effort, _ := getString(args, "estimated_effort")

		t, err := f.Create(ctx, service.CreateTaskInput{
			BranchID:        branchID,
			Title:           title,
			Description:     description,
			Priority:        priority,
			Assignees:       assignees,
			Labels:          labels,
			EstimatedEffort: effort,
			DueDate:         dueDate,
			Dependencies:    deps,
		})
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("task created", map[string]any{"task": t})

	case "get":
		id, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		t, err := f.Get(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("task retrieved", map[string]any{"task": t})

	case "list":
		var branchID *uuid.UUID
		if _, ok := getString(args, "git_branch_id"); ok {
			id, err := reqUUID(args, "git_branch_id")
			if err != nil {
				return FromError(err, tc.CorrelationID)
			}
			branchID = &id
		}
		tasks, err := f.List(ctx, branchID)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("tasks listed", map[string]any{"tasks": tasks, "count": len(tasks)})

	case "update":
		id, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		dueDate, err := optDueDate(args, "due_date")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		in := service.UpdateTaskInput{
			Title:           optStringPtr(args, "title"),
			Description:     optStringPtr(args, "description"),
			Status:          optStringPtr(args, "status"),
			Priority:        optStringPtr(args, "priority"),
			EstimatedEffort: optStringPtr(args, "estimated_effort"),
			DueDate:         dueDate,
			Progress:        optIntPtr(args, "progress_percentage"),
		}
		if assignees, ok := getStringList(args, "assignees"); ok {
			in.Assignees = assignees
		}
		if labels, ok := getStringList(args, "labels"); ok {
			in.Labels = labels
		}
		t, err := f.Update(ctx, id, in)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("task updated", map[string]any{"task": t})

	case "complete":
		id, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		summary, _ := getString(args, "completion_summary")
		result, err := f.Complete(ctx, id, summary)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if len(result.OpenSubtasks) > 0 {
			titles := make([]string, len(result.OpenSubtasks))
			for i, st := range result.OpenSubtasks {
				titles[i] = st.Title
			}
			return Warning(
				fmt.Sprintf("task completed with %d open subtasks", len(result.OpenSubtasks)),
				map[string]any{"task": result.Task},
				map[string]any{"open_subtasks": titles})
		}
		return OK("task completed", map[string]any{"task": result.Task})

	case "delete":
		id, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Delete(ctx, id); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("task deleted", map[string]any{"task_id": id})

	case "add_dependency":
		taskID, depID, resp := dependencyPair(tc, args)
		if resp != nil {
			return resp
		}
		if err := f.AddDependency(ctx, taskID, depID); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("dependency added", map[string]any{"task_id": taskID, "depends_on": depID})

	case "remove_dependency":
		taskID, depID, resp := dependencyPair(tc, args)
		if resp != nil {
			return resp
		}
		if err := f.RemoveDependency(ctx, taskID, depID); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("dependency removed", map[string]any{"task_id": taskID, "depends_on": depID})

	case "list_subtasks":
		id, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		subtasks, err := f.ListSubtasks(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtasks listed", map[string]any{"subtasks": subtasks, "count": len(subtasks)})

	case "append_progress":
		id, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		note, err := reqString(args, "progress_notes")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		percentage, ok := getInt(args, "progress_percentage")
		if !ok {
			return FromError(errMissingProgress, tc.CorrelationID)
		}
		t, err := f.AppendProgress(ctx, id, note, percentage)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("progress recorded", map[string]any{"task": t})

	default:
		return actionError("manage_task", action, taskActions)
	}
}

func dependencyPair(tc *Context, args map[string]any) (taskID, depID uuid.UUID, resp *Response) {
	taskID, err := reqUUID(args, "task_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, FromError(err, tc.CorrelationID)
	}
	depID, err = reqUUID(args, "dependency_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, FromError(err, tc.CorrelationID)
	}
	return taskID, depID, nil
}
