package tools

import (
	"context"

	"github.com/agenthub/agenthub-api/internal/service"
)

var subtaskActions = []string{"create", "get", "list", "update", "complete", "delete"}

func handleManageSubtask(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.SubtaskFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	switch action {
	case "create":
		taskID, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		title, err := reqString(args, "title")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		description, _ := getString(args, "description")
		priority, _ := getString(args, "priority")
		assignees, _ := getStringList(args, "assignees")

		st, err := f.Create(ctx, service.CreateSubtaskInput{
			TaskID:      taskID,
			Title:       title,
			Description: description,
			Priority:    priority,
			Assignees:   assignees,
		})
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtask created", map[string]any{"subtask": st})

	case "get":
		id, err := reqUUID(args, "subtask_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		st, err := f.Get(ctx, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtask retrieved", map[string]any{"subtask": st})

	case "list":
		taskID, err := reqUUID(args, "task_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		subtasks, err := f.List(ctx, taskID)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtasks listed", map[string]any{"subtasks": subtasks, "count": len(subtasks)})

	case "update":
		id, err := reqUUID(args, "subtask_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		in := service.UpdateSubtaskInput{
			Title:       optStringPtr(args, "title"),
			Description: optStringPtr(args, "description"),
			Status:      optStringPtr(args, "status"),
			Priority:    optStringPtr(args, "priority"),
			Progress:    optIntPtr(args, "progress_percentage"),
		}
		if assignees, ok := getStringList(args, "assignees"); ok {
			in.Assignees = assignees
		}
		st, err := f.Update(ctx, id, in)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtask updated", map[string]any{"subtask": st})

	case "complete":
		id, err := reqUUID(args, "subtask_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		done := "done"
		st, err := f.Update(ctx, id, service.UpdateSubtaskInput{Status: &done})
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtask completed", map[string]any{"subtask": st})

	case "delete":
		id, err := reqUUID(args, "subtask_id")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if err := f.Delete(ctx, id); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("subtask deleted", map[string]any{"subtask_id": id})

	default:
		return actionError("manage_subtask", action, subtaskActions)
	}
}
