package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/service"
)

var contextActions = []string{"create", "get", "update", "delete", "resolve", "delegate"}

// contextTarget normalizes the (level, context_id) pair. The global tier
// accepts "global", the singleton UUID, or an absent id.
func contextTarget(args map[string]any) (domain.ContextLevel, uuid.UUID, error) {
	levelStr, err := reqString(args, "level")
	if err != nil {
		return "", uuid.Nil, err
	}
	level, err := domain.ParseContextLevel(levelStr)
	if err != nil {
		return "", uuid.Nil, err
	}

	raw, _ := getString(args, "context_id")
	if raw == "" && level != domain.LevelGlobal {
		return "", uuid.Nil, domain.MissingField("context_id")
	}
	id, err := service.NormalizeContextID(level, raw)
	if err != nil {
		return "", uuid.Nil, domain.InvalidFormat("context_id", raw)
	}
	return level, id, nil
}

func handleManageContext(ctx context.Context, tc *Context, args map[string]any) *Response {
	f, err := tc.Facades.ContextFacade(tc.Principal.UserID)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}

	action, _ := getString(args, "action")
	level, id, err := contextTarget(args)
	if err != nil {
		return FromError(err, tc.CorrelationID)
	}
	data, _ := getObject(args, "data")

	switch action {
	case "create":
		row, err := f.Create(ctx, level, id, data)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("context created", map[string]any{"context": row})

	case "get":
		row, resolved, err := f.Get(ctx, level, id, getBool(args, "include_inherited"))
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		payload := map[string]any{"context": row}
		if resolved != nil {
			payload["resolved"] = resolved
		}
		return OK("context retrieved", payload)

	case "update":
		row, err := f.Update(ctx, level, id, data)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("context updated", map[string]any{"context": row})

	case "delete":
		if err := f.Delete(ctx, level, id); err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("context deleted", map[string]any{"level": level, "context_id": id})

	case "resolve":
		resolved, err := f.Resolve(ctx, level, id)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("context resolved", map[string]any{
			"resolved_context": resolved.Data,
			"_inheritance": map[string]any{
				"level":      resolved.Level,
				"context_id": resolved.ID,
				"provenance": resolved.Provenance,
			},
		})

	case "delegate":
		targetStr, err := reqString(args, "target_level")
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		target, err := domain.ParseContextLevel(targetStr)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		if len(data) == 0 {
			return FromError(domain.MissingField("data"), tc.CorrelationID)
		}
		d, err := f.Delegate(ctx, level, id, target, data)
		if err != nil {
			return FromError(err, tc.CorrelationID)
		}
		return OK("delegation queued", map[string]any{"delegation": d})

	default:
		return actionError("manage_context", action, contextActions)
	}
}
