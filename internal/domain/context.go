package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextLevel names one tier of the four-tier context hierarchy.
type ContextLevel string

const (
	LevelGlobal  ContextLevel = "global"
	LevelProject ContextLevel = "project"
	LevelBranch  ContextLevel = "branch"
	LevelTask    ContextLevel = "task"
)

// ContextLevels lists tiers top-down, global first.
var ContextLevels = []ContextLevel{LevelGlobal, LevelProject, LevelBranch, LevelTask}

// ParseContextLevel validates a level string.
func ParseContextLevel(s string) (ContextLevel, error) {
	l := ContextLevel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ContextLevels {
		if l == known {
			return l, nil
		}
	}
	return "", Validationf("invalid context level %q", s).
		WithDetail("accepted", []string{"global", "project", "branch", "task"})
}

// Depth returns the tier's distance from global (global=0 .. task=3).
func (l ContextLevel) Depth() int {
	switch l {
	case LevelGlobal:
		return 0
	case LevelProject:
		return 1
	case LevelBranch:
		return 2
	default:
		return 3
	}
}

// Parent returns the tier above, or ok=false at global.
func (l ContextLevel) Parent() (ContextLevel, bool) {
	switch l {
	case LevelTask:
		return LevelBranch, true
	case LevelBranch:
		return LevelProject, true
	case LevelProject:
		return LevelGlobal, true
	default:
		return "", false
	}
}

// ContextRow is one stored context record. The id equals the owning entity
// id for project/branch/task tiers and GlobalSingleton for the global tier.
type ContextRow struct {
	Level     ContextLevel   `json:"level"`
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"-"`
	ParentID  *uuid.UUID     `json:"parent_id,omitempty"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ResolvedContext is the effective context after fold-merging the ancestor
// chain, with per-top-level-key provenance.
type ResolvedContext struct {
	Level      ContextLevel            `json:"level"`
	ID         uuid.UUID               `json:"id"`
	Data       map[string]any          `json:"data"`
	Provenance map[string]ContextLevel `json:"provenance"`
}

// Delegation promotes knowledge from a lower tier to a higher one; it is
// applied asynchronously by the context service's per-user worker.
type Delegation struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"-"`
	SourceLevel ContextLevel   `json:"source_level"`
	SourceID    uuid.UUID      `json:"source_id"`
	TargetLevel ContextLevel   `json:"target_level"`
	Payload     map[string]any `json:"payload"`
	Status      string         `json:"status"` // pending | processed | failed
	Attempts    int            `json:"attempts"`
	LastError   string         `json:"last_error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

const (
	DelegationPending   = "pending"
	DelegationProcessed = "processed"
	DelegationFailed    = "failed"
)

// Validate checks that the delegation promotes upward.
func (d *Delegation) Validate() error {
	if len(d.Payload) == 0 {
		return MissingField("payload")
	}
	if d.TargetLevel.Depth() >= d.SourceLevel.Depth() {
		return Validationf("delegation target %s is not above source %s", d.TargetLevel, d.SourceLevel)
	}
	return nil
}
