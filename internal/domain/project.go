package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project is the top-level aggregate. Names are unique per user.
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate enforces project creation invariants.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Validationf("project name must not be empty")
	}
	return nil
}

// Branch is a logical workstream under a project. Names are unique per
// project. task_count and completed_task_count are authoritative
// denormalizations maintained by the counter projector.
type Branch struct {
	ID                 uuid.UUID `json:"id"`
	ProjectID          uuid.UUID `json:"project_id"`
	UserID             string    `json:"-"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	TaskCount          int       `json:"task_count"`
	CompletedTaskCount int       `json:"completed_task_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate enforces branch creation invariants.
func (b *Branch) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return Validationf("branch name must not be empty")
	}
	if b.ProjectID == uuid.Nil {
		return MissingField("project_id")
	}
	return nil
}

// Agent is a registered worker identity that can be assigned to branches.
type Agent struct {
	ID           uuid.UUID      `json:"id"`
	UserID       string         `json:"-"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AgentAssignment ties an agent to a branch.
type AgentAssignment struct {
	BranchID  uuid.UUID `json:"branch_id"`
	AgentID   uuid.UUID `json:"agent_id"`
	UserID    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
