package tools

// Catalog declares the full tool surface and returns it with the
// per-tool feature toggles applied. The result feeds NewRegistry.
func Catalog(disabled map[string]bool) []Tool {
	var catalog []Tool
	declare := func(def Definition, h Handler) {
		if disabled[def.Name] {
			return
		}
		catalog = append(catalog, Tool{Definition: def, Handler: h})
	}

	declare(Definition{
		Name:         "manage_project",
		Description:  "Create, inspect, maintain, and delete projects.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"create", "get", "list", "update", "delete", "project_health_check",
					"cleanup_obsolete", "validate_integrity", "rebalance_agents", "recompute_counters"}},
			"project_id":  {Type: FieldString, Description: "Project identifier (UUID)"},
			"name":        {Type: FieldString, Description: "Project name, unique per user"},
			"description": {Type: FieldString, Description: "Project description"},
		},
	}, handleManageProject)

	declare(Definition{
		Name:         "manage_git_branch",
		Description:  "Create, inspect, update, and delete git branches under a project.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"create", "get", "list", "update", "delete", "assign_agent",
					"unassign_agent", "list_agents", "recompute_counters"}},
			"project_id":    {Type: FieldString, Description: "Owning project identifier"},
			"git_branch_id": {Type: FieldString, Description: "Branch identifier"},
			"name":          {Type: FieldString, Description: "Branch name, unique per project"},
			"description":   {Type: FieldString, Description: "Branch description"},
			"agent_id":      {Type: FieldString, Description: "Agent identifier (@name or UUID)"},
		},
	}, handleManageBranch)

	declare(Definition{
		Name:         "manage_task",
		Description:  "Create, inspect, update, complete, and delete tasks; manage their dependencies and progress.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"create", "get", "list", "update", "complete", "delete",
					"add_dependency", "remove_dependency", "list_subtasks", "append_progress"}},
			"task_id":             {Type: FieldString, Description: "Task identifier"},
			"git_branch_id":       {Type: FieldString, Description: "Owning branch identifier"},
			"title":               {Type: FieldString, Description: "Task title"},
			"description":         {Type: FieldString, Description: "Task description"},
			"status":              {Type: FieldString, Description: "Task status"},
			"priority":            {Type: FieldString, Description: "Task priority"},
			"assignees":           {Type: FieldStringList, Description: "Assignee agent names; at least one at creation"},
			"labels":              {Type: FieldStringList, Description: "Free-form labels"},
			"estimated_effort":    {Type: FieldString, Description: "Estimated effort, free-form"},
			"due_date":            {Type: FieldString, Description: "Due date, RFC3339 or YYYY-MM-DD"},
			"dependencies":        {Type: FieldStringList, Description: "Task ids this task depends on; array or comma-joined string"},
			"dependency_id":       {Type: FieldString, Description: "Dependency task id for add/remove"},
			"progress_percentage": {Type: FieldInt, Description: "Progress within [0,100]"},
			"progress_notes":      {Type: FieldString, Description: "Progress note for append_progress"},
			"completion_summary":  {Type: FieldString, Description: "Summary recorded on completion"},
		},
	}, handleManageTask)

	declare(Definition{
		Name:         "manage_subtask",
		Description:  "Create, inspect, update, and delete subtasks of a task.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"create", "get", "list", "update", "complete", "delete"}},
			"subtask_id":          {Type: FieldString, Description: "Subtask identifier"},
			"task_id":             {Type: FieldString, Description: "Owning task identifier"},
			"title":               {Type: FieldString, Description: "Subtask title"},
			"description":         {Type: FieldString, Description: "Subtask description"},
			"status":              {Type: FieldString, Description: "Subtask status"},
			"priority":            {Type: FieldString, Description: "Subtask priority"},
			"assignees":           {Type: FieldStringList, Description: "Assignee agent names"},
			"progress_percentage": {Type: FieldInt, Description: "Progress within [0,100]"},
		},
	}, handleManageSubtask)

	declare(Definition{
		Name:         "manage_context",
		Description:  "Read and write the four-tier context hierarchy, resolve inherited context, and delegate knowledge upward.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"create", "get", "update", "delete", "resolve", "delegate"}},
			"level": {Type: FieldString, Required: true, Description: "Context tier",
				Enum: []string{"global", "project", "branch", "task"}},
			"context_id":        {Type: FieldString, Description: "Context identifier; \"global\" names the user singleton"},
			"data":              {Type: FieldObject, Description: "Context data to write, or delegation payload"},
			"include_inherited": {Type: FieldBool, Description: "Attach the resolved overlay on get"},
			"target_level": {Type: FieldString, Description: "Delegation target tier",
				Enum: []string{"global", "project", "branch"}},
		},
	}, handleManageContext)

	declare(Definition{
		Name:         "manage_dependency",
		Description:  "Maintain the task dependency graph; the cycle-free invariant is enforced.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"add_dependency", "remove_dependency", "get_dependencies",
					"clear_dependencies", "get_blocking_tasks"}},
			"task_id":       {Type: FieldString, Description: "Task identifier"},
			"dependency_id": {Type: FieldString, Description: "Dependency task identifier"},
		},
	}, handleManageDependency)

	declare(Definition{
		Name:         "manage_agent",
		Description:  "Register agents and manage branch assignments. Accepts @name or UUID identifiers.",
		RequiresAuth: true,
		Schema: Schema{
			"action": {Type: FieldString, Required: true, Description: "Operation to perform",
				Enum: []string{"register", "assign", "unassign", "list"}},
			"project_id":    {Type: FieldString, Description: "Project namespace for registration"},
			"git_branch_id": {Type: FieldString, Description: "Branch for assignment operations"},
			"agent_id":      {Type: FieldString, Description: "Agent identifier (@name or UUID)"},
			"name":          {Type: FieldString, Description: "Agent name for registration"},
			"description":   {Type: FieldString, Description: "Agent description"},
		},
	}, handleManageAgent)

	declare(Definition{
		Name:         "call_agent",
		Description:  "Return the canonical descriptor for a named agent.",
		RequiresAuth: true,
		Schema: Schema{
			"agent_name": {Type: FieldString, Required: true, Description: "Agent name, with or without @"},
		},
	}, handleCallAgent)

	declare(Definition{
		Name:        "health_check",
		Description: "Liveness probe; requires no authentication.",
		Schema:      Schema{},
	}, handleHealthCheck)

	declare(Definition{
		Name:        "get_server_capabilities",
		Description: "Report available tools, auth modes, and feature flags; requires no authentication.",
		Schema:      Schema{},
	}, handleCapabilities)

	return catalog
}
