// Package agentboardv1 declares the agentboard.v1 RPC messages. Messages are
// plain structs carried as JSON.
package agentboardv1

import (
	"time"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/task"
)

type ListTasksRequest struct {
	// Sprint is "all", "none" or a sprint label. Empty means all.
	Sprint string `json:"sprint,omitempty"`
}

type ListTasksResponse struct {
	Tasks []task.Task `json:"tasks"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Sprint      string   `json:"sprint,omitempty"`
}

type CreateTaskResponse struct {
	Task task.Task `json:"task"`
}

type MoveTaskRequest struct {
	ID string `json:"id"`
	// Direction is "next" or "prev".
	Direction string `json:"direction"`
}

type MoveTaskResponse struct {
	Task task.Task `json:"task"`
	// Moved is false when the task was already in the first or last column.
	Moved bool `json:"moved"`
}

type AssignTaskRequest struct {
	ID string `json:"id"`
	// AgentID clears the assignment when empty.
	AgentID string `json:"agentId,omitempty"`
}

type AssignTaskResponse struct {
	Task task.Task `json:"task"`
}

type UpdateTaskRequest struct {
	Task task.Task `json:"task"`
}

type UpdateTaskResponse struct {
	Task task.Task `json:"task"`
}

type DeleteTaskRequest struct {
	ID string `json:"id"`
}

type DeleteTaskResponse struct{}

type ListAgentsRequest struct{}

type ListAgentsResponse struct {
	Agents []agent.Agent `json:"agents"`
}

type CreateAgentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	AvatarColor string `json:"avatarColor,omitempty"`
}

type CreateAgentResponse struct {
	Agent agent.Agent `json:"agent"`
}

type UpdateAgentRequest struct {
	Agent agent.Agent `json:"agent"`
}

type UpdateAgentResponse struct {
	Agent agent.Agent `json:"agent"`
}

type DeleteAgentRequest struct {
	ID string `json:"id"`
}

type DeleteAgentResponse struct{}

type GetBoardRequest struct {
	Sprint string `json:"sprint,omitempty"`
}

type BoardColumn struct {
	Status task.Status `json:"status"`
	Title  string      `json:"title"`
	Tasks  []task.Task `json:"tasks"`
}

type GetBoardResponse struct {
	Columns             []BoardColumn `json:"columns"`
	Agents              []agent.Agent `json:"agents"`
	SprintOptions       []string      `json:"sprintOptions"`
	HasUnassignedSprint bool          `json:"hasUnassignedSprint"`
	// Loaded is false while either collection is still being fetched.
	Loaded bool `json:"loaded"`
}

type WatchBoardRequest struct{}

type BoardEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ResourceID string    `json:"resourceId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
