// Package board projects a task collection onto the four workflow columns.
package board

import (
	"strings"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/task"
)

type Column struct {
	Status task.Status
	Title  string
}

// Columns is the board layout, one column per status in workflow order.
var Columns = []Column{
	{Status: task.StatusBacklog, Title: "TO DO"},
	{Status: task.StatusInProgress, Title: "IN PROGRESS"},
	{Status: task.StatusReview, Title: "IN REVIEW"},
	{Status: task.StatusDone, Title: "DONE"},
}

type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(s)); d {
	case Next, Prev:
		return d, true
	}
	return "", false
}

// Move shifts t one column in dir. Moving past either end reports false and
// leaves t as it was. Only Status changes.
func Move(t task.Task, dir Direction) (task.Task, bool) {
	i := t.Status.Index()
	if i < 0 {
		return t, false
	}
	switch dir {
	case Next:
		i++
	case Prev:
		i--
	default:
		return t, false
	}
	if i < 0 || i >= len(task.Statuses) {
		return t, false
	}
	t.Status = task.Statuses[i]
	return t, true
}

// Assign sets or, with an empty agentID, clears the assignee.
func Assign(t task.Task, agentID string) task.Task {
	t.AssignedAgentID = strings.TrimSpace(agentID)
	return t
}

// ResolveAssignee finds the assigned agent. A dangling reference resolves to
// nil, the same as no assignment.
func ResolveAssignee(t task.Task, agents []agent.Agent) *agent.Agent {
	if t.AssignedAgentID == "" {
		return nil
	}
	for i := range agents {
		if agents[i].ID == t.AssignedAgentID {
			return &agents[i]
		}
	}
	return nil
}

// ClearAssignments returns the tasks assigned to agentID with the
// assignment removed.
func ClearAssignments(tasks []task.Task, agentID string) []task.Task {
	var cleared []task.Task
	for _, t := range tasks {
		if t.AssignedAgentID == agentID {
			cleared = append(cleared, Assign(t, ""))
		}
	}
	return cleared
}
