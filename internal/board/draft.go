package board

import (
	"strings"
	"time"

	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/cerr"
)

// Draft validation errors reject a draft before anything is persisted.
var (
	ErrTitleRequired = cerr.NewValidationError("title.required", "title is required")
	ErrPriorityRange = cerr.NewValidationError("priority.range", "priority must be between 1 and 5")
)

// Draft is the task creation form as submitted.
type Draft struct {
	Title       string
	Description string
	Priority    int
	// Tags is the raw comma separated input.
	Tags   string
	Sprint string
}

// ParseTags splits comma separated input, trimming entries and dropping
// empty ones. Order is kept.
func ParseTags(s string) []string {
	tags := []string{}
	for tag := range strings.SplitSeq(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NewTask builds the record for a new backlog task. existing is the current
// collection, used to allocate the display id. A zero priority takes the
// default; any other value outside 1..5 is rejected.
func NewTask(d Draft, existing []task.Task, now time.Time, newID func() string) (task.Task, error) {
	if strings.TrimSpace(d.Title) == "" {
		return task.Task{}, ErrTitleRequired
	}
	priority := task.PriorityOrDefault(d.Priority)
	if !task.ValidPriority(priority) {
		return task.Task{}, ErrPriorityRange
	}
	return task.Task{
		ID:          newID(),
		TaskID:      task.NextDisplayID(existing),
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Status:      task.StatusBacklog,
		Sprint:      NormalizeSprint(d.Sprint),
		Priority:    priority,
		Tags:        ParseTags(d.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
