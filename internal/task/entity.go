package task

import (
	"encoding/json"
	"slices"
	"time"
)

type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses is the workflow order. Board columns follow it exactly.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusReview, StatusDone}

func (s Status) Index() int {
	return slices.Index(Statuses, s)
}

func (s Status) Valid() bool {
	return s.Index() >= 0
}

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// Task is always written as a whole record; there is no partial update.
type Task struct {
	ID               string
	TaskID           string
	Title            string
	Description      string
	Status           Status
	Sprint           string
	AssignedAgentID  string
	Priority         int
	Tags             []string
	CommentsCount    int
	AttachmentsCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t Task) Key() string {
	return t.ID
}

// Touch returns t with UpdatedAt set to now.
func Touch(t Task, now time.Time) Task {
	t.UpdatedAt = now
	return t
}

// Clone copies t including its tags, so the copy can be modified freely.
func (t Task) Clone() Task {
	t.Tags = slices.Clone(t.Tags)
	return t
}

type taskJSON struct {
	ID               string   `json:"id"`
	TaskID           string   `json:"taskId"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Status           Status   `json:"status"`
	Sprint           string   `json:"sprint,omitempty"`
	AssignedAgentID  string   `json:"assignedAgentId,omitempty"`
	Priority         int      `json:"priority"`
	Tags             []string `json:"tags"`
	CommentsCount    int      `json:"commentsCount"`
	AttachmentsCount int      `json:"attachmentsCount"`
	CreatedAt        int64    `json:"createdAt"`
	UpdatedAt        int64    `json:"updatedAt"`
}

// MarshalJSON encodes timestamps as epoch milliseconds.
func (t Task) MarshalJSON() ([]byte, error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(taskJSON{
		ID:               t.ID,
		TaskID:           t.TaskID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           t.Status,
		Sprint:           t.Sprint,
		AssignedAgentID:  t.AssignedAgentID,
		Priority:         t.Priority,
		Tags:             tags,
		CommentsCount:    t.CommentsCount,
		AttachmentsCount: t.AttachmentsCount,
		CreatedAt:        t.CreatedAt.UnixMilli(),
		UpdatedAt:        t.UpdatedAt.UnixMilli(),
	})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var j taskJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*t = Task{
		ID:               j.ID,
		TaskID:           j.TaskID,
		Title:            j.Title,
		Description:      j.Description,
		Status:           j.Status,
		Sprint:           j.Sprint,
		AssignedAgentID:  j.AssignedAgentID,
		Priority:         j.Priority,
		Tags:             j.Tags,
		CommentsCount:    j.CommentsCount,
		AttachmentsCount: j.AttachmentsCount,
		CreatedAt:        time.UnixMilli(j.CreatedAt),
		UpdatedAt:        time.UnixMilli(j.UpdatedAt),
	}
	return nil
}
