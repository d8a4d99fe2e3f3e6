package board

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/cerr"
)

func TestColumns(t *testing.T) {
	require.Len(t, Columns, len(task.Statuses))
	for i, c := range Columns {
		assert.Equal(t, task.Statuses[i], c.Status)
	}
	assert.Equal(t, "TO DO", Columns[0].Title)
	assert.Equal(t, "IN REVIEW", Columns[2].Title)
}

func TestMove(t *testing.T) {
	tests := []struct {
		from   task.Status
		dir    Direction
		want   task.Status
		wantOK bool
	}{
		{task.StatusBacklog, Prev, task.StatusBacklog, false},
		{task.StatusDone, Next, task.StatusDone, false},
		{task.StatusInProgress, Next, task.StatusReview, true},
		{task.StatusInProgress, Prev, task.StatusBacklog, true},
		{task.StatusBacklog, Next, task.StatusInProgress, true},
		{task.StatusDone, Prev, task.StatusReview, true},
		{task.Status("bogus"), Next, task.Status("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.from, tt.dir), func(t *testing.T) {
			before := task.Task{ID: "1", Title: "x", Status: tt.from, Priority: 4, Tags: []string{"bug"}}
			got, ok := Move(before, tt.dir)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Status)

			// Nothing but the status changes.
			got.Status = before.Status
			assert.Equal(t, before, got)
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("NEXT")
	assert.True(t, ok)
	assert.Equal(t, Next, d)
	_, ok = ParseDirection("up")
	assert.False(t, ok)
}

func sprintTasks() []task.Task {
	return []task.Task{
		{ID: "1", Status: task.StatusBacklog, Sprint: "Sprint 12"},
		{ID: "2", Status: task.StatusDone},
		{ID: "3", Status: task.StatusReview, Sprint: "Sprint 13"},
		{ID: "4", Status: task.StatusBacklog, Sprint: "Sprint 12"},
		{ID: "5", Status: task.StatusInProgress},
	}
}

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestFilterBySprint(t *testing.T) {
	tasks := sprintTasks()

	assert.Equal(t, ids(tasks), ids(FilterBySprint(tasks, ParseSprintFilter("all"))))
	assert.Equal(t, ids(tasks), ids(FilterBySprint(tasks, ParseSprintFilter(""))))
	assert.Equal(t, []string{"2", "5"}, ids(FilterBySprint(tasks, ParseSprintFilter("none"))))
	assert.Equal(t, []string{"1", "4"}, ids(FilterBySprint(tasks, ParseSprintFilter("Sprint 12"))))
	assert.Empty(t, FilterBySprint(tasks, ParseSprintFilter("Sprint 99")))

	// "none" and every label together partition the collection.
	total := len(FilterBySprint(tasks, ParseSprintFilter(SprintNone)))
	for _, s := range SprintOptions(tasks) {
		total += len(FilterBySprint(tasks, ParseSprintFilter(s)))
	}
	assert.Equal(t, len(tasks), total)
}

func TestSprintOptions(t *testing.T) {
	tasks := sprintTasks()
	assert.Equal(t, []string{"Sprint 12", "Sprint 13"}, SprintOptions(tasks))
	assert.True(t, HasUnassignedSprint(tasks))
	assert.False(t, HasUnassignedSprint(tasks[:1]))
}

func TestNewTask(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	first, err := NewTask(Draft{Title: "Fix login bug", Priority: 4, Tags: "bug, urgent"}, nil, now, newID)
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", first.TaskID)
	assert.Equal(t, task.StatusBacklog, first.Status)
	assert.Equal(t, []string{"bug", "urgent"}, first.Tags)
	assert.Equal(t, 0, first.CommentsCount)
	assert.Equal(t, 0, first.AttachmentsCount)
	assert.Equal(t, 4, first.Priority)
	assert.Equal(t, now, first.CreatedAt)
	assert.Equal(t, now, first.UpdatedAt)
	assert.Empty(t, first.Sprint)

	second, err := NewTask(Draft{Title: "Add dark mode", Sprint: "  Sprint 12 "}, []task.Task{first}, now, newID)
	require.NoError(t, err)
	assert.Equal(t, "TASK-2", second.TaskID)
	assert.Equal(t, task.DefaultPriority, second.Priority)
	assert.Equal(t, "Sprint 12", second.Sprint)
	assert.Equal(t, []string{}, second.Tags)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNewTask_TitleRequired(t *testing.T) {
	called := false
	_, err := NewTask(Draft{Title: "   "}, nil, time.Now(), func() string {
		called = true
		return "x"
	})
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Equal(t, []string{"title.required"}, cerr.Violations(err))
	assert.False(t, called)
}

func TestNewTask_PriorityRange(t *testing.T) {
	newID := func() string { return "x" }
	for _, p := range []int{-2, 6, 9} {
		_, err := NewTask(Draft{Title: "x", Priority: p}, nil, time.Now(), newID)
		assert.ErrorIs(t, err, ErrPriorityRange, "priority %d", p)
		assert.Equal(t, []string{"priority.range"}, cerr.Violations(err))
	}
	for _, p := range []int{1, 5} {
		tk, err := NewTask(Draft{Title: "x", Priority: p}, nil, time.Now(), newID)
		require.NoError(t, err)
		assert.Equal(t, p, tk.Priority)
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, ParseTags(" a, ,b c,,d ,"))
	assert.Equal(t, []string{}, ParseTags(""))
}

func TestAssignAndResolve(t *testing.T) {
	agents := []agent.Agent{{ID: "a1", Name: "Jane Doe"}}
	tk := Assign(task.Task{ID: "1"}, "a1")
	require.NotNil(t, ResolveAssignee(tk, agents))
	assert.Equal(t, "Jane Doe", ResolveAssignee(tk, agents).Name)

	assert.Nil(t, ResolveAssignee(Assign(tk, ""), agents))
	assert.Nil(t, ResolveAssignee(Assign(tk, "deleted"), agents), "dangling reference reads as unassigned")
}

func TestClearAssignments(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", AssignedAgentID: "a1"},
		{ID: "2", AssignedAgentID: "a2"},
		{ID: "3", AssignedAgentID: "a1"},
	}
	cleared := ClearAssignments(tasks, "a1")
	assert.Equal(t, []string{"1", "3"}, ids(cleared))
	for _, c := range cleared {
		assert.Empty(t, c.AssignedAgentID)
	}
	assert.Equal(t, "a1", tasks[0].AssignedAgentID, "input untouched")
}

func TestBuild(t *testing.T) {
	agents := []agent.Agent{{ID: "a1", Name: "Jane Doe"}}
	tasks := sprintTasks()
	tasks[0].AssignedAgentID = "a1"
	tasks[0].Priority = 5

	v := Build(tasks, agents, ParseSprintFilter("Sprint 12"))
	assert.Equal(t, 5, v.Total)
	assert.Equal(t, 2, v.Visible)
	require.Len(t, v.Columns, 4)
	assert.Equal(t, 2, v.Columns[0].Count())
	assert.Equal(t, "Jane Doe", v.Columns[0].Cards[0].Assignee.Name)
	assert.Equal(t, task.PriorityHigh, v.Columns[0].Cards[0].Level)
	assert.False(t, v.Columns[0].Cards[0].CanPrev)
	assert.True(t, v.Columns[0].Cards[0].CanNext)
	assert.Equal(t, "No items in done", v.Columns[3].Hint)

	empty := Build(nil, nil, AllSprints)
	assert.Equal(t, "No tasks yet", empty.Columns[0].Hint)
	assert.Empty(t, empty.Columns[1].Hint)

	filteredOut := Build(tasks, agents, ParseSprintFilter("Sprint 99"))
	assert.Equal(t, "No tasks in this sprint", filteredOut.Columns[0].Hint)
}
