package task

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tasksWithIDs(ids ...string) []Task {
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = Task{ID: id, TaskID: id}
	}
	return tasks
}

func TestNextDisplayID(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  string
	}{
		{name: "empty collection", tasks: nil, want: "TASK-1"},
		{name: "sequential", tasks: tasksWithIDs("TASK-1", "TASK-2"), want: "TASK-3"},
		{name: "gap is not refilled", tasks: tasksWithIDs("TASK-1", "TASK-3"), want: "TASK-4"},
		{name: "unordered input", tasks: tasksWithIDs("TASK-7", "TASK-2"), want: "TASK-8"},
		{name: "malformed suffix ignored", tasks: tasksWithIDs("TASK-abc", "TASK-2"), want: "TASK-3"},
		{name: "missing display id ignored", tasks: tasksWithIDs("", "TASK-1"), want: "TASK-2"},
		{name: "only malformed", tasks: tasksWithIDs("TASK-", "task-9", "TASK-9x", "XTASK-4"), want: "TASK-1"},
		{name: "overflowing suffix ignored", tasks: tasksWithIDs("TASK-99999999999999999999999", "TASK-5"), want: "TASK-6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDisplayID(tt.tasks))
		})
	}
}

func TestNextDisplayID_Monotonic(t *testing.T) {
	var tasks []Task
	prev := 0
	for i := range 20 {
		id := NextDisplayID(tasks)
		tasks = append(tasks, Task{TaskID: id})
		if i%3 == 0 && len(tasks) > 1 {
			// deleting an older task never lowers the next suffix
			tasks = tasks[1:]
		}
		var n int
		_, err := fmt.Sscanf(id, "TASK-%d", &n)
		assert.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}
