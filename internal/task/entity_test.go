package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOrder(t *testing.T) {
	assert.Equal(t, []Status{"backlog", "in-progress", "review", "done"}, Statuses)
	assert.Equal(t, 2, StatusReview.Index())
	assert.False(t, Status("blocked").Valid())
}

func TestTaskJSON_MillisecondTimestamps(t *testing.T) {
	created := time.UnixMilli(1700000000123)
	data, err := json.Marshal(Task{ID: "01", TaskID: "TASK-1", Title: "x", Status: StatusBacklog, CreatedAt: created, UpdatedAt: created})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.InDelta(t, 1700000000123, raw["createdAt"], 0)
	assert.Equal(t, []any{}, raw["tags"])
	assert.NotContains(t, raw, "sprint")

	var back Task
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.CreatedAt.Equal(created))
}

func TestPriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, LevelOf(5))
	assert.Equal(t, PriorityHigh, LevelOf(4))
	assert.Equal(t, PriorityMedium, LevelOf(3))
	assert.Equal(t, PriorityLow, LevelOf(2))
	assert.Equal(t, PriorityLow, LevelOf(1))

	assert.Equal(t, 3, PriorityOrDefault(0))
	assert.Equal(t, 5, PriorityOrDefault(5))
	assert.Equal(t, 9, PriorityOrDefault(9))
	assert.True(t, ValidPriority(1))
	assert.True(t, ValidPriority(5))
	assert.False(t, ValidPriority(0))
	assert.False(t, ValidPriority(6))
	assert.False(t, ValidPriority(-2))

	assert.Equal(t, "tag-red", TagClass("bug"))
	assert.Equal(t, "tag-blue", TagClass("Frontend"))
	assert.Equal(t, "tag-gray", TagClass("docs"))
}
