package board

import (
	"strings"

	"github.com/kazz187/agentboard/internal/task"
)

const (
	SprintAll  = "all"
	SprintNone = "none"
)

// SprintFilter selects tasks by sprint: every task, tasks without a sprint,
// or tasks with one exact label.
type SprintFilter struct {
	value string
}

var AllSprints = SprintFilter{value: SprintAll}

// ParseSprintFilter maps "" and "all" to AllSprints.
func ParseSprintFilter(s string) SprintFilter {
	if s == "" {
		return AllSprints
	}
	return SprintFilter{value: s}
}

func (f SprintFilter) String() string {
	if f.value == "" {
		return SprintAll
	}
	return f.value
}

func (f SprintFilter) Match(t task.Task) bool {
	switch f.String() {
	case SprintAll:
		return true
	case SprintNone:
		return t.Sprint == ""
	default:
		return t.Sprint == f.value
	}
}

func FilterBySprint(tasks []task.Task, f SprintFilter) []task.Task {
	filtered := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// SprintOptions lists the distinct sprint labels in first-seen order.
func SprintOptions(tasks []task.Task) []string {
	seen := make(map[string]struct{})
	var opts []string
	for _, t := range tasks {
		if t.Sprint == "" {
			continue
		}
		if _, ok := seen[t.Sprint]; ok {
			continue
		}
		seen[t.Sprint] = struct{}{}
		opts = append(opts, t.Sprint)
	}
	return opts
}

func HasUnassignedSprint(tasks []task.Task) bool {
	for _, t := range tasks {
		if t.Sprint == "" {
			return true
		}
	}
	return false
}

// NormalizeSprint trims the label; whitespace alone means no sprint.
func NormalizeSprint(s string) string {
	return strings.TrimSpace(s)
}
