package board

import (
	"strings"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/task"
)

type Card struct {
	Task     task.Task
	Assignee *agent.Agent
	Level    task.PriorityLevel
	CanPrev  bool
	CanNext  bool
}

type ColumnView struct {
	Column
	Cards []Card
	// Hint is the empty-state text shown in place of cards, if any.
	Hint string
}

func (c ColumnView) Count() int {
	return len(c.Cards)
}

// View is everything needed to render one board.
type View struct {
	Columns             []ColumnView
	Filter              SprintFilter
	SprintOptions       []string
	HasUnassignedSprint bool
	Agents              []agent.Agent
	Total               int
	Visible             int
}

// Group buckets the tasks matching f by status, keeping their order.
func Group(tasks []task.Task, f SprintFilter) []ColumnView {
	views := make([]ColumnView, len(Columns))
	for i, col := range Columns {
		views[i] = ColumnView{Column: col, Cards: []Card{}}
	}
	for _, t := range FilterBySprint(tasks, f) {
		i := t.Status.Index()
		if i < 0 {
			continue
		}
		views[i].Cards = append(views[i].Cards, Card{
			Task:    t,
			Level:   task.LevelOf(t.Priority),
			CanPrev: i > 0,
			CanNext: i < len(Columns)-1,
		})
	}
	return views
}

func Build(tasks []task.Task, agents []agent.Agent, f SprintFilter) View {
	cols := Group(tasks, f)
	visible := 0
	for i := range cols {
		for j := range cols[i].Cards {
			cols[i].Cards[j].Assignee = ResolveAssignee(cols[i].Cards[j].Task, agents)
		}
		visible += cols[i].Count()
	}
	for i := range cols {
		cols[i].Hint = emptyHint(cols[i], len(tasks), visible)
	}
	return View{
		Columns:             cols,
		Filter:              f,
		SprintOptions:       SprintOptions(tasks),
		HasUnassignedSprint: HasUnassignedSprint(tasks),
		Agents:              agents,
		Total:               len(tasks),
		Visible:             visible,
	}
}

func emptyHint(c ColumnView, total, visible int) string {
	switch {
	case c.Status == task.StatusBacklog && total == 0:
		return "No tasks yet"
	case c.Status == task.StatusBacklog && visible == 0:
		return "No tasks in this sprint"
	case visible > 0 && c.Count() == 0:
		return "No items in " + strings.ToLower(c.Title)
	}
	return ""
}
