package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
)

const columnWidth = 30

var columnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1).
	Width(columnWidth)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	hintStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	levelStyles = map[task.PriorityLevel]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
	}
	avatarColors = map[string]lipgloss.Color{
		"red":    "196",
		"blue":   "33",
		"green":  "70",
		"purple": "135",
		"orange": "208",
		"pink":   "205",
		"yellow": "220",
		"indigo": "63",
	}
)

func renderBoard(b *agentboardv1.GetBoardResponse) string {
	agents := make(map[string]agent.Agent, len(b.Agents))
	for _, a := range b.Agents {
		agents[a.ID] = a
	}
	cols := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		cols = append(cols, columnStyle.Render(renderColumn(c, agents)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderColumn(c agentboardv1.BoardColumn, agents map[string]agent.Agent) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", c.Title, len(c.Tasks))))
	sb.WriteString("\n")
	if len(c.Tasks) == 0 {
		sb.WriteString(hintStyle.Render("empty"))
		return sb.String()
	}
	for i, t := range c.Tasks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(renderCard(t, agents))
	}
	return sb.String()
}

func renderCard(t task.Task, agents map[string]agent.Agent) string {
	level := task.LevelOf(t.Priority)
	lines := []string{
		idStyle.Render(t.TaskID) + " " + levelStyles[level].Render(string(level)),
		t.Title,
	}
	if len(t.Tags) > 0 {
		lines = append(lines, idStyle.Render("#"+strings.Join(t.Tags, " #")))
	}
	if a, ok := agents[t.AssignedAgentID]; ok && t.AssignedAgentID != "" {
		avatar := lipgloss.NewStyle().Bold(true).Foreground(avatarColors[a.AvatarColor]).Render(a.Avatar)
		lines = append(lines, avatar+" "+a.Name)
	}
	if t.Sprint != "" {
		lines = append(lines, idStyle.Render(t.Sprint))
	}
	return strings.Join(lines, "\n") + "\n"
}
