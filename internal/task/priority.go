package task

import "strings"

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

func LevelOf(priority int) PriorityLevel {
	switch {
	case priority >= 4:
		return PriorityHigh
	case priority == 3:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// PriorityOrDefault maps 0 (unset) to DefaultPriority.
func PriorityOrDefault(p int) int {
	if p == 0 {
		return DefaultPriority
	}
	return p
}

func ValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}

var tagClasses = map[string]string{
	"frontend": "tag-blue",
	"backend":  "tag-green",
	"bug":      "tag-red",
	"feature":  "tag-purple",
	"urgent":   "tag-orange",
	"api":      "tag-indigo",
	"ui":       "tag-pink",
}

// TagClass returns the CSS class used to colour a tag chip.
func TagClass(tag string) string {
	if c, ok := tagClasses[strings.ToLower(tag)]; ok {
		return c
	}
	return "tag-gray"
}
