package task

import (
	"fmt"
	"regexp"
	"strconv"
)

const displayIDPrefix = "TASK-"

var displayIDPattern = regexp.MustCompile(`^TASK-(\d+)$`)

// NextDisplayID returns TASK-<n> where n is one more than the highest valid
// suffix in tasks. Ids that do not match the pattern are ignored, so gaps left
// by deletions are never refilled.
func NextDisplayID(tasks []Task) string {
	var highest uint64
	for _, t := range tasks {
		m := displayIDPattern.FindStringSubmatch(t.TaskID)
		if m == nil {
			continue
		}
		n, err := strconv.ParseUint(m[1], 10, 63)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return fmt.Sprintf("%s%d", displayIDPrefix, highest+1)
}
