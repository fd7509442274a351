package topic

import (
	"regexp"
	"strings"
)

// numberedLinePattern matches "  3. Some topic" and captures the remainder
var numberedLinePattern = regexp.MustCompile(`^\s*\d+\.\s+(.*)$`)

// Extract returns the remainder of every numbered line in text, in order.
// Lines that are not numbered are ignored. A numbered line with nothing
// after the marker yields an empty item. Never returns nil.
func Extract(text string) []string {
	topics := make([]string, 0)
	if text == "" {
		return topics
	}

	for _, line := range strings.Split(text, "\n") {
		match := numberedLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		topics = append(topics, strings.TrimRight(match[1], " \t\r"))
	}

	return topics
}
