package util

import "strings"

// ExtractJSONObject returns the outermost JSON object embedded in model
// output, tolerating surrounding prose and markdown code fences. It returns
// the input unchanged when no object boundaries are found.
func ExtractJSONObject(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
