package ai

import "strings"

// ExtractJSONBlock locates the structured block embedded in a model response:
// code fences are stripped and the text from the first "{" to the last "}" is
// returned. ok is false when no such block exists.
func ExtractJSONBlock(content string) (block string, ok bool) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}
