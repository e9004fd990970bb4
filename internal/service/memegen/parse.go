package memegen

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("(?m)^```(?:json)?\\s*\n?")
	fenceCloseRe = regexp.MustCompile("(?m)\n?```\\s*$")
	jsonLabelRe  = regexp.MustCompile(`(?im)^json\s*:?\s*`)
	arrayRe      = regexp.MustCompile(`(?s)\[.*\]`)
	quotedRe     = regexp.MustCompile(`"(.*?)"`)
)

const maxParsedLines = 10

// ParseCaptionLines extracts caption lines from a model response that
// was asked for a JSON array. Models wrap the array in fences, prefix
// it with labels, use single quotes or skip JSON entirely, so parsing
// degrades through progressively looser strategies before giving up.
func ParseCaptionLines(response string) []string {
	cleaned := cleanJSONResponse(response)

	if lines, ok := tryJSONList(cleaned); ok {
		return lines
	}

	if match := arrayRe.FindString(cleaned); match != "" {
		if lines, ok := tryJSONList(match); ok {
			return lines
		}
	}

	if lines, ok := tryJSONList(strings.ReplaceAll(cleaned, "'", `"`)); ok {
		return lines
	}

	if quoted := quotedRe.FindAllStringSubmatch(cleaned, maxParsedLines); len(quoted) > 0 {
		lines := make([]string, 0, len(quoted))
		for _, m := range quoted {
			lines = append(lines, strings.TrimSpace(m[1]))
		}
		return lines
	}

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func cleanJSONResponse(text string) string {
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	text = jsonLabelRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func tryJSONList(text string) ([]string, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}
	lines := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			b, err := json.Marshal(item)
			if err != nil {
				continue
			}
			s = string(b)
		}
		lines = append(lines, strings.TrimSpace(s))
	}
	return lines, true
}
