package summarize

import (
	"regexp"
	"strings"
)

const (
	// maxKeyPoints bounds the parsed key-point list.
	maxKeyPoints = 6
	// minPointLen discards bullet fragments too short to mean anything.
	minPointLen = 4
	// rawSummaryCap truncates the fallback summary taken from an
	// unstructured response.
	rawSummaryCap = 500
)

var numberedBullet = regexp.MustCompile(`^\d+[.)]\s*`)

// Parse extracts the summary paragraph and key points from a model
// response. Parsing is line-oriented and tolerant: section markers are
// matched case-insensitively, bullets may use -, •, * or numeric markers,
// and when no structure is found at all the truncated raw response
// becomes the summary with no key points.
// Parameters:
//   - raw: full model response text.
// Returns:
//   - string: summary paragraph (never empty for non-empty input).
//   - []string: up to six key points, possibly empty.
func Parse(raw string) (string, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	var summary string
	var keyPoints []string
	inSummary := false
	inPoints := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		if strings.Contains(lower, "resumen:") {
			inSummary = true
			inPoints = false
			if idx := strings.Index(line, ":"); idx != -1 {
				summary = strings.TrimSpace(line[idx+1:])
			}
			continue
		}
		if strings.Contains(lower, "puntos clave") || strings.Contains(lower, "key points") {
			inPoints = true
			inSummary = false
			continue
		}

		switch {
		case inPoints:
			if point, ok := parseBullet(line); ok {
				keyPoints = append(keyPoints, point)
			}
		case inSummary && line != "":
			if summary == "" {
				summary = line
			} else {
				summary += " " + line
			}
		}
	}

	if summary == "" {
		if len(raw) > rawSummaryCap {
			summary = raw[:rawSummaryCap]
		} else {
			summary = raw
		}
	}

	if len(keyPoints) > maxKeyPoints {
		keyPoints = keyPoints[:maxKeyPoints]
	}
	return summary, keyPoints
}

// parseBullet strips a bullet marker from a line and validates the rest.
func parseBullet(line string) (string, bool) {
	var point string
	switch {
	case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "•"), strings.HasPrefix(line, "*"):
		point = strings.TrimSpace(strings.TrimLeft(line, "-•* "))
	case numberedBullet.MatchString(line):
		point = strings.TrimSpace(numberedBullet.ReplaceAllString(line, ""))
	default:
		return "", false
	}
	if len(point) < minPointLen {
		return "", false
	}
	return point, true
}
