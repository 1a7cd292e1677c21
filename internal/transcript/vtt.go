package transcript

import (
	"regexp"
	"strings"
)

// minCleanedLen is the minimum useful length of a cleaned transcript.
// Anything shorter is treated as no result.
const minCleanedLen = 20

var (
	markupTags  = regexp.MustCompile(`<[^>]+>`)
	bracketed   = regexp.MustCompile(`\[.*?\]`)
	multiSpaces = regexp.MustCompile(`\s+`)
)

// CleanVTT extracts plain speech text from VTT subtitle content.
// It drops headers, timestamp and cue-number lines, strips markup and
// bracketed non-speech markers, and de-duplicates repeated lines, which
// auto-generated subtitles produce constantly across overlapping cues.
// Parameters:
//   - content: raw VTT file content.
// Returns:
//   - string: cleaned transcript, or "" when too little text remains.
func CleanVTT(content string) string {
	seen := make(map[string]bool)
	var textLines []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "WEBVTT") {
			continue
		}
		if strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:") {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if isDigits(line) {
			continue
		}

		line = markupTags.ReplaceAllString(line, "")
		line = bracketed.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		if line != "" && !seen[line] {
			seen[line] = true
			textLines = append(textLines, line)
		}
	}

	transcript := strings.TrimSpace(multiSpaces.ReplaceAllString(strings.Join(textLines, " "), " "))
	if len(transcript) <= minCleanedLen {
		return ""
	}
	return transcript
}

// isDigits reports whether s consists only of ASCII digits (a cue number).
func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
