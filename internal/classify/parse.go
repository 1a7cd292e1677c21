package classify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// modelResponse is the JSON object the classification prompt constrains
// the model to emit.
type modelResponse struct {
	AreaID    int64   `json:"area_id"`
	TopicIDs  []int64 `json:"topic_ids"`
	Confianza string  `json:"confianza"`
}

// unquotedConfianza repairs a frequent small-model mistake: emitting the
// confidence value without quotes ("confianza": alta).
var unquotedConfianza = regexp.MustCompile(`("confianza"\s*:\s*)(alta|media|baja)`)

// confidenceScale maps the model's coarse confidence labels to scores.
var confidenceScale = map[string]float64{
	"alta":  0.9,
	"media": 0.6,
	"baja":  0.3,
}

// extractJSON finds the first balanced JSON object in the raw model
// response. Models wrap output in prose or markdown fences often enough
// that naive unmarshaling of the whole response is not reliable.
func extractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// parseModelResponse extracts and decodes the classification JSON from a
// raw model response, returning the chosen area, suggested topics, and
// the numeric confidence.
func parseModelResponse(raw string) (*modelResponse, float64, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, 0, err
	}
	jsonStr = unquotedConfianza.ReplaceAllString(jsonStr, `$1"$2"`)

	var resp modelResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse classification JSON: %w", err)
	}
	if resp.AreaID <= 0 {
		return nil, 0, fmt.Errorf("classification JSON missing area_id")
	}

	score, ok := confidenceScale[strings.ToLower(strings.TrimSpace(resp.Confianza))]
	if !ok {
		score = confidenceScale["baja"]
	}
	return &resp, score, nil
}
