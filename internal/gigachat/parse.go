package gigachat

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/types"
)

const degradedConfidence = 0.3

// parseReview turns the completion text into an AIReview through three
// branches: strict parse, balanced-brace extraction, and finally a degraded
// construction from the raw text. It never fails.
func parseReview(content string, log *logrus.Entry) *types.AIReview {
	var review types.AIReview
	if err := json.Unmarshal([]byte(content), &review); err == nil && review.OverallAssessment != "" {
		return &review
	}

	if candidate := extractJSON(content); candidate != "" {
		review = types.AIReview{}
		if err := json.Unmarshal([]byte(candidate), &review); err == nil && review.OverallAssessment != "" {
			log.Debug("review parsed from embedded JSON object")
			return &review
		}
	}

	log.Warn("gigachat reply is not parseable JSON, building degraded review")
	return &types.AIReview{
		OverallAssessment: truncate(content, 500),
		Strengths:         []string{"Assessment was produced, but in free-text form"},
		DetailedRecommendations: []string{
			"Full assessment text: " + truncate(content, 1000),
		},
		KeyInsights:     []string{"Model reply was not in the requested JSON format"},
		ConfidenceScore: degradedConfidence,
	}
}

// extractJSON finds the first balanced JSON object in a string, stripping the
// markdown fences models like to wrap replies in. Best effort: with several
// JSON-like fragments in one reply the first balanced span wins.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
