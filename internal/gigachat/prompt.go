package gigachat

import (
	"fmt"
	"strings"

	"speech-coach-go/internal/types"
)

const transcriptPromptLimit = 3000

// buildPrompt summarizes the baseline analysis as the user message. The
// transcript is truncated with an explicit marker so the model knows it saw a
// prefix.
func buildPrompt(r types.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("Analyze this public speech:\n\n")

	b.WriteString("=== TRANSCRIPT ===\n")
	b.WriteString(truncate(r.Transcript, transcriptPromptLimit))
	if len(r.Transcript) > transcriptPromptLimit {
		b.WriteString("... [text truncated]")
	}
	b.WriteString("\n\n=== METRICS ===\n")
	fmt.Fprintf(&b, "Duration: %.1f seconds\n", r.DurationSec)
	fmt.Fprintf(&b, "Speaking time: %.1f seconds\n", r.SpeakingTimeSec)
	fmt.Fprintf(&b, "Speaking ratio: %.0f%%\n", r.SpeakingRatio*100)
	fmt.Fprintf(&b, "Pace: %.1f words/minute\n", r.WordsPerMinute)
	fmt.Fprintf(&b, "Total words: %d\n\n", r.WordsTotal)

	fmt.Fprintf(&b, "Filler words: %d (%.1f per 100 words)\n",
		r.FillerWords.Total, r.FillerWords.Per100Words)
	if len(r.FillerWords.Items) > 0 {
		b.WriteString("Most frequent:\n")
		for i, item := range r.FillerWords.Items {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %d times\n", item.Word, item.Count)
		}
	}

	fmt.Fprintf(&b, "\nPause count: %d\n", r.Pauses.Count)
	fmt.Fprintf(&b, "Average pause: %.1f seconds\n", r.Pauses.AvgSec)
	fmt.Fprintf(&b, "Longest pause: %.1f seconds\n", r.Pauses.MaxSec)
	if len(r.Pauses.LongPauses) > 0 {
		b.WriteString("Long pauses:\n")
		for i, p := range r.Pauses.LongPauses {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- %.1f sec (from %.1f to %.1f)\n", p.DurationSec, p.StartSec, p.EndSec)
		}
	}

	fmt.Fprintf(&b, "\nPhrase count: %d\n", r.Phrases.Count)
	fmt.Fprintf(&b, "Average phrase length: %.1f words\n", r.Phrases.AvgWords)
	fmt.Fprintf(&b, "Phrase length classification: %s\n", r.Phrases.LengthClassification)
	fmt.Fprintf(&b, "Rhythm variation: %s\n", r.Phrases.RhythmVariation)

	if len(r.Advice) > 0 {
		b.WriteString("\n=== RULE-BASED RECOMMENDATIONS ===\n")
		for _, a := range r.Advice {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Observation)
		}
	}

	b.WriteString(`
Give a thorough assessment in the context of a public speech.
Pay attention to:
1. Clarity and structure of thought
2. Emotional coloring of the speech
3. Persuasiveness of the argument
4. Audience engagement (based on pauses and pace)
5. Professional vocabulary and terminology
6. Overall impression

Return the answer strictly as JSON, as specified in the system prompt.`)

	return b.String()
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && s[limit]&0xC0 == 0x80 {
		limit--
	}
	return s[:limit]
}
