package analyzer

import (
	"fmt"

	"speech-coach-go/internal/types"
)

// fillerLexicon lists the disfluencies tracked per 100 words. Multi-word
// entries are matched as phrases.
var fillerLexicon = []string{
	"um", "uh", "er", "ah", "hmm",
	"like", "actually", "basically", "literally", "right",
	"you know", "i mean", "sort of", "kind of", "so yeah",
}

const (
	paceSlowWPM      = 110
	paceFastWPM      = 170
	fillerHighPer100 = 3.0
	ratioLow         = 0.6
)

// buildAdvice derives the rule-based recommendation cards from the computed
// metrics. When a benchmark dataset was loaded, observations reference it.
func (a *SpeechAnalyzer) buildAdvice(r types.AnalysisResult) []types.Advice {
	var advice []types.Advice

	switch {
	case r.WordsPerMinute > 0 && r.WordsPerMinute < paceSlowWPM:
		advice = append(advice, types.Advice{
			Title:       "Speaking pace",
			Observation: a.paceObservation(r.WordsPerMinute, "below"),
			Suggestion:  "Pick up the pace slightly; long-winded delivery loses the audience.",
		})
	case r.WordsPerMinute > paceFastWPM:
		advice = append(advice, types.Advice{
			Title:       "Speaking pace",
			Observation: a.paceObservation(r.WordsPerMinute, "above"),
			Suggestion:  "Slow down and let key points land; aim for 120-160 words per minute.",
		})
	}

	if r.FillerWords.Per100Words > fillerHighPer100 {
		obs := fmt.Sprintf("%.1f filler words per 100 words (%d total)",
			r.FillerWords.Per100Words, r.FillerWords.Total)
		if a.benchmark != nil && a.benchmark.AvgFillerPer100 > 0 {
			obs += fmt.Sprintf("; reference talks average %.1f", a.benchmark.AvgFillerPer100)
		}
		advice = append(advice, types.Advice{
			Title:       "Filler words",
			Observation: obs,
			Suggestion:  "Replace fillers with short silent pauses; record yourself to build awareness.",
		})
	}

	if n := len(r.Pauses.LongPauses); n >= 3 {
		advice = append(advice, types.Advice{
			Title:       "Long pauses",
			Observation: fmt.Sprintf("%d pauses longer than %.0f seconds, the longest lasting %.1f seconds", n, longPauseSec, r.Pauses.MaxSec),
			Suggestion:  "Rehearse transitions between sections so pauses stay intentional.",
		})
	}

	if r.SpeakingRatio > 0 && r.SpeakingRatio < ratioLow {
		advice = append(advice, types.Advice{
			Title:       "Speaking time",
			Observation: fmt.Sprintf("Only %.0f%% of the recording contains speech", r.SpeakingRatio*100),
			Suggestion:  "Trim dead air at the start and end, or tighten the delivery.",
		})
	}

	if r.Phrases.RhythmVariation == "monotonous" {
		advice = append(advice, types.Advice{
			Title:       "Rhythm",
			Observation: "Phrase lengths are very uniform, which reads as monotonous",
			Suggestion:  "Mix short punchy statements with longer explanatory sentences.",
		})
	}

	return advice
}

func (a *SpeechAnalyzer) paceObservation(wpm float64, direction string) string {
	obs := fmt.Sprintf("Pace of %.0f words per minute is %s the comfortable range", wpm, direction)
	if a.benchmark != nil && a.benchmark.AvgWordsPerMinute > 0 {
		obs += fmt.Sprintf(" (reference talks average %.0f)", a.benchmark.AvgWordsPerMinute)
	}
	return obs
}
