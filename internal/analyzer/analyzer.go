// Package analyzer computes the baseline speech metrics from a timed
// transcript: pace, pauses, filler words, phrase rhythm and the rule-based
// advice cards.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/dataset"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/types"
)

const (
	pauseThresholdSec = 0.5
	longPauseSec      = 2.0
)

// DurationProber reports the total duration of a media file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

type SpeechAnalyzer struct {
	prober    DurationProber
	benchmark *dataset.BenchmarkSummary
	log       *logrus.Entry
}

// New builds an analyzer. benchmark may be nil when no reference dataset was
// loaded at startup.
func New(prober DurationProber, benchmark *dataset.BenchmarkSummary) *SpeechAnalyzer {
	return &SpeechAnalyzer{
		prober:    prober,
		benchmark: benchmark,
		log:       logger.Component("analyzer"),
	}
}

// Analyze derives the baseline AnalysisResult from the transcript and the
// audio file. The audio is only probed for duration, never decoded here.
func (a *SpeechAnalyzer) Analyze(ctx context.Context, tr types.Transcript, audioPath string) (types.AnalysisResult, error) {
	if tr.Text == "" && len(tr.Segments) == 0 {
		return types.AnalysisResult{}, fmt.Errorf("empty transcript")
	}

	text := tr.Text
	if text == "" {
		var parts []string
		for _, s := range tr.Segments {
			parts = append(parts, s.Text)
		}
		text = strings.Join(parts, " ")
	}

	durationSec := 0.0
	if a.prober != nil {
		d, err := a.prober.ProbeDuration(ctx, audioPath)
		if err != nil {
			a.log.WithError(err).Warn("duration probe failed, falling back to segment timings")
		} else {
			durationSec = d
		}
	}
	if durationSec == 0 && len(tr.Segments) > 0 {
		durationSec = tr.Segments[len(tr.Segments)-1].EndSec
	}
	if durationSec <= 0 {
		return types.AnalysisResult{}, fmt.Errorf("could not determine audio duration")
	}

	words := len(strings.Fields(text))
	speakingTime := speakingTimeSec(tr.Segments)
	if speakingTime == 0 || speakingTime > durationSec {
		speakingTime = durationSec
	}

	wpm := 0.0
	if speakingTime > 0 {
		wpm = float64(words) / (speakingTime / 60.0)
	}

	pauses := detectPauses(tr.Segments)
	phrases := analyzePhrases(tr.Segments)
	fillers := countFillers(text, words)

	result := types.AnalysisResult{
		DurationSec:     round1(durationSec),
		SpeakingTimeSec: round1(speakingTime),
		SpeakingRatio:   round2(speakingTime / durationSec),
		WordsTotal:      words,
		WordsPerMinute:  round1(wpm),
		FillerWords:     fillers,
		Pauses:          pauses,
		Phrases:         phrases,
		Transcript:      text,
	}
	result.Advice = a.buildAdvice(result)

	a.log.WithFields(logrus.Fields{
		"words":   words,
		"wpm":     result.WordsPerMinute,
		"pauses":  pauses.Count,
		"phrases": phrases.Count,
		"fillers": fillers.Total,
		"advice":  len(result.Advice),
	}).Info("speech metrics computed")
	return result, nil
}

func speakingTimeSec(segments []types.Segment) float64 {
	total := 0.0
	for _, s := range segments {
		if s.EndSec > s.StartSec {
			total += s.EndSec - s.StartSec
		}
	}
	return total
}

func detectPauses(segments []types.Segment) types.PauseStats {
	var stats types.PauseStats
	var sum float64
	for i := 1; i < len(segments); i++ {
		gap := segments[i].StartSec - segments[i-1].EndSec
		if gap < pauseThresholdSec {
			continue
		}
		stats.Count++
		sum += gap
		if gap > stats.MaxSec {
			stats.MaxSec = round1(gap)
		}
		if gap >= longPauseSec {
			stats.LongPauses = append(stats.LongPauses, types.LongPause{
				StartSec:    round1(segments[i-1].EndSec),
				EndSec:      round1(segments[i].StartSec),
				DurationSec: round1(gap),
			})
		}
	}
	if stats.Count > 0 {
		stats.AvgSec = round1(sum / float64(stats.Count))
	}
	return stats
}

// analyzePhrases groups consecutive segments separated by less than the pause
// threshold into phrases and classifies their length and rhythm spread.
func analyzePhrases(segments []types.Segment) types.PhraseStats {
	if len(segments) == 0 {
		return types.PhraseStats{LengthClassification: "unknown", RhythmVariation: "unknown"}
	}

	type phrase struct {
		words    int
		duration float64
	}
	var phrases []phrase
	cur := phrase{
		words:    len(strings.Fields(segments[0].Text)),
		duration: segments[0].EndSec - segments[0].StartSec,
	}
	for i := 1; i < len(segments); i++ {
		gap := segments[i].StartSec - segments[i-1].EndSec
		if gap >= pauseThresholdSec {
			phrases = append(phrases, cur)
			cur = phrase{}
		}
		cur.words += len(strings.Fields(segments[i].Text))
		cur.duration += segments[i].EndSec - segments[i].StartSec
	}
	phrases = append(phrases, cur)

	totalWords := 0
	var durations []float64
	for _, p := range phrases {
		totalWords += p.words
		durations = append(durations, p.duration)
	}
	avgWords := float64(totalWords) / float64(len(phrases))

	classification := "balanced"
	switch {
	case avgWords < 8:
		classification = "short"
	case avgWords > 20:
		classification = "long"
	}

	return types.PhraseStats{
		Count:                len(phrases),
		AvgWords:             round1(avgWords),
		LengthClassification: classification,
		RhythmVariation:      classifyRhythm(durations),
	}
}

// classifyRhythm uses the coefficient of variation of phrase durations.
func classifyRhythm(durations []float64) string {
	if len(durations) < 2 {
		return "uniform"
	}
	mean := 0.0
	for _, d := range durations {
		mean += d
	}
	mean /= float64(len(durations))
	if mean == 0 {
		return "uniform"
	}
	variance := 0.0
	for _, d := range durations {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(durations))
	cv := math.Sqrt(variance) / mean
	switch {
	case cv < 0.3:
		return "monotonous"
	case cv < 0.6:
		return "varied"
	default:
		return "highly varied"
	}
}

func countFillers(text string, totalWords int) types.FillerWordStats {
	lowered := " " + strings.ToLower(text) + " "
	// strip punctuation so boundary matching works on plain words
	replacer := strings.NewReplacer(",", " ", ".", " ", "!", " ", "?", " ", ";", " ", ":", " ")
	lowered = replacer.Replace(lowered)

	var stats types.FillerWordStats
	for _, w := range fillerLexicon {
		count := strings.Count(lowered, " "+w+" ")
		if count == 0 {
			continue
		}
		stats.Total += count
		stats.Items = append(stats.Items, types.FillerWordItem{Word: w, Count: count})
	}
	sort.Slice(stats.Items, func(i, j int) bool {
		if stats.Items[i].Count != stats.Items[j].Count {
			return stats.Items[i].Count > stats.Items[j].Count
		}
		return stats.Items[i].Word < stats.Items[j].Word
	})
	if totalWords > 0 {
		stats.Per100Words = round1(float64(stats.Total) / float64(totalWords) * 100)
	}
	return stats
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
