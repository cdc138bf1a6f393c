// Package dataset loads the optional reference-talk workbook used to ground
// advice and AI prompts in real numbers instead of folklore thresholds.
package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"speech-coach-go/internal/logger"
)

// BenchmarkSummary is the compact aggregate kept in memory for the lifetime
// of the process.
type BenchmarkSummary struct {
	TalkCount         int     `json:"talk_count"`
	AvgWordsPerMinute float64 `json:"avg_words_per_minute"`
	AvgFillerPer100   float64 `json:"avg_filler_per_100_words"`
	AvgPauseSec       float64 `json:"avg_pause_sec"`
	AvgDurationSec    float64 `json:"avg_duration_sec"`
}

// LoadBenchmark reads the first sheet of an xlsx of reference talks. Columns
// are located by header heuristics so differently exported workbooks still
// load.
func LoadBenchmark(path string) (*BenchmarkSummary, error) {
	log := logger.Component("dataset").WithField("path", path)
	log.Info("opening benchmark workbook")

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	wpmIdx, fillerIdx, pauseIdx, durationIdx := -1, -1, -1, -1
	for i, h := range rows[0] {
		n := strings.ToLower(strings.TrimSpace(h))
		switch {
		case wpmIdx == -1 && (strings.Contains(n, "wpm") || strings.Contains(n, "pace") || strings.Contains(n, "words per minute")):
			wpmIdx = i
		case fillerIdx == -1 && strings.Contains(n, "filler"):
			fillerIdx = i
		case pauseIdx == -1 && strings.Contains(n, "pause"):
			pauseIdx = i
		case durationIdx == -1 && (strings.Contains(n, "duration") || strings.Contains(n, "length")):
			durationIdx = i
		}
	}
	if wpmIdx == -1 {
		return nil, fmt.Errorf("no pace column detected in header %v", rows[0])
	}

	var (
		count                               int
		wpmSum, fillerSum, pauseSum, durSum float64
	)
	for i, r := range rows {
		if i == 0 {
			continue
		}
		wpm, ok := cellFloat(r, wpmIdx)
		if !ok || wpm <= 0 {
			continue
		}
		count++
		wpmSum += wpm
		if v, ok := cellFloat(r, fillerIdx); ok {
			fillerSum += v
		}
		if v, ok := cellFloat(r, pauseIdx); ok {
			pauseSum += v
		}
		if v, ok := cellFloat(r, durationIdx); ok {
			durSum += v
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("no usable rows")
	}

	s := &BenchmarkSummary{
		TalkCount:         count,
		AvgWordsPerMinute: wpmSum / float64(count),
		AvgFillerPer100:   fillerSum / float64(count),
		AvgPauseSec:       pauseSum / float64(count),
		AvgDurationSec:    durSum / float64(count),
	}
	log.WithField("talks", s.TalkCount).Info("benchmark summary loaded")
	return s, nil
}

func cellFloat(row []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
