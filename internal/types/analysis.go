package types

// Transcript is the output of the transcription stage. Segments carry word
// timing so the analyzer can derive pauses and phrases.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
}

type FillerWordItem struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type FillerWordStats struct {
	Total       int              `json:"total"`
	Per100Words float64          `json:"per_100_words"`
	Items       []FillerWordItem `json:"items"`
}

type LongPause struct {
	StartSec    float64 `json:"start"`
	EndSec      float64 `json:"end"`
	DurationSec float64 `json:"duration"`
}

type PauseStats struct {
	Count      int         `json:"count"`
	AvgSec     float64     `json:"avg_sec"`
	MaxSec     float64     `json:"max_sec"`
	LongPauses []LongPause `json:"long_pauses"`
}

type PhraseStats struct {
	Count                int     `json:"count"`
	AvgWords             float64 `json:"avg_words"`
	LengthClassification string  `json:"length_classification"`
	RhythmVariation      string  `json:"rhythm_variation"`
}

// Advice is one rule-based recommendation card.
type Advice struct {
	Title       string `json:"title"`
	Observation string `json:"observation"`
	Suggestion  string `json:"suggestion"`
}

// AIReview is the optional narrative assessment produced by the remote model.
type AIReview struct {
	OverallAssessment       string   `json:"overall_assessment"`
	Strengths               []string `json:"strengths"`
	AreasForImprovement     []string `json:"areas_for_improvement"`
	DetailedRecommendations []string `json:"detailed_recommendations"`
	KeyInsights             []string `json:"key_insights"`
	ConfidenceScore         float64  `json:"confidence_score"`
}

// AnalysisResult is the aggregate returned to the caller. Baseline fields are
// set once by the analyzer; only AIReview may be attached afterwards, by
// replacing the whole value rather than mutating it in place.
type AnalysisResult struct {
	DurationSec     float64         `json:"duration_sec"`
	SpeakingTimeSec float64         `json:"speaking_time_sec"`
	SpeakingRatio   float64         `json:"speaking_ratio"`
	WordsTotal      int             `json:"words_total"`
	WordsPerMinute  float64         `json:"words_per_minute"`
	FillerWords     FillerWordStats `json:"filler_words"`
	Pauses          PauseStats      `json:"pauses"`
	Phrases         PhraseStats     `json:"phrases"`
	Advice          []Advice        `json:"advice"`
	Transcript      string          `json:"transcript"`
	AIReview        *AIReview       `json:"ai_review,omitempty"`
}

// WithReview returns a copy of the result with the review attached. The
// receiver is left untouched.
func (r AnalysisResult) WithReview(review *AIReview) AnalysisResult {
	r.AIReview = review
	return r
}
