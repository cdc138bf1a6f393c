// Package pipeline sequences one upload through validation, artifact save,
// audio extraction, transcription, metric analysis and the optional AI
// review. It owns the translation of collaborator failures into the domain
// error taxonomy and guarantees temp-file cleanup on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/apperr"
	"speech-coach-go/internal/artifact"
	"speech-coach-go/internal/ffmpeg"
	"speech-coach-go/internal/gigachat"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/types"
	"speech-coach-go/internal/validation"
)

// AudioExtractor converts a saved video into a WAV within a bounded timeout.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath, audioPath string, timeout time.Duration) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (types.Transcript, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, tr types.Transcript, audioPath string) (types.AnalysisResult, error)
}

// Reviewer produces the optional narrative assessment. Its outcome never
// fails the pipeline.
type Reviewer interface {
	Review(ctx context.Context, r types.AnalysisResult) gigachat.Outcome
}

type Pipeline struct {
	validator   *validation.Validator
	store       *artifact.Store
	extractor   AudioExtractor
	transcriber Transcriber
	analyzer    Analyzer
	reviewer    Reviewer // nil when no AI client is configured

	extractionTimeout time.Duration
	log               *logrus.Entry
}

func New(
	validator *validation.Validator,
	store *artifact.Store,
	extractor AudioExtractor,
	transcriber Transcriber,
	analyzer Analyzer,
	reviewer Reviewer,
	extractionTimeout time.Duration,
) *Pipeline {
	return &Pipeline{
		validator:         validator,
		store:             store,
		extractor:         extractor,
		transcriber:       transcriber,
		analyzer:          analyzer,
		reviewer:          reviewer,
		extractionTimeout: extractionTimeout,
		log:               logger.Component("pipeline"),
	}
}

// AnalyzeUpload runs the full pipeline for one upload. The returned error is
// always an *apperr.Error; collaborator-native failures never reach the
// boundary. Temporary artifacts are removed before this returns, no matter
// how it returns.
func (p *Pipeline) AnalyzeUpload(ctx context.Context, u *validation.Upload) (result types.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("unexpected failure in analysis pipeline")
			err = apperr.Wrap(apperr.KindInternal,
				"Internal error occurred while processing the file", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := p.validator.Validate(u); err != nil {
		return types.AnalysisResult{}, err
	}

	art := p.store.Allocate(u.Filename)
	defer art.Cleanup()

	if err := art.SaveVideo(u.Reader); err != nil {
		return types.AnalysisResult{}, apperr.Wrap(apperr.KindInternal,
			"Failed to store the uploaded file", err)
	}

	// External stages run on a detached context: an abandoned request may
	// not kill an in-flight subprocess or HTTP call before its own bound.
	stageCtx := context.WithoutCancel(ctx)

	p.log.WithField("video_path", art.VideoPath).Info("extracting audio")
	if err := p.extractor.Extract(stageCtx, art.VideoPath, art.AudioPath, p.extractionTimeout); err != nil {
		return types.AnalysisResult{}, translateExtraction(err)
	}

	p.log.Info("transcribing audio")
	transcript, err := p.transcriber.Transcribe(stageCtx, art.AudioPath)
	if err != nil {
		return types.AnalysisResult{}, apperr.Wrap(apperr.KindTranscription,
			"Failed to transcribe audio", err)
	}

	p.log.Info("analyzing speech metrics")
	baseline, err := p.analyzer.Analyze(stageCtx, transcript, art.AudioPath)
	if err != nil {
		return types.AnalysisResult{}, apperr.Wrap(apperr.KindAnalysis,
			"Failed to analyze speech", err)
	}

	result = p.review(stageCtx, baseline)
	p.log.Info("analysis completed")
	return result, nil
}

// review attaches the AI assessment when one arrives. Skipped and failed
// outcomes leave the baseline untouched.
func (p *Pipeline) review(ctx context.Context, baseline types.AnalysisResult) types.AnalysisResult {
	if p.reviewer == nil {
		return baseline
	}
	outcome := p.reviewer.Review(ctx, baseline)
	switch outcome.Status {
	case gigachat.StatusSucceeded:
		p.log.Info("AI review attached to result")
		return baseline.WithReview(outcome.Review)
	case gigachat.StatusSkipped:
		p.log.WithField("reason", outcome.Reason).Debug("AI review skipped")
	case gigachat.StatusFailed:
		p.log.WithField("reason", outcome.Reason).Warn("AI review failed, returning baseline result")
	}
	return baseline
}

// translateExtraction is the single table mapping extractor failures onto the
// domain taxonomy with user-actionable messages.
func translateExtraction(err error) *apperr.Error {
	switch {
	case errors.Is(err, ffmpeg.ErrTimeout):
		return apperr.Wrap(apperr.KindExtractionTimeout,
			"Audio extraction took too long. Video might be too long or corrupted.", err)
	case errors.Is(err, ffmpeg.ErrToolMissing):
		return apperr.Wrap(apperr.KindExtractionToolMissing,
			"FFmpeg is not installed or not in PATH", err)
	case errors.Is(err, ffmpeg.ErrEmptyOutput):
		return apperr.Wrap(apperr.KindExtractionCorrupted,
			"Video file is corrupted or empty", err)
	default:
		return apperr.Wrap(apperr.KindExtractionFailed,
			fmt.Sprintf("Failed to extract audio: %v", err), err)
	}
}
