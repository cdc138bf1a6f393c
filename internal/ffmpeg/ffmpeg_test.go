package ffmpeg

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestExtractMissingBinary(t *testing.T) {
	e := NewExtractor("ffmpeg-binary-that-does-not-exist", "")
	dir := t.TempDir()

	err := e.Extract(context.Background(),
		filepath.Join(dir, "in.mp4"), filepath.Join(dir, "out.wav"), time.Minute)
	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("err = %v, want ErrToolMissing", err)
	}
}

func TestProbeDurationMissingBinary(t *testing.T) {
	e := NewExtractor("", "ffprobe-binary-that-does-not-exist")

	_, err := e.ProbeDuration(context.Background(), "whatever.wav")
	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("err = %v, want ErrToolMissing", err)
	}
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor("", "")
	if e.ffmpegPath != "ffmpeg" || e.ffprobePath != "ffprobe" {
		t.Fatalf("defaults = %q, %q", e.ffmpegPath, e.ffprobePath)
	}
}
