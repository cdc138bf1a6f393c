// Package artifact manages per-request temporary files: the uploaded video
// and the WAV derived from it. Every allocation is paired with a Cleanup that
// runs on all exit paths.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/logger"
)

const copyChunkSize = 1 << 20 // 1 MiB

type Store struct {
	dir string
	log *logrus.Entry
}

// NewStore keeps artifacts under dir; an empty dir means the OS temp dir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir, log: logger.Component("artifact")}
}

// Artifact is the pair of filesystem locations owned by one request.
type Artifact struct {
	VideoPath string
	AudioPath string
	log       *logrus.Entry
}

// Allocate reserves a video path carrying the upload's extension (".mp4" when
// none is inferable) and the paired audio path next to it.
func (s *Store) Allocate(filename string) *Artifact {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp4"
	}
	name := uuid.New().String()
	video := filepath.Join(s.dir, name+ext)
	return &Artifact{
		VideoPath: video,
		AudioPath: filepath.Join(s.dir, name+".wav"),
		log:       s.log.WithField("video_path", video),
	}
}

// SaveVideo streams the upload to the video path in bounded chunks.
func (a *Artifact) SaveVideo(r io.Reader) error {
	f, err := os.Create(a.VideoPath)
	if err != nil {
		return fmt.Errorf("create temp video: %w", err)
	}
	defer f.Close()

	buf := make([]byte, copyChunkSize)
	n, err := io.CopyBuffer(f, r, buf)
	if err != nil {
		return fmt.Errorf("write temp video: %w", err)
	}
	a.log.WithField("bytes", n).Info("upload saved to temporary location")
	return nil
}

// Cleanup deletes both paths. Failures are logged, never escalated; calling
// it when the files are already gone is fine.
func (a *Artifact) Cleanup() {
	for _, p := range []string{a.VideoPath, a.AudioPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil {
			if !os.IsNotExist(err) {
				a.log.WithField("path", p).WithError(err).Warn("failed to delete temp file")
			}
			continue
		}
		a.log.WithField("path", p).Debug("deleted temp file")
	}
}
