package validation

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/apperr"
	"speech-coach-go/internal/logger"
)

// Upload is an inbound file as the HTTP layer hands it over. Size is the
// declared length in bytes, -1 when unknown.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type Validator struct {
	allowedExts []string
	maxSizeMB   int
	log         *logrus.Entry
}

func New(allowedExts []string, maxSizeMB int) *Validator {
	return &Validator{
		allowedExts: allowedExts,
		maxSizeMB:   maxSizeMB,
		log:         logger.Component("validation"),
	}
}

// Validate checks extension and size. It may replace u.Reader when the size
// fallback had to buffer the stream; the replacement always yields the
// complete content from the start.
func (v *Validator) Validate(u *Upload) error {
	if err := v.checkExtension(u.Filename); err != nil {
		return err
	}
	return v.checkSize(u)
}

func (v *Validator) checkExtension(filename string) error {
	if filename == "" {
		return apperr.UnsupportedFileType("unknown", v.allowedExts)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return apperr.UnsupportedFileType("no extension", v.allowedExts)
	}
	for _, allowed := range v.allowedExts {
		if ext == allowed {
			return nil
		}
	}
	return apperr.UnsupportedFileType(ext, v.allowedExts)
}

// checkSize resolves the upload size with three fallbacks: the declared size,
// a seek to the end (restoring the position), and finally a full read that
// buffers the content and swaps the reader. An undeterminable size skips the
// check rather than failing the request.
func (v *Validator) checkSize(u *Upload) error {
	maxBytes := int64(v.maxSizeMB) * 1024 * 1024

	size := int64(-1)
	switch {
	case u.Size >= 0:
		size = u.Size
		v.log.WithField("bytes", size).Debug("size from declared attribute")
	default:
		if seeker, ok := u.Reader.(io.Seeker); ok {
			if n, err := sizeViaSeek(seeker); err == nil {
				size = n
				v.log.WithField("bytes", size).Debug("size from seek")
			} else {
				v.log.WithError(err).Warn("could not determine size via seek")
			}
		}
		if size < 0 {
			buf, err := io.ReadAll(u.Reader)
			if err != nil {
				v.log.WithError(err).Warn("size read failed, skipping size validation")
				u.Reader = io.MultiReader(bytes.NewReader(buf), u.Reader)
				return nil
			}
			size = int64(len(buf))
			u.Reader = bytes.NewReader(buf)
			v.log.WithField("bytes", size).Debug("size from full read")
		}
	}

	if size > maxBytes {
		return apperr.FileTooLarge(float64(size)/(1024*1024), v.maxSizeMB)
	}
	v.log.WithField("mb", float64(size)/(1024*1024)).Info("file size ok")
	return nil
}

func sizeViaSeek(s io.Seeker) (int64, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}
