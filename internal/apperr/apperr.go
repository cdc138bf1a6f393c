// Package apperr defines the domain error taxonomy surfaced at the service
// boundary. Collaborator-native failures are translated into one of these
// kinds by the pipeline; raw errors never leak to the caller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFileType
	KindFileTooLarge
	KindExtractionTimeout
	KindExtractionToolMissing
	KindExtractionCorrupted
	KindExtractionFailed
	KindTranscription
	KindAnalysis
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFileType:
		return "unsupported_file_type"
	case KindFileTooLarge:
		return "file_too_large"
	case KindExtractionTimeout:
		return "extraction_timeout"
	case KindExtractionToolMissing:
		return "extraction_tool_missing"
	case KindExtractionCorrupted:
		return "extraction_corrupted"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindTranscription:
		return "transcription_failed"
	case KindAnalysis:
		return "analysis_failed"
	case KindInternal:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Error carries a kind tag plus a user-actionable message. Err holds the
// collaborator cause for logs only; Error() does not expose it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two apperr values by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// UnsupportedFileType reports a rejected extension together with the
// configured allow-list.
func UnsupportedFileType(ext string, allowed []string) *Error {
	return New(KindUnsupportedFileType, fmt.Sprintf(
		"File type '%s' is not supported. Allowed types: %s",
		ext, strings.Join(allowed, ", ")))
}

// FileTooLarge reports sizes in MB with one decimal.
func FileTooLarge(sizeMB float64, maxMB int) *Error {
	return New(KindFileTooLarge, fmt.Sprintf(
		"File size (%.1f MB) exceeds maximum allowed size (%d MB)", sizeMB, maxMB))
}

// KindOf extracts the kind from any error chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// HTTPStatus maps a domain error to the response status used by the HTTP
// boundary.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnsupportedFileType:
		return http.StatusBadRequest
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindExtractionTimeout, KindExtractionToolMissing, KindExtractionCorrupted,
		KindExtractionFailed, KindTranscription, KindAnalysis, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
