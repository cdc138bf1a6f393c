// Package transcriber turns a WAV file into a timed transcript by calling a
// whisper-compatible HTTP service.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/types"
)

// Transcriber is the contract the pipeline consumes.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (types.Transcript, error)
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// HTTPTranscriber posts audio to a whisper-style /v1/audio/transcriptions
// endpoint and expects a verbose_json reply with segment timings.
type HTTPTranscriber struct {
	baseURL string
	model   string
	client  *http.Client
	log     *logrus.Entry
}

func NewHTTPTranscriber(baseURL, model string) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		log:     logger.Component("transcriber"),
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string) (types.Transcript, error) {
	body, contentType, err := t.buildRequestBody(audioPath)
	if err != nil {
		return types.Transcript{}, err
	}

	endpoint := t.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Transcript{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var parsed transcriptionResponse
	if err := t.doJSON(req, body, &parsed); err != nil {
		return types.Transcript{}, err
	}

	tr := types.Transcript{Text: strings.TrimSpace(parsed.Text)}
	for _, s := range parsed.Segments {
		tr.Segments = append(tr.Segments, types.Segment{
			StartSec: s.Start,
			EndSec:   s.End,
			Text:     strings.TrimSpace(s.Text),
		})
	}
	if tr.Text == "" && len(tr.Segments) == 0 {
		return types.Transcript{}, fmt.Errorf("empty transcription result")
	}
	t.log.WithField("segments", len(tr.Segments)).Info("transcription complete")
	return tr, nil
}

func (t *HTTPTranscriber) buildRequestBody(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	w.WriteField("model", t.model)
	w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), w.FormDataContentType(), nil
}

// doJSON retries transient (5xx / network) failures with exponential backoff.
// The request body is re-supplied on each attempt.
func (t *HTTPTranscriber) doJSON(req *http.Request, body []byte, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 60 * time.Second

	var lastErr error
	op := func() error {
		req.Body = io.NopCloser(bytes.NewReader(body))
		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("transcription server error: %s", string(raw))
			return lastErr
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("transcription failed with status %d: %s", resp.StatusCode, string(raw))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(raw, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(raw))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		t.log.WithError(lastErr).Error("transcription request failed")
		return lastErr
	}
	return nil
}
