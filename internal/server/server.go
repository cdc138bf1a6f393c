// Package server exposes the analysis pipeline over HTTP: one multipart
// upload endpoint plus health and metadata routes.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/apperr"
	"speech-coach-go/internal/config"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/pipeline"
	"speech-coach-go/internal/validation"
)

type Server struct {
	pipeline *pipeline.Pipeline
	settings *config.Settings
	log      *logger.Logger
}

func New(p *pipeline.Pipeline, settings *config.Settings) *Server {
	return &Server{pipeline: p, settings: settings, log: logger.New()}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "Speech Coach API",
		"version":     "1.0.0",
		"description": "Public-speaking analysis with optional AI review",
		"endpoints": map[string]string{
			"health":  "/healthz",
			"analyze": "/api/v1/analyze",
		},
		"features": map[string]interface{}{
			"speech_metrics":    true,
			"ai_review":         s.settings.GigaChat.Enabled,
			"max_file_size_mb":  s.settings.MaxFileSizeMB,
			"supported_formats": s.settings.AllowedVideoExts,
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		reqLog.WithError(err).Warn("missing file field")
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required", "bad_request")
		return
	}
	defer file.Close()

	reqLog = reqLog.WithField("filename", header.Filename)
	reqLog.Info("analysis request received")

	upload := &validation.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   file,
	}

	result, err := s.pipeline.AnalyzeUpload(r.Context(), upload)
	if err != nil {
		kind := apperr.KindOf(err)
		status := apperr.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			reqLog.WithError(err).WithField("kind", kind.String()).Error("analysis failed")
		} else {
			reqLog.WithField("kind", kind.String()).Warn(err.Error())
		}
		writeError(w, status, err.Error(), kind.String())
		return
	}

	reqLog.Info("analysis completed")
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, status int, detail, errorType string) {
	writeJSON(w, status, map[string]string{
		"detail":     detail,
		"error_type": errorType,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logrus.WithError(err).Error("failed to write response")
	}
}
