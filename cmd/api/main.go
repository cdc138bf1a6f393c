package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"speech-coach-go/internal/analyzer"
	"speech-coach-go/internal/artifact"
	"speech-coach-go/internal/config"
	"speech-coach-go/internal/dataset"
	"speech-coach-go/internal/ffmpeg"
	"speech-coach-go/internal/gigachat"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/pipeline"
	"speech-coach-go/internal/server"
	"speech-coach-go/internal/transcriber"
	"speech-coach-go/internal/validation"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "speech-coach").Info("starting service")

	settings, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	// Optional reference dataset; the service runs unbenchmarked without it.
	var benchmark *dataset.BenchmarkSummary
	if settings.BenchmarkDatasetPath != "" {
		benchmark, err = dataset.LoadBenchmark(settings.BenchmarkDatasetPath)
		if err != nil {
			log.WithError(err).Warn("benchmark dataset unavailable, continuing without it")
			benchmark = nil
		}
	}

	extractor := ffmpeg.NewExtractor(settings.FFmpegPath, settings.FFprobePath)

	var reviewer pipeline.Reviewer
	var aiClient *gigachat.Client
	if settings.GigaChat.Enabled && settings.GigaChat.APIKey != "" {
		aiClient = gigachat.New(settings.GigaChat)
		reviewer = aiClient
		log.Info("gigachat client initialized")

		// warm the token cache; failure here is not fatal
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), settings.GigaChat.Timeout)
			defer cancel()
			if err := aiClient.Authenticate(ctx); err != nil {
				logger.Component("gigachat").WithError(err).Warn("pre-authentication failed")
			}
		}()
	} else {
		log.Info("gigachat disabled, AI review will not be available")
	}

	p := pipeline.New(
		validation.New(settings.AllowedVideoExts, settings.MaxFileSizeMB),
		artifact.NewStore(""),
		extractor,
		transcriber.NewHTTPTranscriber(settings.TranscriberURL, settings.TranscriberModel),
		analyzer.New(extractor, benchmark),
		reviewer,
		settings.ExtractionTimeout,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", settings.Port),
		Handler:      server.New(p, settings).Routes(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
	if aiClient != nil {
		aiClient.Close()
	}
	log.Info("bye")
}
