package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Settings holds all process configuration, read once at startup and treated
// as read-only afterwards. Bounds are enforced with validator tags.
type Settings struct {
	Port string

	FFmpegPath  string
	FFprobePath string

	TranscriberURL   string `validate:"required"`
	TranscriberModel string

	MaxFileSizeMB    int      `validate:"gt=0,lte=1024"`
	AllowedVideoExts []string `validate:"min=1"`

	ExtractionTimeout time.Duration `validate:"gt=0"`

	BenchmarkDatasetPath string

	GigaChat GigaChatSettings
}

type GigaChatSettings struct {
	Enabled          bool
	APIKey           string
	AuthURL          string
	APIURL           string
	Model            string
	Scope            string
	Timeout          time.Duration `validate:"gt=0"`
	MaxTokens        int           `validate:"gt=0"`
	InsecureFallback bool
}

var defaultVideoExts = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".flv", ".wmv", ".m4v"}

// Load reads settings from the environment. godotenv is expected to have been
// loaded by the caller already.
func Load() (*Settings, error) {
	s := &Settings{
		Port:                 envOr("PORT", "8080"),
		FFmpegPath:           envOr("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:          envOr("FFPROBE_PATH", "ffprobe"),
		TranscriberURL:       envOr("TRANSCRIBER_URL", "http://localhost:9000"),
		TranscriberModel:     envOr("TRANSCRIBER_MODEL", "whisper-1"),
		MaxFileSizeMB:        envInt("MAX_FILE_SIZE_MB", 100),
		AllowedVideoExts:     parseExtensions(os.Getenv("ALLOWED_VIDEO_EXTENSIONS")),
		ExtractionTimeout:    envDuration("EXTRACTION_TIMEOUT_SEC", 300*time.Second),
		BenchmarkDatasetPath: os.Getenv("BENCHMARK_DATASET_PATH"),
		GigaChat: GigaChatSettings{
			Enabled:          envBool("GIGACHAT_ENABLED"),
			APIKey:           os.Getenv("GIGACHAT_API_KEY"),
			AuthURL:          envOr("GIGACHAT_AUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"),
			APIURL:           envOr("GIGACHAT_BASE_URL", "https://gigachat.devices.sberbank.ru/api/v1"),
			Model:            envOr("GIGACHAT_MODEL", "GigaChat"),
			Scope:            envOr("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Timeout:          envDuration("GIGACHAT_TIMEOUT_SEC", 30*time.Second),
			MaxTokens:        envInt("GIGACHAT_MAX_TOKENS", 2000),
			InsecureFallback: envBool("GIGACHAT_INSECURE_FALLBACK"),
		},
	}

	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// parseExtensions accepts either a JSON array (`[".mp4",".mov"]`) or a
// comma-separated list (`mp4, .mov`). Entries are lower-cased and
// dot-prefixed; an empty value yields the defaults.
func parseExtensions(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]string(nil), defaultVideoExts...)
	}

	var parts []string
	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		parts = arr
	} else {
		parts = strings.Split(raw, ",")
	}

	var out []string
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return append([]string(nil), defaultVideoExts...)
	}
	return out
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
