package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseExtensions(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty uses defaults", "", defaultVideoExts},
		{"json array", `[".mp4", ".MOV"]`, []string{".mp4", ".mov"}},
		{"comma separated", "mp4, .mov ,WEBM", []string{".mp4", ".mov", ".webm"}},
		{"blank entries dropped", ",,.mp4,", []string{".mp4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseExtensions(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseExtensions(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxFileSizeMB != 100 {
		t.Errorf("MaxFileSizeMB = %d", s.MaxFileSizeMB)
	}
	if s.ExtractionTimeout != 300*time.Second {
		t.Errorf("ExtractionTimeout = %v", s.ExtractionTimeout)
	}
	if s.GigaChat.Enabled {
		t.Error("gigachat should be disabled by default")
	}
	if s.GigaChat.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d", s.GigaChat.MaxTokens)
	}
	if len(s.AllowedVideoExts) == 0 {
		t.Error("no default extensions")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE_MB", "250")
	t.Setenv("ALLOWED_VIDEO_EXTENSIONS", "mp4,mkv")
	t.Setenv("EXTRACTION_TIMEOUT_SEC", "60")
	t.Setenv("GIGACHAT_ENABLED", "true")
	t.Setenv("GIGACHAT_TIMEOUT_SEC", "15")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxFileSizeMB != 250 {
		t.Errorf("MaxFileSizeMB = %d", s.MaxFileSizeMB)
	}
	if !reflect.DeepEqual(s.AllowedVideoExts, []string{".mp4", ".mkv"}) {
		t.Errorf("AllowedVideoExts = %v", s.AllowedVideoExts)
	}
	if s.ExtractionTimeout != time.Minute {
		t.Errorf("ExtractionTimeout = %v", s.ExtractionTimeout)
	}
	if !s.GigaChat.Enabled {
		t.Error("gigachat should be enabled")
	}
	if s.GigaChat.Timeout != 15*time.Second {
		t.Errorf("gigachat timeout = %v", s.GigaChat.Timeout)
	}
}

func TestLoadRejectsOutOfRangeSize(t *testing.T) {
	for _, v := range []string{"0", "-5", "2048"} {
		t.Setenv("MAX_FILE_SIZE_MB", v)
		if _, err := Load(); err == nil {
			t.Errorf("MAX_FILE_SIZE_MB=%s should fail validation", v)
		}
	}
}
