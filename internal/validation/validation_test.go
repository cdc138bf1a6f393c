package validation

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"speech-coach-go/internal/apperr"
)

var allowed = []string{".mp4", ".mov", ".mkv"}

func TestExtensionValidation(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		wantKind apperr.Kind
	}{
		{"allowed", "speech.mp4", apperr.KindUnknown},
		{"allowed uppercase", "SPEECH.MP4", apperr.KindUnknown},
		{"disallowed", "notes.txt", apperr.KindUnsupportedFileType},
		{"no extension", "video", apperr.KindUnsupportedFileType},
		{"empty filename", "", apperr.KindUnsupportedFileType},
	}
	v := New(allowed, 100)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &Upload{Filename: tc.filename, Size: 10, Reader: strings.NewReader("x")}
			err := v.Validate(u)
			if tc.wantKind == apperr.KindUnknown {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if apperr.KindOf(err) != tc.wantKind {
				t.Fatalf("kind = %v, want %v (err=%v)", apperr.KindOf(err), tc.wantKind, err)
			}
		})
	}
}

func TestUnsupportedExtensionNamesIt(t *testing.T) {
	v := New(allowed, 100)
	err := v.Validate(&Upload{Filename: "notes.txt", Size: 1, Reader: strings.NewReader("x")})
	if err == nil || !strings.Contains(err.Error(), "'.txt'") {
		t.Fatalf("error should name .txt: %v", err)
	}
}

func TestDeclaredSizeLimit(t *testing.T) {
	v := New(allowed, 100)

	u := &Upload{Filename: "ok.mp4", Size: 100 * 1024 * 1024, Reader: strings.NewReader("")}
	if err := v.Validate(u); err != nil {
		t.Fatalf("size at limit should pass: %v", err)
	}

	u = &Upload{Filename: "huge.mp4", Size: 150 * 1024 * 1024, Reader: strings.NewReader("")}
	err := v.Validate(u)
	if apperr.KindOf(err) != apperr.KindFileTooLarge {
		t.Fatalf("kind = %v, want KindFileTooLarge", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "150.0 MB") || !strings.Contains(err.Error(), "(100 MB)") {
		t.Fatalf("message should report sizes: %v", err)
	}
}

func TestSizeViaSeekRestoresPosition(t *testing.T) {
	v := New(allowed, 1)
	content := bytes.Repeat([]byte("a"), 2048)
	r := bytes.NewReader(content)

	u := &Upload{Filename: "clip.mp4", Size: -1, Reader: r}
	if err := v.Validate(u); err != nil {
		t.Fatalf("2 KB under a 1 MB limit should pass: %v", err)
	}

	got, err := io.ReadAll(u.Reader)
	if err != nil {
		t.Fatalf("read after validation: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("reader position not restored: got %d bytes, want %d", len(got), len(content))
	}
}

func TestSizeViaSeekRejectsOversize(t *testing.T) {
	v := New(allowed, 1)
	r := bytes.NewReader(bytes.Repeat([]byte("a"), 2*1024*1024))
	err := v.Validate(&Upload{Filename: "clip.mp4", Size: -1, Reader: r})
	if apperr.KindOf(err) != apperr.KindFileTooLarge {
		t.Fatalf("kind = %v, want KindFileTooLarge", apperr.KindOf(err))
	}
}

// nonSeeker hides the Seek method so the full-read fallback kicks in.
type nonSeeker struct{ io.Reader }

func TestFullReadFallbackPreservesStream(t *testing.T) {
	v := New(allowed, 1)
	content := []byte("tiny video body")

	u := &Upload{Filename: "clip.mp4", Size: -1, Reader: nonSeeker{bytes.NewReader(content)}}
	if err := v.Validate(u); err != nil {
		t.Fatalf("validate: %v", err)
	}

	got, err := io.ReadAll(u.Reader)
	if err != nil {
		t.Fatalf("read after validation: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("downstream stream corrupted: %q", got)
	}
}

// brokenReader fails partway so size cannot be determined at all.
type brokenReader struct{ n int }

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.n == 0 {
		r.n++
		copy(p, "part")
		return 4, nil
	}
	return 0, errors.New("stream reset")
}

func TestUndeterminableSizeSkipsCheck(t *testing.T) {
	v := New(allowed, 1)
	u := &Upload{Filename: "clip.mp4", Size: -1, Reader: &brokenReader{}}
	if err := v.Validate(u); err != nil {
		t.Fatalf("size failure must not fail validation: %v", err)
	}

	// extension check still applies
	u = &Upload{Filename: "clip.txt", Size: -1, Reader: &brokenReader{}}
	if apperr.KindOf(v.Validate(u)) != apperr.KindUnsupportedFileType {
		t.Fatal("extension check skipped")
	}
}
