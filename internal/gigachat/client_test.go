package gigachat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"speech-coach-go/internal/config"
)

func testClient(authURL, apiURL string) *Client {
	c := New(config.GigaChatSettings{
		Enabled:   true,
		APIKey:    "dGVzdDp0ZXN0",
		AuthURL:   authURL,
		APIURL:    apiURL,
		Model:     "GigaChat",
		Scope:     "GIGACHAT_API_PERS",
		Timeout:   5 * time.Second,
		MaxTokens: 256,
	})
	c.authBackoff = 5 * time.Millisecond
	return c
}

func authHandler(calls *atomic.Int32, expiresIn time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"access_token": "tok-%d", "expires_at": %d}`,
			calls.Load(), time.Now().Add(expiresIn).Unix())
	}
}

func TestAuthenticateSendsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Basic dGVzdDp0ZXN0" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("RqUID") == "" {
			t.Error("missing RqUID correlation id")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("scope"); got != "GIGACHAT_API_PERS" {
			t.Errorf("scope = %q", got)
		}
		fmt.Fprintf(w, `{"access_token": "tok", "expires_at": %d}`, time.Now().Add(time.Hour).Unix())
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if c.token != "tok" {
		t.Errorf("token = %q", c.token)
	}
}

func TestAuthenticateReusesCachedToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(authHandler(&calls, time.Hour))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	for i := 0; i < 3; i++ {
		if err := c.Authenticate(context.Background()); err != nil {
			t.Fatalf("Authenticate #%d: %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("auth requests = %d, token should be cached", calls.Load())
	}
}

func TestAuthenticateRefreshesNearExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(authHandler(&calls, 30*time.Second)) // inside the 60s slack
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("auth requests = %d, near-expiry token must be refreshed", calls.Load())
	}
}

func TestAuthenticateRetriesAfter429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"access_token": "tok", "expires_at": %d}`, time.Now().Add(time.Hour).Unix())
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate should survive a single 429: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("auth requests = %d, want 2", calls.Load())
	}
}

func TestAuthenticateRateLimitedTwice(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	err := c.Authenticate(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("auth requests = %d, exactly one retry allowed", calls.Load())
	}
}

func TestAuthenticateNon200CarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "credentials rejected", http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	err := c.Authenticate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "credentials rejected") {
		t.Fatalf("error should carry status and body: %v", err)
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"expires_at": 9999999999}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	if err := c.Authenticate(context.Background()); err == nil {
		t.Fatal("200 without access_token must fail")
	}
}

func TestAuthenticateWithoutAPIKey(t *testing.T) {
	c := New(config.GigaChatSettings{Enabled: true, Timeout: time.Second})
	if err := c.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestTLSFallbackRequiresOptIn(t *testing.T) {
	// self-signed TLS server; client verifies by default and must fail
	srv := httptest.NewTLSServer(authHandler(&atomic.Int32{}, time.Hour))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	if err := c.Authenticate(context.Background()); err == nil {
		t.Fatal("expected TLS verification failure without the fallback opt-in")
	}
	if !c.tlsVerifying() {
		t.Fatal("verification must stay enabled without the opt-in")
	}
}

func TestTLSFallbackDowngradesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewTLSServer(authHandler(&calls, time.Hour))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	c.cfg.InsecureFallback = true

	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("fallback should recover from the self-signed certificate: %v", err)
	}
	if c.tlsVerifying() {
		t.Fatal("client should be permanently downgraded after the fallback")
	}
	if calls.Load() != 1 {
		t.Fatalf("server calls = %d, want 1 (first attempt never reached the handler)", calls.Load())
	}
}

func TestIsTLSError(t *testing.T) {
	if !isTLSError(errors.New(`Get "https://x": tls: failed to verify certificate: x509: certificate signed by unknown authority`)) {
		t.Error("x509 failure not recognized")
	}
	if isTLSError(errors.New("connection refused")) {
		t.Error("plain network failure misclassified as TLS")
	}
}
