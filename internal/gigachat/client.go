// Package gigachat implements the resilient client for the GigaChat API:
// cached bearer-token authentication, rate-limit recovery, the opt-in TLS
// verification fallback and tolerant parsing of model replies.
package gigachat

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speech-coach-go/internal/config"
	"speech-coach-go/internal/logger"
)

// ErrRateLimited marks authentication rejected with 429 twice in a row, so
// throttling can be told apart from genuine auth faults in logs.
var ErrRateLimited = errors.New("gigachat rate limit exceeded")

// tokenExpirySlack re-authenticates this long before the reported expiry.
const tokenExpirySlack = 60 * time.Second

type Client struct {
	cfg config.GigaChatSettings
	log *logrus.Entry

	// authBackoff is the fixed wait before the single 429 retry.
	authBackoff time.Duration

	// mu guards the transport swap during the TLS fallback; a torn
	// http.Client write, unlike a duplicate token, is not harmless.
	mu        sync.Mutex
	http      *http.Client
	verifyTLS bool

	token          string
	tokenExpiresAt time.Time

	now func() time.Time
}

func New(cfg config.GigaChatSettings) *Client {
	return &Client{
		cfg:         cfg,
		log:         logger.Component("gigachat"),
		authBackoff: 30 * time.Second,
		http:        &http.Client{Timeout: cfg.Timeout},
		verifyTLS:   true,
		now:         time.Now,
	}
}

// Close releases held network resources. Called once at process shutdown.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.http.CloseIdleConnections()
}

func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.http
}

// disableTLSVerification permanently downgrades the client's transport. One
// way only; logged as a security-relevant event.
func (c *Client) disableTLSVerification() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.verifyTLS {
		return
	}
	c.log.Warn("disabling TLS certificate verification for the remainder of this process; this is insecure")
	c.http.CloseIdleConnections()
	c.http = &http.Client{
		Timeout: c.cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- explicit operator opt-in
		},
	}
	c.verifyTLS = false
}

func (c *Client) tlsVerifying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyTLS
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Authenticate obtains a bearer token, reusing the cached one while it is
// more than 60 seconds from expiry. Concurrent callers may both re-auth; a
// duplicate valid token is harmless, so no serialization is attempted.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("gigachat api key not configured")
	}
	if c.token != "" && c.now().Before(c.tokenExpiresAt.Add(-tokenExpirySlack)) {
		c.log.Debug("using cached access token")
		return nil
	}

	resp, body, err := c.postAuthForm(ctx)
	if err != nil {
		if c.cfg.InsecureFallback && c.tlsVerifying() && isTLSError(err) {
			c.log.WithError(err).Warn("TLS verification failed, retrying with verification disabled")
			c.disableTLSVerification()
			resp, body, err = c.postAuthForm(ctx)
		}
		if err != nil {
			return fmt.Errorf("authentication request failed: %w", err)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.WithField("backoff_sec", c.authBackoff.Seconds()).
			Warn("gigachat auth rate limited (429), waiting before single retry")
		select {
		case <-time.After(c.authBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		resp, body, err = c.postAuthForm(ctx)
		if err != nil {
			return fmt.Errorf("authentication retry failed: %w", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return ErrRateLimited
		}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authentication failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	if auth.AccessToken == "" {
		return fmt.Errorf("no access_token in auth response")
	}

	c.token = auth.AccessToken
	c.tokenExpiresAt = time.Unix(auth.ExpiresAt, 0)
	c.log.Info("gigachat authentication successful")
	return nil
}

// postAuthForm issues one Basic-authorized form request with a fresh
// correlation id. The response body is fully read and returned.
func (c *Client) postAuthForm(ctx context.Context) (*http.Response, []byte, error) {
	form := url.Values{"scope": {c.cfg.Scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+c.cfg.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

// isTLSError recognizes the connection-failure signature of certificate
// verification problems.
func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "x509:") || strings.Contains(msg, "tls:")
}
