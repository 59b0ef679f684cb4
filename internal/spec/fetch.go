package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ValidationMode controls how kin-openapi validation findings are treated.
type ValidationMode string

const (
	ValidateOff    ValidationMode = "off"
	ValidateWarn   ValidationMode = "warn"
	ValidateStrict ValidationMode = "strict"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs permits external refs to local files when the root
	// document was fetched over HTTP. File refs are always allowed for a
	// local root.
	AllowFileRefs bool
	Validation    ValidationMode
	Logger        zerolog.Logger
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Validation:  ValidateWarn,
		Logger:      zerolog.Nop(),
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithValidation(m ValidationMode) Option { return func(s *Settings) { s.Validation = m } }
func WithLogger(l zerolog.Logger) Option     { return func(s *Settings) { s.Logger = l } }

// isRemote reports whether loc is an http(s) URL.
func isRemote(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil || u.Host == "" {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}

// readLocation returns the bytes behind a resolved location: an http(s) URL
// fetched with retries, or a local file path.
func readLocation(ctx context.Context, loc string, settings Settings) ([]byte, error) {
	if isRemote(loc) {
		raw, err := fetchWithRetry(ctx, loc, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", loc, err), Location: loc, Cause: err}
		}
		return raw, nil
	}
	raw, err := os.ReadFile(loc)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", loc, err), Location: loc, Cause: err}
	}
	return raw, nil
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		settings.Logger.Debug().Str("url", rawURL).Int("attempt", i+1).Dur("backoff", backoff).Err(err).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs a single GET. retry reports whether the failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
