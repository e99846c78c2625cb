// Package httputil provides a hardened HTTP client, bounded request helpers
// and input sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout keeps every upstream call under the 10s ceiling of the
// hosting platform.
const DefaultTimeout = 8500 * time.Millisecond

// maxBody caps how much of any upstream response is read.
const maxBody = 10 * 1024 * 1024

// Browser identities sent upstream.
const (
	DesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"
	AndroidUA = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Mobile Safari/537.36"
	IPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
)

// ErrTimeout marks a request that ran past its deadline.
var ErrTimeout = errors.New("request timed out")

// HTTPStatusError is returned when an upstream answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// NewClient creates a hardened HTTP client with secure defaults.
// A zero timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// WithSession returns a copy of c with its own cookie jar, so cookies set
// during one scraping session never leak into another.
func WithSession(c *http.Client) *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return c
	}
	session := *c
	session.Jar = jar
	return &session
}

// Get performs a GET request with browser-like headers and returns the body.
func Get(ctx context.Context, c *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return do(c, req, header)
}

// PostForm submits form as application/x-www-form-urlencoded and returns the body.
func PostForm(ctx context.Context, c *http.Client, rawURL string, form url.Values, header http.Header) ([]byte, error) {
	req, err := newRequest(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "*/*")
	return do(c, req, header)
}

// GetJSON performs a GET request and decodes the JSON body into v.
func GetJSON(ctx context.Context, c *http.Client, rawURL string, header http.Header, v any) error {
	req, err := newRequest(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	body, err := do(c, req, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", rawURL, err)
	}
	return nil
}

// Open performs a GET request and returns the unread body for streaming.
// Unlike Get, the body is not size-capped; the caller must close it.
func Open(ctx context.Context, c *http.Client, rawURL string, header http.Header) (io.ReadCloser, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &HTTPStatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// ResolveRedirect follows the redirects of a short link and returns the
// final URL. Any failure returns rawURL unchanged.
func ResolveRedirect(ctx context.Context, c *http.Client, rawURL string) (string, error) {
	req, err := newRequest(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return rawURL, err
	}
	req.Header.Set("User-Agent", IPhoneUA)

	resp, err := c.Do(req)
	if err != nil {
		return rawURL, classify(err)
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return rawURL, nil
	}
	return resp.Request.URL.String(), nil
}

// IsTimeout reports whether err came from an exceeded deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", DesktopUA)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	return req, nil
}

func do(c *http.Client, req *http.Request, header http.Header) ([]byte, error) {
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, classify(fmt.Errorf("reading response: %w", err))
	}
	return body, nil
}

func classify(err error) error {
	if IsTimeout(err) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}
