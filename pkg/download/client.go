package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/auth"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Client is an HTTP fetch client bound to a single repository base URL.
// There are no retries; a failed transfer fails the calling install.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	auth      auth.Authenticator
	progress  ProgressFunc
}

// Option configures a Client.
type Option func(*Client)

// WithAuthenticator applies credentials to every request.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) { c.progress = fn }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a fetch client for baseURL. A missing trailing slash is added.
func NewClient(baseURL string, timeout time.Duration, userAgent string, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if userAgent == "" {
		userAgent = fsutil.AppName
	}
	c := &Client{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URLFor returns the remote location of relativeName.
func (c *Client) URLFor(relativeName string) string {
	return c.baseURL + url.PathEscape(relativeName)
}

// Fetch downloads relativeName into destDir. The body is written to a temporary file that
// replaces destDir/relativeName only after the transfer completed.
func (c *Client) Fetch(ctx context.Context, relativeName, destDir string) (string, error) {
	if !fsutil.IsPlainName(relativeName) {
		return "", fmt.Errorf("%w: invalid file name %q", errutils.ErrFetchFailed, relativeName)
	}

	target := c.URLFor(relativeName)
	logger.Debug("Fetching", logger.Fields{"url": target, "dest": destDir})

	resp, err := c.doRequest(ctx, target)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	absPath := filepath.Join(destDir, relativeName)
	tmpPath, err := c.writeBodyToTemp(resp, relativeName, absPath)
	if err != nil {
		return "", err
	}
	if err := finalizeFile(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return absPath, nil
}

func (c *Client) doRequest(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", errutils.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != nil {
		if err := c.auth.Apply(req); err != nil {
			return nil, fmt.Errorf("%w: %w", errutils.ErrFetchFailed, err)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errutils.ErrFetchFailed, target, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: unexpected status code: %d", errutils.ErrFetchFailed, target, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) writeBodyToTemp(resp *http.Response, name, absPath string) (string, error) {
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return "", fmt.Errorf("%w: could not create %s: %v", errutils.ErrWriteFailed, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".dl-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: could not create temp file in %s: %v", errutils.ErrWriteFailed, dir, err)
	}
	tmpPath := tmp.Name()
	fail := func(format string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: "+format, errutils.ErrWriteFailed, err)
	}

	body := &progressReader{r: resp.Body, name: name, total: resp.ContentLength, fn: c.progress}
	if _, err := io.Copy(tmp, body); err != nil {
		// A broken body is a transport failure, not a local one.
		var rerr *readError
		if errors.As(err, &rerr) {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("%w: reading body of %s: %w", errutils.ErrFetchFailed, name, rerr.err)
		}
		return fail("could not write file: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("could not sync file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: could not close file: %v", errutils.ErrWriteFailed, err)
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Rename(tmpPath, absPath); err != nil {
		return fmt.Errorf("%w: could not finalize %s: %v", errutils.ErrWriteFailed, absPath, err)
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("%w: could not set permissions on %s: %v", errutils.ErrWriteFailed, absPath, err)
	}
	return nil
}
