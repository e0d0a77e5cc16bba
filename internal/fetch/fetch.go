// Package fetch retrieves sanitized text excerpts of harvested profile pages.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-scorer/internal/logger"
)

const (
	// DefaultTimeout bounds each page request.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxChars bounds the excerpt kept per page.
	DefaultMaxChars = 2000
	// DefaultUserAgent identifies the bot to the fetched sites.
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeScoreBot/1.0; +https://resumescore.app)"

	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Options configures the fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxChars  int
}

// Fetcher downloads pages concurrently, isolating failures per URL.
type Fetcher struct {
	client   *resty.Client
	maxChars int
	logger   *zap.Logger
}

// New returns a Fetcher. Zero option values fall back to the package defaults.
func New(opts Options, log *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	log = logger.OrNop(log)

	client := resty.New().
		SetLogger(log.Sugar()).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", acceptHeader).
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	return &Fetcher{
		client:   client,
		maxChars: opts.MaxChars,
		logger:   log,
	}
}

// Fetch downloads every URL concurrently and returns the surviving excerpts,
// each prefixed with its URL in brackets and separated by blank lines.
// Failed URLs contribute nothing.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) string {
	if len(urls) == 0 {
		return ""
	}

	excerpts := make([]string, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			text, err := f.page(ctx, u)
			if err != nil {
				f.logger.Debug("skipping external link", zap.String(logger.FieldURL, u), zap.Error(err))
				return nil
			}
			excerpts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]string, 0, len(urls))
	for i, text := range excerpts {
		if text == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", urls[i], text))
	}

	f.logger.Info("fetched external links", zap.Int("requested", len(urls)), zap.Int("usable", len(blocks)))

	return strings.Join(blocks, "\n\n")
}

func (f *Fetcher) page(ctx context.Context, u string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(u)
	if err != nil {
		return "", &Error{URL: u, Message: "request failed", Cause: err}
	}

	if !resp.IsSuccess() {
		return "", &Error{URL: u, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode())}
	}

	if ct := resp.Header().Get("Content-Type"); !textual(ct) {
		return "", &Error{URL: u, Message: fmt.Sprintf("unsupported content type %q", ct)}
	}

	text, err := ExtractText(resp.String())
	if err != nil {
		return "", &Error{URL: u, Message: "parse html", Cause: err}
	}

	text = truncate(text, f.maxChars)
	if text == "" {
		return "", &Error{URL: u, Message: "no text content"}
	}

	return text, nil
}

// Error describes why a single URL produced no content.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func textual(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.HasPrefix(ct, "text/")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
