package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"

	"github.com/nao1215/jobharvest/internal/model"
	"github.com/nao1215/jobharvest/internal/politeness"
	"github.com/nao1215/jobharvest/internal/session"
)

// DefaultRetryBackoff is the pause before the first retry of a transient
// failure. Later retries wait proportionally longer.
const DefaultRetryBackoff = 250 * time.Millisecond

// Fetcher retrieves a page for the crawler.
type Fetcher interface {
	Fetch(ctx context.Context, req model.CrawlRequest) (*Result, error)
}

// Gate paces requests and learns from their outcome.
// *politeness.Controller implements it.
type Gate interface {
	Before(ctx context.Context) error
	After(ctx context.Context, status int) (politeness.Outcome, error)
}

// Sessions hands out outbound identities. *session.Pool implements it.
type Sessions interface {
	Checkout(ctx context.Context) (*session.Session, error)
	Return(s *session.Session)
	Retire(s *session.Session)
}

// Observer receives per-request measurements. *model.RunStats implements it.
type Observer interface {
	IncBlocked()
	ObserveRequestTime(d time.Duration)
}

// Result is a fetched and parsed page.
type Result struct {
	// Page is the raw response.
	Page *model.Page

	// Document is the parsed HTML.
	Document *goquery.Document

	// Attempts is the number of requests sent, including the successful one.
	Attempts int

	// Blocked is the number of attempts that got a blocking response.
	Blocked int
}

// HTTPFetcher implements Fetcher on top of a session pool and a politeness
// gate.
type HTTPFetcher struct {
	sessions     Sessions
	gate         Gate
	observer     Observer
	logger       *slog.Logger
	maxRetries   int
	retryBackoff time.Duration
	maxBodyBytes int64
	headers      map[string]string
	sleep        func(ctx context.Context, d time.Duration) error
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the pause before the first retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d >= 0 {
			f.retryBackoff = d
		}
	}
}

// WithMaxBodyBytes sets the response body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// WithHeaders adds headers that override the browser defaults.
func WithHeaders(h map[string]string) Option {
	return func(f *HTTPFetcher) {
		for k, v := range h {
			f.headers[k] = v
		}
	}
}

// WithObserver reports blocked responses and request times.
func WithObserver(o Observer) Option {
	return func(f *HTTPFetcher) {
		f.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates an HTTPFetcher. A nil gate sends requests without pacing.
func New(sessions Sessions, gate Gate, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		sessions:     sessions,
		gate:         gate,
		logger:       slog.Default(),
		maxRetries:   2,
		retryBackoff: DefaultRetryBackoff,
		maxBodyBytes: model.MaxPageSize,
		headers:      make(map[string]string),
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads req.URL and parses it. It returns a *StatusError without
// retrying for 4xx responses other than blocking ones, and
// ErrRetriesExhausted wrapping the last failure when the retry budget is
// spent. Context cancellation is returned as is.
func (f *HTTPFetcher) Fetch(ctx context.Context, req model.CrawlRequest) (*Result, error) {
	result := &Result{}
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 && f.retryBackoff > 0 {
			if err := f.sleep(ctx, time.Duration(attempt)*f.retryBackoff); err != nil {
				return nil, err
			}
		}

		page, retry, err := f.attempt(ctx, req, result)
		if err == nil {
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Raw))
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", req.URL, err)
			}
			result.Page = page
			result.Document = doc
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		f.logger.Debug("retrying request",
			"url", req.URL,
			"kind", req.Kind.String(),
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, req.URL, result.Attempts, lastErr)
}

// attempt sends one request with one session. It reports whether a failure
// may be retried.
func (f *HTTPFetcher) attempt(ctx context.Context, req model.CrawlRequest, result *Result) (*model.Page, bool, error) {
	s, err := f.sessions.Checkout(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("checkout session: %w", err)
	}
	defer f.sessions.Return(s)

	if f.gate != nil {
		if err := f.gate.Before(ctx); err != nil {
			return nil, false, err
		}
	}

	result.Attempts++
	s.MarkUsed()
	page, err := f.do(ctx, s, req)
	if err != nil {
		// The proxy behind this session may be the problem.
		f.sessions.Retire(s)
		return nil, !errors.Is(err, ErrBodyTooLarge), err
	}

	outcome := politeness.Classify(page.StatusCode)
	var gateErr error
	if f.gate != nil {
		outcome, gateErr = f.gate.After(ctx, page.StatusCode)
	}
	if outcome == politeness.Blocked {
		result.Blocked++
		f.sessions.Retire(s)
		if f.observer != nil {
			f.observer.IncBlocked()
		}
	}
	if gateErr != nil {
		return nil, false, gateErr
	}

	switch {
	case outcome == politeness.Blocked,
		page.StatusCode >= http.StatusInternalServerError:
		return nil, true, &StatusError{URL: req.URL, StatusCode: page.StatusCode}
	case page.StatusCode < 200 || page.StatusCode >= 300:
		return nil, false, &StatusError{URL: req.URL, StatusCode: page.StatusCode}
	case !page.IsHTML():
		return nil, false, fmt.Errorf("%w: %s (%s)", ErrNotHTML, req.URL, page.ContentType)
	}
	return page, false, nil
}

// do performs the HTTP round trip and reads the body.
func (f *HTTPFetcher) do(ctx context.Context, s *session.Session, req model.CrawlRequest) (*model.Page, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setHeaders(httpReq.Header, s.Identity(), req.Kind, f.headers)

	start := time.Now()
	resp, err := s.Client().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http fetch failed: %w", err)
	}

	body, err := f.readBody(resp)
	latency := time.Since(start)
	if f.observer != nil {
		f.observer.ObserveRequestTime(latency)
	}
	if err != nil {
		return nil, err
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page := &model.Page{
		URL:         req.URL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         body,
	}
	return page, nil
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("%w of %d bytes", ErrBodyTooLarge, f.maxBodyBytes)
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
