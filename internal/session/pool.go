package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/jobharvest/internal/proxy"
)

// ErrPoolClosed is returned by Checkout after Close.
var ErrPoolClosed = errors.New("session pool is closed")

// Session is one outbound identity. It is owned by a single worker between
// Checkout and Return.
type Session struct {
	id       int64
	client   *http.Client
	proxyURL *url.URL

	identityOnce sync.Once
	identity     Identity
	pick         func(n int) int

	usage   int
	retired atomic.Bool
}

// ID returns the session's sequence number within its pool.
func (s *Session) ID() int64 {
	return s.id
}

// Client returns the HTTP client bound to the session's proxy and cookie jar.
func (s *Session) Client() *http.Client {
	return s.client
}

// ProxyURL returns the proxy the session routes through, or nil for direct.
func (s *Session) ProxyURL() *url.URL {
	return s.proxyURL
}

// Identity returns the session's fingerprint, choosing it on first use.
func (s *Session) Identity() Identity {
	s.identityOnce.Do(func() {
		s.identity = Identity{
			UserAgent:      UserAgents[s.pick(len(UserAgents))],
			AcceptLanguage: AcceptLanguages[s.pick(len(AcceptLanguages))],
		}
	})
	return s.identity
}

// MarkUsed records one request served by the session.
func (s *Session) MarkUsed() {
	s.usage++
}

// Usage returns the number of requests served.
func (s *Session) Usage() int {
	return s.usage
}

// Retired reports whether the session was retired.
func (s *Session) Retired() bool {
	return s.retired.Load()
}

// Pool hands out sessions. It keeps at most MaxPoolSize sessions alive and
// replaces sessions that are retired or have served MaxUsageCount requests.
type Pool struct {
	maxSize  int
	maxUsage int
	timeout  time.Duration
	rotator  *proxy.Rotator

	// slots bounds the number of live sessions; a token is held for every
	// checked-out session.
	slots chan struct{}

	mu      sync.Mutex
	idle    []*Session
	closed  bool
	rng     *rand.Rand
	nextID  int64
	created atomic.Int64
	retired atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxPoolSize sets the maximum number of live sessions.
func WithMaxPoolSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxSize = n
		}
	}
}

// WithMaxUsageCount sets how many requests a session serves before it is
// replaced.
func WithMaxUsageCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxUsage = n
		}
	}
}

// WithTimeout sets the HTTP client timeout of new sessions.
func WithTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRotator sets the proxy source for new sessions.
func WithRotator(r *proxy.Rotator) Option {
	return func(p *Pool) {
		if r != nil {
			p.rotator = r
		}
	}
}

// WithSeed makes identity selection deterministic.
func WithSeed(seed uint64) Option {
	return func(p *Pool) {
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // fingerprint choice is not security sensitive
	}
}

// NewPool creates a session pool. Defaults follow the datacenter profile.
func NewPool(opts ...Option) *Pool {
	dc := proxy.ProfileFor(proxy.Datacenter)
	p := &Pool{
		maxSize:  dc.MaxPoolSize,
		maxUsage: dc.MaxUsageCount,
		timeout:  dc.HandlerTimeout,
		rotator:  &proxy.Rotator{},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // fingerprint choice is not security sensitive
	}
	for _, opt := range opts {
		opt(p)
	}
	p.slots = make(chan struct{}, p.maxSize)
	return p
}

// NewPoolForProfile creates a pool sized for a proxy class.
func NewPoolForProfile(profile proxy.Profile, rotator *proxy.Rotator, opts ...Option) *Pool {
	base := []Option{
		WithMaxPoolSize(profile.MaxPoolSize),
		WithMaxUsageCount(profile.MaxUsageCount),
		WithTimeout(profile.HandlerTimeout),
		WithRotator(rotator),
	}
	return NewPool(append(base, opts...)...)
}

// Checkout returns an idle session, or a new one when none is idle. It
// blocks while MaxPoolSize sessions are checked out.
func (p *Pool) Checkout(ctx context.Context) (*Session, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return s, nil
	}
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	s, err := p.newSession(id)
	if err != nil {
		<-p.slots
		return nil, err
	}
	return s, nil
}

func (p *Pool) newSession(id int64) (*Session, error) {
	proxyURL := p.rotator.Next()
	client, err := proxy.NewHTTPClient(proxyURL, p.timeout)
	if err != nil {
		return nil, err
	}
	p.created.Add(1)
	return &Session{
		id:       id,
		client:   client,
		proxyURL: proxyURL,
		pick:     p.intN,
	}, nil
}

func (p *Pool) intN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// Return gives a session back to the pool. Retired or exhausted sessions are
// discarded so that the next checkout issues a fresh one.
func (p *Pool) Return(s *Session) {
	if s == nil {
		return
	}
	defer func() { <-p.slots }()

	if s.Retired() || s.usage >= p.maxUsage {
		discard(s)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		discard(s)
		return
	}
	p.idle = append(p.idle, s)
}

// Retire marks the session unusable. Its identity is never handed out again.
// The caller still returns the session to release its slot.
func (p *Pool) Retire(s *Session) {
	if s == nil {
		return
	}
	if s.retired.CompareAndSwap(false, true) {
		p.retired.Add(1)
	}
}

// Stats returns the number of sessions created and retired so far.
func (p *Pool) Stats() (created, retired int64) {
	return p.created.Load(), p.retired.Load()
}

// Close discards idle sessions. Checked-out sessions are discarded on return.
func (p *Pool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	for _, s := range idle {
		discard(s)
	}
}

func discard(s *Session) {
	s.client.CloseIdleConnections()
}
