package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Rotator hands out proxy URLs round-robin. A Rotator without URLs returns
// nil from Next, meaning a direct connection.
type Rotator struct {
	mu   sync.Mutex
	urls []*url.URL
	next int
}

// NewRotator parses and validates the proxy URLs. Blank entries are skipped.
func NewRotator(rawURLs []string) (*Rotator, error) {
	r := &Rotator{}
	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := ParseURL(raw)
		if err != nil {
			return nil, err
		}
		r.urls = append(r.urls, u)
	}
	return r, nil
}

// ParseURL parses a proxy URL and checks its scheme and host.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyURL, raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

// Next returns the next proxy URL, or nil when no proxies are configured.
func (r *Rotator) Next() *url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.urls) == 0 {
		return nil
	}
	u := r.urls[r.next%len(r.urls)]
	r.next++
	return u
}

// Len returns the number of configured proxies.
func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.urls)
}
