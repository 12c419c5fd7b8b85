package frontier

import (
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/antigloss/go/concurrent/container/queue"

	"github.com/nao1215/jobharvest/internal/model"
)

// Frontier is a deduplicating FIFO of crawl requests. It is safe for
// concurrent use.
type Frontier struct {
	queue *queue.LockfreeQueue
	size  atomic.Int64

	mu   sync.Mutex
	seen map[string]bool
}

// New returns an empty Frontier.
func New() *Frontier {
	return &Frontier{
		queue: queue.NewLockfreeQueue(),
		seen:  make(map[string]bool),
	}
}

// Enqueue appends req unless its normalized URL was enqueued before. It
// reports whether the request was added. Requests with unparsable URLs are
// dropped.
func (f *Frontier) Enqueue(req model.CrawlRequest) bool {
	key, ok := NormalizeURL(req.URL)
	if !ok {
		return false
	}

	f.mu.Lock()
	if f.seen[key] {
		f.mu.Unlock()
		return false
	}
	f.seen[key] = true
	f.mu.Unlock()

	req.URL = key
	f.size.Add(1)
	f.queue.Push(req)
	return true
}

// Dequeue removes and returns the oldest request. It returns false when the
// frontier is empty.
func (f *Frontier) Dequeue() (model.CrawlRequest, bool) {
	v := f.queue.Pop()
	if v == nil {
		return model.CrawlRequest{}, false
	}
	f.size.Add(-1)
	return v.(model.CrawlRequest), true //nolint:forcetypeassert // only CrawlRequest values are pushed
}

// Seed enqueues the URLs as LIST requests on page 1 and returns how many
// were added.
func (f *Frontier) Seed(urls []string) int {
	added := 0
	for _, u := range urls {
		if f.Enqueue(model.NewListRequest(u, 1)) {
			added++
		}
	}
	return added
}

// Len returns the number of pending requests.
func (f *Frontier) Len() int {
	return int(f.size.Load())
}

// Seen returns the number of distinct URLs ever enqueued.
func (f *Frontier) Seen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// NormalizeURL returns the deduplication key of an absolute http(s) URL:
// scheme and host are lower-cased, the fragment is dropped and an empty
// path becomes "/". It reports false for relative or non-HTTP URLs.
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), true
}
