package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/extract"
	"github.com/nao1215/jobharvest/internal/fetcher"
	"github.com/nao1215/jobharvest/internal/frontier"
	"github.com/nao1215/jobharvest/internal/model"
	"github.com/nao1215/jobharvest/internal/sink"
	"github.com/nao1215/jobharvest/internal/state"
)

// StopReason tells why a run ended.
type StopReason string

// Stop reasons.
const (
	StopQuotaMet       StopReason = "quota_met"
	StopFrontierEmpty  StopReason = "frontier_exhausted"
	StopRequestCeiling StopReason = "request_ceiling"
	StopCancelled      StopReason = "cancelled"
)

// ErrNoSeeds is returned when none of the seed URLs could be enqueued.
var ErrNoSeeds = errors.New("no valid seed URL")

// Result summarizes a finished run.
type Result struct {
	// State is the snapshot persisted at the end of the run.
	State model.RunState `json:"state"`

	// Reason is why the run stopped.
	Reason StopReason `json:"reason"`

	// ResumedFrom is the saved count loaded at start.
	ResumedFrom int64 `json:"resumed_from"`

	// Wanted is the number of records the run aimed for.
	Wanted int64 `json:"wanted"`
}

// Politeness is the shared backoff state saved with the run state and
// restored from it on resume. *politeness.Controller implements it.
type Politeness interface {
	Snapshot() model.PolitenessState
	Restore(model.PolitenessState)
}

// Crawler coordinates the frontier, fetcher, extractor, sink and state store
// for one run. A Crawler is not reusable.
type Crawler struct {
	seeds     []string
	fetcher   fetcher.Fetcher
	sink      sink.Sink
	store     state.Store
	gate      Politeness
	extractor *extract.Extractor
	frontier  *frontier.Frontier
	quota     *frontier.Quota
	stats     *model.RunStats
	scaler    *Scaler
	logger    *slog.Logger
	now       func() time.Time

	runID           string
	wanted          int64
	maxPages        int
	ceiling         int64
	collectDetails  bool
	discipline      string
	resume          bool
	shutdownTimeout time.Duration

	inFlight atomic.Int64
	wake     chan struct{}
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithQuota sets the wanted number of records and the highest LIST page.
func WithQuota(wanted int64, maxPages int) Option {
	return func(c *Crawler) {
		c.wanted = wanted
		c.maxPages = maxPages
	}
}

// WithRequestCeiling caps the number of requests dispatched in the run.
func WithRequestCeiling(n int64) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.ceiling = n
		}
	}
}

// WithCollectDetails toggles DETAIL crawling. When off, LIST pages push URL
// stubs instead.
func WithCollectDetails(on bool) Option {
	return func(c *Crawler) {
		c.collectDetails = on
	}
}

// WithDiscipline sets the discipline copied into every posting.
func WithDiscipline(d string) Option {
	return func(c *Crawler) {
		c.discipline = d
	}
}

// WithStateStore loads the saved count and backoff state from store at start
// and saves the run state to it at the end.
func WithStateStore(s state.Store) Option {
	return func(c *Crawler) {
		c.store = s
	}
}

// WithResume controls whether the saved count is pre-seeded from the state
// store. The state is saved either way.
func WithResume(on bool) Option {
	return func(c *Crawler) {
		c.resume = on
	}
}

// WithPoliteness sets the backoff state that is saved at the end of the run
// and restored from the saved state when resuming.
func WithPoliteness(p Politeness) Option {
	return func(c *Crawler) {
		c.gate = p
	}
}

// WithScaler sets the concurrency limiter. Share it with the fetcher's
// Observer so blocked responses scale the pool down.
func WithScaler(s *Scaler) Option {
	return func(c *Crawler) {
		if s != nil {
			c.scaler = s
		}
	}
}

// WithStats sets the statistics collector.
func WithStats(s *model.RunStats) Option {
	return func(c *Crawler) {
		if s != nil {
			c.stats = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRunID sets the run identifier. A random UUID is used otherwise.
func WithRunID(id string) Option {
	return func(c *Crawler) {
		if id != "" {
			c.runID = id
		}
	}
}

// WithShutdownTimeout bounds how long in-flight requests may run after the
// context is cancelled.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// New creates a Crawler for the given seeds.
func New(seeds []string, f fetcher.Fetcher, out sink.Sink, opts ...Option) *Crawler {
	c := &Crawler{
		seeds:           seeds,
		fetcher:         f,
		sink:            out,
		store:           state.Nop{},
		extractor:       extract.NewExtractor(),
		frontier:        frontier.New(),
		logger:          slog.Default(),
		now:             time.Now,
		runID:           uuid.NewString(),
		wanted:          config.DefaultResultsWanted,
		maxPages:        config.DefaultMaxPages,
		collectDetails:  true,
		resume:          true,
		shutdownTimeout: config.DefaultShutdownTimeout,
		wake:            make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stats == nil {
		c.stats = model.NewRunStats(c.now())
	}
	if c.scaler == nil {
		c.scaler = NewScaler(
			config.DefaultMinConcurrency,
			config.DefaultMaxConcurrency,
			config.DefaultDesiredConcurrency,
			config.DefaultScaleUpStepRatio,
			config.DefaultScaleDownStepRatio,
		)
	}
	if c.ceiling == 0 {
		c.ceiling = min(max(c.wanted, 1)*config.RequestsPerResult, config.MaxRequestsPerCrawl)
	}
	return c
}

// RunID returns the run identifier.
func (c *Crawler) RunID() string {
	return c.runID
}

// Stats returns the live statistics.
func (c *Crawler) Stats() *model.RunStats {
	return c.stats
}

// Run crawls until a stop condition holds and persists the run state.
// Cancelling ctx is a normal way to stop and is reported through
// Result.Reason rather than as an error.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	var resumed int64
	if c.resume {
		st, ok, err := c.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			resumed = max(st.Saved, 0)
			if c.gate != nil {
				c.gate.Restore(st.Politeness)
			}
			c.logger.Info("resuming from saved state",
				"saved", resumed,
				"previous_run", st.RunID,
				"backoff_ms", st.Politeness.GlobalBackoff.Milliseconds(),
			)
		}
	}

	c.quota = frontier.NewQuota(c.wanted, c.maxPages, resumed)
	c.stats.SetItemsSaved(c.quota.Saved())

	if c.frontier.Seed(c.seeds) == 0 && !c.quota.Met() {
		return nil, ErrNoSeeds
	}

	c.logger.Info("crawl started",
		"run_id", c.runID,
		"seeds", len(c.seeds),
		"wanted", c.quota.Wanted(),
		"max_pages", c.quota.MaxPages(),
		"request_ceiling", c.ceiling,
		"collect_details", c.collectDetails,
		"concurrency", c.scaler.Limit(),
	)

	reason := c.dispatch(ctx)

	saved := c.quota.Saved()
	c.stats.SetItemsSaved(saved)
	end := c.now()
	snap := c.stats.Snapshot(end)
	var polite model.PolitenessState
	if c.gate != nil {
		polite = c.gate.Snapshot()
	}
	result := &Result{
		State: model.RunState{
			RunID:       c.runID,
			Saved:       saved,
			CompletedAt: end.UTC(),
			Stats:       snap,
			Politeness:  polite,
		},
		Reason:      reason,
		ResumedFrom: resumed,
		Wanted:      c.quota.Wanted(),
	}

	c.logger.Info("crawl finished",
		"reason", string(reason),
		"duration", snap.Duration.Round(time.Millisecond).String(),
		"items_saved", snap.ItemsSaved,
		"list_pages", snap.ListPagesProcessed,
		"detail_pages", snap.DetailPages,
		"errors", snap.Errors,
		"blocked_requests", snap.BlockedRequests,
		"urls_seen", c.frontier.Seen(),
		"avg_request_ms", snap.AverageRequestTime.Milliseconds(),
		"items_per_minute", snap.ItemsPerMinute,
		"efficiency", snap.Efficiency,
	)

	if err := c.store.Save(context.WithoutCancel(ctx), result.State); err != nil {
		return result, err
	}
	return result, nil
}

// dispatch hands requests to workers until a stop condition holds, then
// waits for in-flight work.
func (c *Crawler) dispatch(ctx context.Context) StopReason {
	// Workers outlive ctx by at most shutdownTimeout.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()
	go func() {
		select {
		case <-ctx.Done():
		case <-workCtx.Done():
			return
		}
		timer := time.NewTimer(c.shutdownTimeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.logger.Warn("shutdown timeout reached, abandoning in-flight requests", "in_flight", c.inFlight.Load())
			cancelWork()
		case <-workCtx.Done():
		}
	}()

	var g errgroup.Group
	g.SetLimit(c.scaler.maxLimit)
	reason := c.loop(ctx, workCtx, &g)
	_ = g.Wait() //nolint:errcheck // workers never return errors

	if c.quota.Met() {
		reason = StopQuotaMet
	}
	return reason
}

func (c *Crawler) loop(ctx, workCtx context.Context, g *errgroup.Group) StopReason {
	for {
		switch {
		case ctx.Err() != nil:
			return StopCancelled
		case c.quota.Met():
			return StopQuotaMet
		case c.stats.Requests() >= c.ceiling:
			c.logger.Info("request ceiling reached", "requests", c.stats.Requests())
			return StopRequestCeiling
		}

		if err := c.scaler.Acquire(ctx); err != nil {
			return StopCancelled
		}

		req, ok := c.frontier.Dequeue()
		if !ok {
			c.scaler.Release()
			if c.inFlight.Load() == 0 && c.frontier.Len() == 0 {
				return StopFrontierEmpty
			}
			select {
			case <-ctx.Done():
				return StopCancelled
			case <-c.wake:
			}
			continue
		}

		c.inFlight.Add(1)
		c.stats.IncRequests()
		g.Go(func() error {
			defer c.done()
			c.process(workCtx, req)
			return nil
		})
	}
}

// done releases a worker slot and wakes the dispatcher.
func (c *Crawler) done() {
	c.inFlight.Add(-1)
	c.scaler.Release()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Crawler) process(ctx context.Context, req model.CrawlRequest) {
	logger := c.logger.With("url", req.URL, "kind", req.Kind.String(), "page", req.PageNumber)

	if c.quota.Met() {
		logger.Debug("quota met, skipping request")
		return
	}

	res, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug("request abandoned", "error", err)
			return
		}
		c.stats.IncErrors()
		logger.Warn("request failed", "error", err)
		return
	}
	c.scaler.Succeeded()

	pageURL := res.Page.FinalURL
	if pageURL == "" {
		pageURL = req.URL
	}

	switch req.Kind {
	case model.KindList:
		c.handleList(ctx, logger, req, res, pageURL)
	case model.KindDetail:
		c.handleDetail(ctx, logger, req, res)
	}
}

func (c *Crawler) handleList(ctx context.Context, logger *slog.Logger, req model.CrawlRequest, res *fetcher.Result, pageURL string) {
	c.stats.IncListPages()

	links := extract.JobLinks(res.Document, pageURL)
	found := len(links)
	if remaining := c.quota.Remaining(); int64(len(links)) > remaining {
		links = links[:remaining]
	}

	if c.collectDetails {
		added := 0
		for _, link := range links {
			if c.frontier.Enqueue(model.NewDetailRequest(link, req.PageNumber)) {
				added++
			}
		}
		logger.Info("list page processed", "links_found", found, "details_enqueued", added)
	} else {
		saved := c.pushStubs(ctx, logger, links)
		logger.Info("list page processed", "links_found", found, "stubs_saved", saved)
	}

	if !c.quota.ShouldPaginate(req.PageNumber) {
		return
	}
	next, ok := extract.NextPage(res.Document, pageURL)
	if !ok {
		logger.Debug("no next page")
		return
	}
	if c.frontier.Enqueue(model.NewListRequest(next, req.PageNumber+1)) {
		logger.Debug("next page enqueued", "next", next, "next_page", req.PageNumber+1)
	}
}

// pushStubs saves a URL stub per link within the remaining quota and
// returns how many were saved.
func (c *Crawler) pushStubs(ctx context.Context, logger *slog.Logger, links []string) int64 {
	claimed := c.quota.ReserveUpTo(int64(len(links)))
	now := c.now()
	saveCtx := context.WithoutCancel(ctx)

	var saved int64
	for _, link := range links[:claimed] {
		if err := c.sink.Push(saveCtx, model.NewURLStub(link, now)); err != nil {
			c.quota.Cancel(1)
			c.stats.IncErrors()
			logger.Error("failed to save url stub", "link", link, "error", err)
			continue
		}
		saved++
	}
	if saved > 0 {
		c.stats.SetItemsSaved(c.quota.Commit(saved))
	}
	return saved
}

// handleDetail saves the posting on a DETAIL page. The record keeps the
// requested URL, which is also the frontier's dedup key, even when the page
// was served after a redirect.
func (c *Crawler) handleDetail(ctx context.Context, logger *slog.Logger, req model.CrawlRequest, res *fetcher.Result) {
	if c.quota.Met() {
		return
	}
	c.stats.IncDetailPages()

	job, sources, err := c.extractor.Detail(res.Document, req.URL, c.discipline)
	if err != nil {
		c.stats.IncErrors()
		logger.Error("extraction failed", "error", err)
		return
	}
	if missing := job.MissingFields(); len(missing) > 0 {
		logger.Debug("fields not found", "fields", missing, "sources", sources)
	}

	if !c.quota.Reserve() {
		logger.Debug("quota filled by another worker, dropping record")
		return
	}
	if err := c.sink.Push(context.WithoutCancel(ctx), job); err != nil {
		c.quota.Cancel(1)
		c.stats.IncErrors()
		logger.Error("failed to save job", "error", err)
		return
	}
	saved := c.quota.Commit(1)
	c.stats.SetItemsSaved(saved)

	logger.Info("job saved",
		"title", job.Title,
		"company", job.Company,
		"saved", saved,
		"wanted", c.quota.Wanted(),
	)
}
