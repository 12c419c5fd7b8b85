package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/jobharvest/internal/model"
)

// ErrExtraction is returned when deriving a field fails unexpectedly.
var ErrExtraction = errors.New("detail extraction failed")

// Extractor builds job postings from DETAIL pages.
type Extractor struct {
	strategies Strategies
	now        func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the time source for ScrapedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExtractor returns an Extractor using DefaultStrategies.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: DefaultStrategies(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SourceJSONLD is the source reported for fields taken from structured
// metadata.
const SourceJSONLD = "json-ld"

// Sources maps the JSON name of each extracted field to the strategy that
// produced it.
type Sources map[string]string

// Detail extracts a posting from a DETAIL page. Structured metadata is
// consulted first, then each still-empty field's chain. pageURL becomes the
// posting URL and discipline comes from the run input. A panic inside a
// strategy is returned as ErrExtraction so that one bad page never aborts
// the crawl.
func (e *Extractor) Detail(doc *goquery.Document, pageURL, discipline string) (posting *model.JobPosting, sources Sources, err error) {
	defer func() {
		if r := recover(); r != nil {
			posting, sources = nil, nil
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, pageURL, r)
		}
	}()

	meta, _ := FromJSONLD(doc)
	p := &model.JobPosting{
		Discipline: discipline,
		URL:        pageURL,
		ScrapedAt:  e.now().UTC(),
	}

	fields := []struct {
		name  string
		dst   *string
		meta  string
		chain Chain
	}{
		{"title", &p.Title, meta.Title, e.strategies.Title},
		{"company", &p.Company, meta.Company, e.strategies.Company},
		{"description_html", &p.DescriptionHTML, meta.DescriptionHTML, e.strategies.Description},
		{"location", &p.Location, meta.Location, e.strategies.Location},
		{"salary", &p.Salary, meta.Salary, e.strategies.Salary},
		{"job_type", &p.JobType, meta.JobType, e.strategies.JobType},
		{"remote", &p.Remote, meta.Remote, e.strategies.Remote},
		{"job_category", &p.JobCategory, "", e.strategies.JobCategory},
		{"date_posted", &p.DatePosted, meta.DatePosted, nil},
	}
	sources = make(Sources, len(fields))
	for _, f := range fields {
		if f.meta != "" {
			*f.dst = f.meta
			sources[f.name] = SourceJSONLD
			continue
		}
		var strategy string
		*f.dst, strategy = f.chain.Resolve(doc)
		if strategy != "" {
			sources[f.name] = strategy
		}
	}

	p.Salary = ParseSalary(p.Salary)
	p.DescriptionText = CleanText(p.DescriptionHTML)

	return p, sources, nil
}
