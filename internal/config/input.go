package config

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// UnlimitedResults is the ResultsWanted value used when the input asks for
// no limit. It is large enough to never be reached and small enough that
// RequestCeiling arithmetic cannot overflow.
const UnlimitedResults = math.MaxInt32

// Input describes a single search on the job board.
// YAML field names match the job board actor input schema.
type Input struct {
	// Keyword is the free-text search term. It also becomes a path slug
	// in the generated seed URL.
	Keyword string `yaml:"keyword,omitempty"`

	// Location restricts the search to a city or region.
	Location string `yaml:"location,omitempty"`

	// Discipline restricts the search to a professional discipline and is
	// copied into every output record.
	Discipline string `yaml:"discipline,omitempty"`

	// ResultsWanted is the number of records to save before stopping.
	ResultsWanted ResultLimit `yaml:"results_wanted,omitempty"`

	// MaxPages is the maximum LIST page number to follow.
	MaxPages int `yaml:"max_pages,omitempty"`

	// CollectDetails toggles DETAIL crawling. When false only URL stubs are
	// written. Nil means the default (true).
	CollectDetails *bool `yaml:"collectDetails,omitempty"`

	// StartURL, StartURLs and URL override the generated seed.
	StartURL  string     `yaml:"startUrl,omitempty"`
	StartURLs []StartURL `yaml:"startUrls,omitempty"`
	URL       string     `yaml:"url,omitempty"`

	// ProxyConfiguration selects outbound proxies.
	ProxyConfiguration *ProxyConfiguration `yaml:"proxyConfiguration,omitempty"`

	// Headers are sent with every request and replace the browser defaults
	// of the same name.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ProxyConfiguration mirrors the actor proxy input.
type ProxyConfiguration struct {
	// UseApifyProxy is kept for input compatibility; it has no effect
	// without ProxyURLs.
	UseApifyProxy bool `yaml:"useApifyProxy,omitempty"`

	// ApifyProxyGroups names the proxy groups. A RESIDENTIAL entry selects
	// residential pacing.
	ApifyProxyGroups []string `yaml:"apifyProxyGroups,omitempty"`

	// ProxyURLs lists proxies as http://, https:// or socks5:// URLs.
	ProxyURLs []string `yaml:"proxyUrls,omitempty"`
}

// IsResidential reports whether the configuration requests residential proxies.
// A nil configuration is treated as datacenter.
func (p *ProxyConfiguration) IsResidential() bool {
	if p == nil {
		return false
	}
	for _, g := range p.ApifyProxyGroups {
		if strings.EqualFold(strings.TrimSpace(g), "RESIDENTIAL") {
			return true
		}
	}
	return false
}

// StartURL is a seed URL. In YAML it may be a plain string or a mapping with
// a url key.
type StartURL struct {
	URL string `yaml:"url"`
}

// UnmarshalYAML accepts both "https://..." and {url: "https://..."}.
func (s *StartURL) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.URL = value.Value
		return nil
	}
	type plain StartURL
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = StartURL(p)
	return nil
}

// ResultLimit is a result count that accepts non-numeric YAML values
// ("unlimited", ".inf") as "no limit". Zero means "not set".
type ResultLimit int

// UnmarshalYAML decodes integers directly and treats anything that is not a
// finite number as UnlimitedResults.
func (r *ResultLimit) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("results_wanted: expected a scalar, got %v", value.Tag)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value.Value), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		*r = UnlimitedResults
		return nil
	}
	if f > UnlimitedResults {
		*r = UnlimitedResults
		return nil
	}
	n := int(f)
	if n < 1 {
		n = 1
	}
	*r = ResultLimit(n)
	return nil
}

// NewInput returns an Input with default quotas.
func NewInput() *Input {
	return &Input{
		ResultsWanted: DefaultResultsWanted,
		MaxPages:      DefaultMaxPages,
	}
}

// Normalize raises quotas to their minimums and fills unset values with
// defaults.
func (in *Input) Normalize() {
	if in.ResultsWanted == 0 {
		in.ResultsWanted = DefaultResultsWanted
	}
	if in.ResultsWanted < 1 {
		in.ResultsWanted = 1
	}
	if in.MaxPages == 0 {
		in.MaxPages = DefaultMaxPages
	}
	if in.MaxPages < 1 {
		in.MaxPages = 1
	}
	in.Keyword = strings.TrimSpace(in.Keyword)
	in.Location = strings.TrimSpace(in.Location)
	in.Discipline = strings.TrimSpace(in.Discipline)
}

// ShouldCollectDetails reports whether DETAIL pages are crawled.
func (in *Input) ShouldCollectDetails() bool {
	return in.CollectDetails == nil || *in.CollectDetails
}

// ExplicitSeeds returns user-provided seed URLs in the order startUrls,
// startUrl, url. Empty entries are skipped.
func (in *Input) ExplicitSeeds() []string {
	seeds := make([]string, 0, len(in.StartURLs)+2)
	for _, s := range in.StartURLs {
		if u := strings.TrimSpace(s.URL); u != "" {
			seeds = append(seeds, u)
		}
	}
	if u := strings.TrimSpace(in.StartURL); u != "" {
		seeds = append(seeds, u)
	}
	if u := strings.TrimSpace(in.URL); u != "" {
		seeds = append(seeds, u)
	}
	return seeds
}

// SeedURLs returns the explicit seeds, or a single search URL built from the
// keyword, location and discipline when none are given.
func (in *Input) SeedURLs(baseURL string) ([]string, error) {
	if seeds := in.ExplicitSeeds(); len(seeds) > 0 {
		return seeds, nil
	}
	u, err := BuildStartURL(baseURL, in.Keyword, in.Location, in.Discipline)
	if err != nil {
		return nil, err
	}
	return []string{u}, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// BuildStartURL builds the search URL for the job board:
//
//	<base>/jobs[/t-<slug>]?keywords=..&location=..&discipline=..
//
// Empty parameters are omitted.
func BuildStartURL(baseURL, keyword, location, discipline string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", ErrInvalidBaseURL
	}

	u := &url.URL{Scheme: base.Scheme, User: base.User, Host: base.Host, Path: "/jobs"}
	keyword = strings.TrimSpace(keyword)
	if keyword != "" {
		slug := KeywordSlug(keyword)
		u.Path = "/jobs/t-" + slug
		u.RawPath = "/jobs/t-" + url.PathEscape(slug)
	}

	q := url.Values{}
	if keyword != "" {
		q.Set("keywords", keyword)
	}
	if loc := strings.TrimSpace(location); loc != "" {
		q.Set("location", loc)
	}
	if disc := strings.TrimSpace(discipline); disc != "" {
		q.Set("discipline", disc)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// KeywordSlug lower-cases the keyword and replaces whitespace runs with "-".
func KeywordSlug(keyword string) string {
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(keyword))
	return whitespaceRun.ReplaceAllString(lowered, "-")
}
