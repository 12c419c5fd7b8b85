package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jobURLPattern matches posting URLs: /jobs/<slug>-<numeric id of 6+ digits>.
var jobURLPattern = regexp.MustCompile(`(?i)/jobs/[a-z0-9-]+-\d{6,}`)

// loadMorePattern matches the label of the "show more" control on LIST pages.
var loadMorePattern = regexp.MustCompile(`(?i)(show|load)\s+more`)

// IsJobURL reports whether u looks like a job posting URL.
func IsJobURL(u string) bool {
	return u != "" && jobURLPattern.MatchString(u)
}

// JobLinks returns the absolute job posting URLs on a LIST page, deduplicated
// and in order of first appearance.
func JobLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	links := make([]string, 0)
	doc.Find(`a[href*="/jobs/"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		abs := resolve(base, href)
		if abs == "" || !IsJobURL(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}

// NextPage returns the URL of the next LIST page, or false when pagination
// ends. A "show more" button increments the page query parameter of the
// current URL; otherwise a rel="next" or aria-label "Next" link is followed.
func NextPage(doc *goquery.Document, pageURL string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	showMore := doc.Find("button").FilterFunction(func(_ int, b *goquery.Selection) bool {
		return loadMorePattern.MatchString(b.Text())
	})
	if showMore.Length() > 0 {
		return IncrementPage(base), true
	}

	next := doc.Find("a[rel], a[aria-label]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		rel, _ := a.Attr("rel")
		label, _ := a.Attr("aria-label")
		return rel == "next" || strings.Contains(strings.ToLower(label), "next")
	}).First()
	if href, ok := next.Attr("href"); ok {
		if abs := resolve(base, href); abs != "" {
			return abs, true
		}
	}
	return "", false
}

// IncrementPage returns u with its page query parameter raised by one. A
// missing or malformed parameter counts as page 1.
func IncrementPage(u *url.URL) string {
	next := *u
	q := next.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page+1))
	next.RawQuery = q.Encode()
	return next.String()
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
