package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Site-specific styled-component classes observed on DETAIL pages.
const (
	// markerTextSelector styles the salary forecast and, when repeated, the
	// work-mode marker.
	markerTextSelector = "span.body-copy-styles__BodyCopy-sc-b3916c1b-0.dLgVbf.marker-styles__Text-sc-f046032b-2.bGmnFj"

	// ariaExtendedTextSelector carries the employment type.
	ariaExtendedTextSelector = "span.aria-extended-text__Text-sc-a2c0913c-0.gmPLC"

	// jobIntroInfoSelector is the additional-info paragraph of the job intro.
	jobIntroInfoSelector = "p.body-copy-styles__BodyCopy-sc-b3916c1b-0.gIutZc.job-intro__AdditionalInfo-sc-5658992b-1.hDMxHz"
)

// Strategy extracts one field value from a document. An empty result means
// the strategy did not match.
type Strategy struct {
	// Name identifies the strategy in debug logs and tests.
	Name string

	Extract func(doc *goquery.Document) string
}

// Chain is an ordered list of strategies for one field.
type Chain []Strategy

// Resolve runs the strategies in order and returns the first non-empty value
// together with the name of the strategy that produced it.
func (c Chain) Resolve(doc *goquery.Document) (value, strategy string) {
	for _, s := range c {
		if v := s.Extract(doc); v != "" {
			return v, s.Name
		}
	}
	return "", ""
}

// FirstText matches the first element for selector and returns its
// normalized text.
func FirstText(selector string) Strategy {
	return Strategy{
		Name: "text:" + selector,
		Extract: func(doc *goquery.Document) string {
			return NormalizeText(doc.Find(selector).First().Text())
		},
	}
}

// FirstHTML matches the first element for selector and returns its inner
// HTML, trimmed.
func FirstHTML(selector string) Strategy {
	return Strategy{
		Name: "html:" + selector,
		Extract: func(doc *goquery.Document) string {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				return ""
			}
			h, err := sel.Html()
			if err != nil {
				return ""
			}
			return strings.TrimSpace(h)
		},
	}
}

// LastTextOfMany returns the normalized text of the last element matching
// selector, but only when the selector matches more than one element.
func LastTextOfMany(selector string) Strategy {
	return Strategy{
		Name: "last-of-many:" + selector,
		Extract: func(doc *goquery.Document) string {
			sel := doc.Find(selector)
			if sel.Length() < 2 {
				return ""
			}
			return NormalizeText(sel.Last().Text())
		},
	}
}

// Strategies holds the fallback chain of every DETAIL field that has one.
type Strategies struct {
	Title       Chain
	Company     Chain
	Description Chain
	Location    Chain
	Salary      Chain
	JobType     Chain
	Remote      Chain
	JobCategory Chain
}

// DefaultStrategies returns the chains for the job board's DETAIL pages.
// Test-id and semantic hints come before generic class-name hints.
func DefaultStrategies() Strategies {
	return Strategies{
		Title: Chain{
			FirstText("h1"),
			FirstText(`[data-testid="job-title"]`),
			FirstText(".job-title"),
			FirstText(`[class*="job-title"]`),
		},
		Company: Chain{
			FirstText(`[data-testid="company-name"]`),
			FirstText(".company-name"),
			FirstText(`[class*="company-name"]`),
			FirstText(`[class*="employer"]`),
		},
		Description: Chain{
			FirstHTML(`[data-testid="job-description"]`),
			FirstHTML(`[class*="job-description"]`),
			FirstHTML(".description"),
			FirstHTML("article"),
			FirstHTML(`[class*="job-content"]`),
		},
		Location: Chain{
			FirstText(`[data-testid="job-location"]`),
			FirstText(".location"),
			FirstText(`[class*="location"]`),
		},
		Salary: Chain{
			FirstText(`[data-testid="salary"]`),
			FirstText(`[class*="salary"]`),
			FirstText(markerTextSelector),
		},
		JobType: Chain{
			FirstText(`[data-testid="employment-type"]`),
			FirstText(`[class*="employment-type"]`),
			FirstText(ariaExtendedTextSelector),
		},
		// The work mode has no semantic hint. When the marker style repeats,
		// its last occurrence is the work mode; the first is the salary.
		Remote: Chain{
			LastTextOfMany(markerTextSelector),
		},
		JobCategory: Chain{
			FirstText(jobIntroInfoSelector),
		},
	}
}
