package model

import "strings"

// MaxPageSize is the maximum size of raw page content to keep.
// Larger bodies are rejected by the fetcher.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page represents a fetched job board page.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Raw contains the decoded response body.
	Raw []byte `json:"-"`
}

// IsHTML returns true if the page content type indicates HTML.
// A missing content type is treated as HTML since job boards occasionally omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}
