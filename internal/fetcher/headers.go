package fetcher

import (
	"net/http"

	"github.com/nao1215/jobharvest/internal/model"
	"github.com/nao1215/jobharvest/internal/session"
)

// DetailReferer is sent with DETAIL requests so they look like clicks from
// the search page.
const DetailReferer = "https://www.xing.com/jobs"

// browserHeaders are sent with every request.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Encoding":           "gzip, deflate, br",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// setHeaders applies the browser headers, the session identity and, for
// DETAIL requests, the referer. Overrides are applied last.
func setHeaders(h http.Header, id session.Identity, kind model.Kind, overrides map[string]string) {
	for k, v := range browserHeaders {
		h.Set(k, v)
	}
	h.Set("User-Agent", id.UserAgent)
	h.Set("Accept-Language", id.AcceptLanguage)
	if kind == model.KindDetail {
		h.Set("Referer", DetailReferer)
	}
	for k, v := range overrides {
		h.Set(k, v)
	}
}
