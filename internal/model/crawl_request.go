package model

// Kind identifies which handler a crawl request is routed to.
type Kind int

const (
	// KindList is a search-results page that enumerates postings and may
	// link to further result pages.
	KindList Kind = iota

	// KindDetail is the page of a single posting.
	KindDetail
)

// String returns the label used in logs and persisted state.
func (k Kind) String() string {
	switch k {
	case KindList:
		return "LIST"
	case KindDetail:
		return "DETAIL"
	default:
		return "UNKNOWN"
	}
}

// CrawlRequest is a unit of work in the frontier.
// It is created by the frontier (as a seed or derived from a LIST page) and
// consumed when a worker dequeues it.
type CrawlRequest struct {
	// URL is the normalized absolute URL to fetch.
	URL string `json:"url"`

	// Kind selects the LIST or DETAIL handler.
	Kind Kind `json:"kind"`

	// PageNumber is the 1-based result page for LIST requests.
	// DETAIL requests inherit the page number of the LIST page that produced them.
	PageNumber int `json:"page_number"`
}

// NewListRequest creates a LIST request. Page numbers below 1 are raised to 1.
func NewListRequest(url string, pageNumber int) CrawlRequest {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return CrawlRequest{URL: url, Kind: KindList, PageNumber: pageNumber}
}

// NewDetailRequest creates a DETAIL request discovered on the given page.
func NewDetailRequest(url string, pageNumber int) CrawlRequest {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return CrawlRequest{URL: url, Kind: KindDetail, PageNumber: pageNumber}
}
