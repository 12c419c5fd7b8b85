package model

import (
	"encoding/json"
	"time"
)

// DefaultSource is the value written to the _source field of URL stubs.
const DefaultSource = "xing.com"

// Record is anything a dataset sink accepts.
type Record interface {
	// RecordURL returns the URL the record was produced from.
	RecordURL() string
}

// JobPosting is the structured record extracted from a DETAIL page.
//
// Every field except URL and ScrapedAt may be empty. Empty fields are
// written as JSON null so consumers can tell "not found" from "empty string".
type JobPosting struct {
	Title           string
	Company         string
	Discipline      string
	Location        string
	Salary          string
	JobType         string
	Remote          string
	JobCategory     string
	DatePosted      string
	DescriptionHTML string
	DescriptionText string

	// URL is the DETAIL page the record was extracted from.
	URL string

	// ScrapedAt is when the record was built.
	ScrapedAt time.Time
}

// jobPostingJSON is the wire shape of JobPosting.
type jobPostingJSON struct {
	Title           *string   `json:"title"`
	Company         *string   `json:"company"`
	Discipline      *string   `json:"discipline"`
	Location        *string   `json:"location"`
	Salary          *string   `json:"salary"`
	JobType         *string   `json:"job_type"`
	Remote          *string   `json:"remote"`
	JobCategory     *string   `json:"job_category"`
	DatePosted      *string   `json:"date_posted"`
	DescriptionHTML *string   `json:"description_html"`
	DescriptionText *string   `json:"description_text"`
	URL             string    `json:"url"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

// RecordURL implements Record.
func (j *JobPosting) RecordURL() string {
	return j.URL
}

// MarshalJSON writes empty nullable fields as null.
func (j JobPosting) MarshalJSON() ([]byte, error) {
	return json.Marshal(jobPostingJSON{
		Title:           nullable(j.Title),
		Company:         nullable(j.Company),
		Discipline:      nullable(j.Discipline),
		Location:        nullable(j.Location),
		Salary:          nullable(j.Salary),
		JobType:         nullable(j.JobType),
		Remote:          nullable(j.Remote),
		JobCategory:     nullable(j.JobCategory),
		DatePosted:      nullable(j.DatePosted),
		DescriptionHTML: nullable(j.DescriptionHTML),
		DescriptionText: nullable(j.DescriptionText),
		URL:             j.URL,
		ScrapedAt:       j.ScrapedAt,
	})
}

// UnmarshalJSON reads null fields back as empty strings.
func (j *JobPosting) UnmarshalJSON(data []byte) error {
	var w jobPostingJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*j = JobPosting{
		Title:           deref(w.Title),
		Company:         deref(w.Company),
		Discipline:      deref(w.Discipline),
		Location:        deref(w.Location),
		Salary:          deref(w.Salary),
		JobType:         deref(w.JobType),
		Remote:          deref(w.Remote),
		JobCategory:     deref(w.JobCategory),
		DatePosted:      deref(w.DatePosted),
		DescriptionHTML: deref(w.DescriptionHTML),
		DescriptionText: deref(w.DescriptionText),
		URL:             w.URL,
		ScrapedAt:       w.ScrapedAt,
	}
	return nil
}

// MissingFields returns the JSON names of the nullable fields that are empty,
// in schema order.
func (j *JobPosting) MissingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"title", j.Title},
		{"company", j.Company},
		{"discipline", j.Discipline},
		{"location", j.Location},
		{"salary", j.Salary},
		{"job_type", j.JobType},
		{"remote", j.Remote},
		{"job_category", j.JobCategory},
		{"date_posted", j.DatePosted},
		{"description_html", j.DescriptionHTML},
		{"description_text", j.DescriptionText},
	}

	missing := make([]string, 0)
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// URLStub is the record pushed for each discovered posting when detail
// collection is disabled.
type URLStub struct {
	URL       string    `json:"url"`
	Source    string    `json:"_source"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// NewURLStub creates a stub for url stamped with the given time.
func NewURLStub(url string, now time.Time) *URLStub {
	return &URLStub{URL: url, Source: DefaultSource, ScrapedAt: now.UTC()}
}

// RecordURL implements Record.
func (s *URLStub) RecordURL() string {
	return s.URL
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
