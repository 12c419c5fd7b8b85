// Package extract turns parsed job board pages into crawl results.
//
// LIST pages yield job links and an optional next-page URL. DETAIL pages
// yield a model.JobPosting. Each posting field is resolved independently:
// schema.org JobPosting JSON-LD comes first, then an ordered Chain of
// selector strategies for every field that is still empty. The first
// non-empty value wins. Missing fields are an expected outcome, not an
// error.
//
// Salary text from any source is normalized by ParseSalary.
package extract
