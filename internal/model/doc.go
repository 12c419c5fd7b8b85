// Package model defines the data structures shared by the jobharvest packages.
//
// This package contains the following main types:
//   - CrawlRequest: A typed unit of work in the crawl frontier
//   - Page: A fetched HTTP response and its metadata
//   - JobPosting: The structured record produced from a detail page
//   - URLStub: The record produced when detail collection is disabled
//   - RunStats: Counters collected while a crawl runs
//   - RunState: The snapshot persisted between runs for resumability
//
// The models live in their own package so that the frontier, extraction,
// crawler, sink and state packages can share them without import cycles.
// All records are serializable to JSON for dataset and state storage.
package model
