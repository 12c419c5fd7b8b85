// Package crawler drives a job board crawl.
//
// A Crawler seeds the frontier with LIST requests and dispatches work to an
// autoscaled set of workers until one of the stop conditions holds: the
// wanted number of records was saved, the frontier is empty with nothing in
// flight, the request ceiling was reached, or the context was cancelled.
//
// LIST pages yield DETAIL requests (or URL stubs when detail collection is
// off) and, while the quota and page limit allow, the next LIST page.
// DETAIL pages yield one JobPosting each. Saving a record is claim based:
// a worker reserves a quota slot before pushing to the sink, so the sink
// never receives more records than wanted.
//
// On cancellation no further requests are dequeued. Requests already in
// flight run to completion, bounded by the shutdown timeout.
//
// # Usage
//
//	c := crawler.New(seeds, fetch, out,
//		crawler.WithQuota(20, 50),
//		crawler.WithStateStore(store),
//		crawler.WithPoliteness(gate),
//	)
//	result, err := c.Run(ctx)
package crawler
