// Package frontier holds the pending crawl requests and the result quota.
//
// The Frontier is a FIFO of typed requests (LIST or DETAIL). Every URL is
// normalized and enqueued at most once over the lifetime of a run, so
// breadth-first expansion never revisits a page. The Quota tracks how many
// records were saved against how many were wanted and decides whether
// pagination may continue.
package frontier
