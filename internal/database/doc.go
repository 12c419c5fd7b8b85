// Package database provides SQLite-based storage for jobharvest.
//
// CrawlDB keeps two tables in one file:
//   - jobs: the dataset, one row per posting or URL stub, keyed by the
//     SHA3-256 of the posting URL so repeated runs update instead of
//     duplicating
//   - kv_store: small JSON values such as the persisted run state
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
