// Package sink writes crawl records to the dataset.
//
// A Sink accepts one record at a time from any number of workers. Records
// arrive in no particular order and sinks do not deduplicate them. Three
// backends exist: the SQLite jobs table (default), a JSON Lines file, and a
// Kafka topic with one message per record keyed by its URL.
package sink
