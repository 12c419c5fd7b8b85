// Package main provides the entry point for the jobharvest CLI.
//
// jobharvest crawls job postings from the xing.com job board. It walks
// search result pages, follows each posting and writes one record per job
// to a dataset (SQLite, JSON lines or Kafka).
//
// Usage:
//
//	jobharvest crawl --keyword "software engineer" --location Berlin
//	jobharvest crawl -c search.yaml
//	jobharvest status
//
// See --help for all available options.
package main

// main is the entry point for jobharvest.
func main() {
	Execute()
}
