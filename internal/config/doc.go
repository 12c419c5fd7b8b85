// Package config provides the run configuration for jobharvest.
//
// A run is described by two layers. Input holds the job-board search
// (keyword, location, discipline, quotas, seed URLs, proxies) and is usually
// read from a YAML file. Config wraps Input with runtime settings such as the
// dataset sink, the state backend, concurrency and logging, and is populated
// from CLI flags on top of the file.
package config
