package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is().
var (
	// ErrInvalidBaseURL is returned when the job board base URL is not an
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidStartURL is returned when an explicit seed URL cannot be parsed
	// as an absolute http(s) URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http or https URL")

	// ErrInvalidConcurrency is returned when the concurrency bounds are not
	// positive or desired concurrency lies outside [min, max].
	ErrInvalidConcurrency = errors.New("invalid concurrency: require 1 <= min <= desired <= max")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	// Use 0 to disable the rate gate.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrUnknownSink is returned for a sink name other than sqlite, jsonl or kafka.
	ErrUnknownSink = errors.New("unknown sink: use sqlite, jsonl or kafka")

	// ErrMissingKafkaConfig is returned when the kafka sink lacks brokers or a topic.
	ErrMissingKafkaConfig = errors.New("kafka sink requires at least one broker and a topic")

	// ErrUnknownStateBackend is returned for a state backend other than
	// sqlite, file, redis or none.
	ErrUnknownStateBackend = errors.New("unknown state backend: use sqlite, file, redis or none")

	// ErrMissingRedisAddr is returned when the redis state backend has no address.
	ErrMissingRedisAddr = errors.New("redis state backend requires an address")

	// ErrUnknownReportFormat is returned for a report format other than
	// text, json or markdown.
	ErrUnknownReportFormat = errors.New("unknown report format: use text, json or markdown")

	// ErrUnknownLogFormat is returned for a log format other than text or json.
	ErrUnknownLogFormat = errors.New("unknown log format: use text or json")
)
