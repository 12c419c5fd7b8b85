package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "jobharvest"

	// DefaultBaseURL is the job board the seed URL is built against.
	DefaultBaseURL = "https://www.xing.com"

	// DefaultResultsWanted is the number of records saved when the input
	// does not specify results_wanted.
	DefaultResultsWanted = 20

	// DefaultMaxPages is the highest LIST page followed by default.
	DefaultMaxPages = 50

	// RequestsPerResult and MaxRequestsPerCrawl bound the total number of
	// requests in a run to min(results*RequestsPerResult, MaxRequestsPerCrawl).
	RequestsPerResult   = 4
	MaxRequestsPerCrawl = 500

	// DefaultMinConcurrency, DefaultMaxConcurrency and DefaultDesiredConcurrency
	// bound the autoscaled worker pool.
	DefaultMinConcurrency     = 8
	DefaultMaxConcurrency     = 12
	DefaultDesiredConcurrency = 10

	// DefaultScaleUpStepRatio and DefaultScaleDownStepRatio are the fractions
	// of max concurrency added or removed per autoscaling step.
	DefaultScaleUpStepRatio   = 0.1
	DefaultScaleDownStepRatio = 0.05

	// DefaultSink is the dataset sink used when none is selected.
	DefaultSink = SinkSQLite

	// DefaultStateBackend is the state store used when none is selected.
	DefaultStateBackend = StateSQLite

	// DefaultReportFormat is the run summary format.
	DefaultReportFormat = ReportText

	// DefaultRedisKey is the Redis key prefix for run state.
	DefaultRedisKey = "jobharvest:"

	// DefaultRedisTTL is how long run state survives in Redis.
	DefaultRedisTTL = 30 * 24 * time.Hour

	// DefaultShutdownTimeout bounds how long in-flight requests may run after
	// cancellation before the process gives up on them.
	DefaultShutdownTimeout = 30 * time.Second
)

// Sink names.
const (
	SinkSQLite = "sqlite"
	SinkJSONL  = "jsonl"
	SinkKafka  = "kafka"
)

// State backend names.
const (
	StateSQLite = "sqlite"
	StateFile   = "file"
	StateRedis  = "redis"
	StateNone   = "none"
)

// Report formats.
const (
	ReportText     = "text"
	ReportJSON     = "json"
	ReportMarkdown = "markdown"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Config holds all configuration options for a jobharvest run.
// It is populated from the input file and CLI flags and passed down
// explicitly; no package reads global configuration.
type Config struct {
	// Input is the job board search.
	Input *Input

	// BaseURL is the job board origin used to build seed URLs.
	BaseURL string

	// ConfigFilePath is the input file path. Empty means search the
	// current and home directories for DefaultConfigFile.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat is text or json.
	LogFormat string

	// DataDir hosts the SQLite database and the state file.
	// Defaults to the XDG data directory.
	DataDir string

	// Sink selects the dataset backend.
	Sink string

	// OutputFile is the JSONL dataset path for the jsonl sink.
	// Empty means <DataDir>/dataset.jsonl.
	OutputFile string

	// KafkaBrokers and KafkaTopic configure the kafka sink.
	KafkaBrokers []string
	KafkaTopic   string

	// StateBackend selects where RunState is persisted.
	StateBackend string

	// StateFile is the JSON file for the file backend.
	// Empty means <DataDir>/state.json.
	StateFile string

	// RedisAddr, RedisKey and RedisTTL configure the redis backend.
	RedisAddr string
	RedisKey  string
	RedisTTL  time.Duration

	// Resume pre-seeds the saved counter from persisted state.
	Resume bool

	// ReportFormat selects the run summary format.
	ReportFormat string

	// ReportFile also writes the run summary to this file.
	ReportFile string

	// RequestsPerSecond caps the global request rate. 0 disables the cap.
	RequestsPerSecond float64

	// MinConcurrency, MaxConcurrency and DesiredConcurrency bound the pool.
	MinConcurrency     int
	MaxConcurrency     int
	DesiredConcurrency int

	// ShutdownTimeout bounds the drain of in-flight requests after cancellation.
	ShutdownTimeout time.Duration
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Input:              NewInput(),
		BaseURL:            DefaultBaseURL,
		LogFormat:          LogText,
		DataDir:            XDGDataDir(),
		Sink:               DefaultSink,
		StateBackend:       DefaultStateBackend,
		RedisKey:           DefaultRedisKey,
		RedisTTL:           DefaultRedisTTL,
		Resume:             true,
		ReportFormat:       DefaultReportFormat,
		MinConcurrency:     DefaultMinConcurrency,
		MaxConcurrency:     DefaultMaxConcurrency,
		DesiredConcurrency: DefaultDesiredConcurrency,
		ShutdownTimeout:    DefaultShutdownTimeout,
	}
}

// XDGDataDir returns the XDG data directory for jobharvest.
// On Linux: ~/.local/share/jobharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for jobharvest.
// On Linux: ~/.config/jobharvest
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DatasetPath returns the JSONL dataset path.
func (c *Config) DatasetPath() string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	return filepath.Join(c.DataDir, "dataset.jsonl")
}

// StatePath returns the JSON state file path.
func (c *Config) StatePath() string {
	if c.StateFile != "" {
		return c.StateFile
	}
	return filepath.Join(c.DataDir, "state.json")
}

// RequestCeiling returns the hard cap on requests in one run:
// min(resultsWanted*RequestsPerResult, MaxRequestsPerCrawl).
func (c *Config) RequestCeiling() int {
	wanted := int64(c.Input.ResultsWanted)
	if wanted < 1 {
		wanted = 1
	}
	ceiling := wanted * RequestsPerResult
	if ceiling > MaxRequestsPerCrawl {
		ceiling = MaxRequestsPerCrawl
	}
	return int(ceiling)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Input == nil {
		c.Input = NewInput()
	}
	c.Input.Normalize()

	if !isHTTPURL(c.BaseURL) {
		return ErrInvalidBaseURL
	}

	for _, seed := range c.Input.ExplicitSeeds() {
		if !isHTTPURL(seed) {
			return ErrInvalidStartURL
		}
	}

	if c.MinConcurrency < 1 ||
		c.MaxConcurrency < c.MinConcurrency ||
		c.DesiredConcurrency < c.MinConcurrency ||
		c.DesiredConcurrency > c.MaxConcurrency {
		return ErrInvalidConcurrency
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}

	switch c.Sink {
	case SinkSQLite, SinkJSONL:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 || strings.TrimSpace(c.KafkaTopic) == "" {
			return ErrMissingKafkaConfig
		}
	default:
		return ErrUnknownSink
	}

	switch c.StateBackend {
	case StateSQLite, StateFile, StateNone:
	case StateRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return ErrMissingRedisAddr
		}
	default:
		return ErrUnknownStateBackend
	}

	switch c.ReportFormat {
	case ReportText, ReportJSON, ReportMarkdown:
	default:
		return ErrUnknownReportFormat
	}

	switch c.LogFormat {
	case LogText, LogJSON:
	default:
		return ErrUnknownLogFormat
	}

	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
