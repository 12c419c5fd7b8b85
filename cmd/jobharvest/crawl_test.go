package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/report"
)

var postingPath = regexp.MustCompile(`^/jobs/golang-developer-\d+$`)

// newJobBoard serves one search result page listing two postings and the
// two posting pages.
func newJobBoard(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if postingPath.MatchString(r.URL.Path) {
			fmt.Fprintf(w, `<html><head><script type="application/ld+json">
{"@type":"JobPosting","title":"Go Developer","hiringOrganization":{"name":"ACME GmbH"},
 "jobLocation":{"address":{"addressLocality":"Berlin"}},"datePosted":"2026-09-30"}
</script></head><body><div class="job-description"><p>Write Go at %s.</p></div></body></html>`, r.URL.Path)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
<a href="/jobs/golang-developer-100001">Go Developer</a>
<a href="/jobs/golang-developer-100002">Go Developer</a>
</body></html>`))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func writeInputFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write input file: %v", err)
	}
	return path
}

// executeRoot runs the root command with args and returns stdout and stderr.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	path := writeInputFile(t, `
keyword: "data engineer"
location: Hamburg
discipline: IT
results_wanted: unlimited
max_pages: 4
proxyConfiguration:
  proxyUrls: ["http://old:1"]
headers:
  Accept-Language: "en-US,en;q=0.8"
`)

	t.Run("input file values are kept when flags are unset", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		crawl, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatal(err)
		}
		if err := crawl.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(crawl)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		in := cfg.Input
		if in.Keyword != "data engineer" || in.Location != "Hamburg" || in.Discipline != "IT" {
			t.Errorf("search = %+v", in)
		}
		if in.ResultsWanted != config.UnlimitedResults {
			t.Errorf("ResultsWanted = %d, want unlimited", in.ResultsWanted)
		}
		if in.MaxPages != 4 {
			t.Errorf("MaxPages = %d, want 4", in.MaxPages)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("ConfigFilePath = %q, want %q", cfg.ConfigFilePath, path)
		}
		if got := in.Headers["Accept-Language"]; got != "en-US,en;q=0.8" {
			t.Errorf("Accept-Language header = %q", got)
		}
		if cfg.Sink != config.DefaultSink || cfg.StateBackend != config.DefaultStateBackend || !cfg.Resume {
			t.Errorf("unexpected defaults: sink=%s state=%s resume=%v", cfg.Sink, cfg.StateBackend, cfg.Resume)
		}
	})

	t.Run("flags override the input file", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		crawl, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatal(err)
		}
		err = crawl.ParseFlags([]string{
			"-c", path,
			"-v",
			"--log-format", "json",
			"--keyword", "devops",
			"--results-wanted", "5",
			"--collect-details=false",
			"--start-url", "https://www.xing.com/jobs/t-devops",
			"--proxy", "socks5://new:1080",
			"--residential",
			"--sink", "jsonl",
			"--output", "out.jsonl",
			"--state", "none",
			"--resume=false",
			"--report", "markdown",
			"--rps", "2.5",
			"--header", "Accept-Language=de-DE",
			"--header", "X-Crawl-Run=nightly",
		})
		if err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(crawl)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}

		in := cfg.Input
		if in.Keyword != "devops" || in.Location != "Hamburg" {
			t.Errorf("search = %+v", in)
		}
		if in.ResultsWanted != 5 {
			t.Errorf("ResultsWanted = %d, want 5", in.ResultsWanted)
		}
		if in.ShouldCollectDetails() {
			t.Error("collect-details=false was ignored")
		}
		if seeds := in.ExplicitSeeds(); len(seeds) != 1 || seeds[0] != "https://www.xing.com/jobs/t-devops" {
			t.Errorf("ExplicitSeeds() = %v", seeds)
		}
		pc := in.ProxyConfiguration
		if len(pc.ProxyURLs) != 1 || pc.ProxyURLs[0] != "socks5://new:1080" || !pc.IsResidential() {
			t.Errorf("ProxyConfiguration = %+v", pc)
		}
		if !cfg.Verbose || cfg.LogFormat != config.LogJSON {
			t.Errorf("logging = verbose %v format %s", cfg.Verbose, cfg.LogFormat)
		}
		if cfg.Sink != config.SinkJSONL || cfg.OutputFile != "out.jsonl" || cfg.StateBackend != config.StateNone {
			t.Errorf("storage = %s %s %s", cfg.Sink, cfg.OutputFile, cfg.StateBackend)
		}
		if in.Headers["Accept-Language"] != "de-DE" || in.Headers["X-Crawl-Run"] != "nightly" {
			t.Errorf("Headers = %v", in.Headers)
		}
		if cfg.Resume || cfg.ReportFormat != config.ReportMarkdown || cfg.RequestsPerSecond != 2.5 {
			t.Errorf("resume=%v report=%s rps=%v", cfg.Resume, cfg.ReportFormat, cfg.RequestsPerSecond)
		}
	})

	t.Run("negative results wanted means unlimited", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		crawl, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatal(err)
		}
		if err := crawl.ParseFlags([]string{"-c", path, "--results-wanted", "-1"}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(crawl)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Input.ResultsWanted != config.UnlimitedResults {
			t.Errorf("ResultsWanted = %d, want unlimited", cfg.Input.ResultsWanted)
		}
	})
}

func TestCrawlCmdErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing explicit input file", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeRoot(t, "crawl", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()
		path := writeInputFile(t, "keyword: go\n")
		_, _, err := executeRoot(t, "crawl", "-c", path, "--sink", "kafka")
		if !errors.Is(err, config.ErrMissingKafkaConfig) {
			t.Errorf("error = %v, want ErrMissingKafkaConfig", err)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()
		path := writeInputFile(t, "keyword: go\n")
		_, _, err := executeRoot(t, "crawl", "-c", path,
			"--data-dir", t.TempDir(), "--proxy", "ftp://proxy:21")
		if err == nil || !strings.Contains(err.Error(), "unsupported proxy scheme") {
			t.Errorf("error = %v, want unsupported proxy scheme", err)
		}
	})
}

func TestCrawlCmdEndToEnd(t *testing.T) {
	t.Parallel()

	server, hits := newJobBoard(t)
	dataDir := t.TempDir()
	input := writeInputFile(t, "keyword: golang\nresults_wanted: 2\n")
	reportFile := filepath.Join(t.TempDir(), "reports", "run.json")

	args := []string{
		"crawl", "-c", input,
		"--base-url", server.URL,
		"--data-dir", dataDir,
		"--sink", "jsonl",
		"--state", "file",
		"--report", "json",
		"--min-concurrency", "1",
		"--concurrency", "2",
		"--max-concurrency", "2",
	}

	stdout, stderr, err := executeRoot(t, append(args, "--report-file", reportFile)...)
	if err != nil {
		t.Fatalf("crawl failed: %v\nstderr:\n%s", err, stderr)
	}

	var summary report.Summary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("stdout is not a JSON summary: %v\n%s", err, stdout)
	}
	if summary.Saved != 2 || summary.Reason != "quota_met" || summary.Wanted != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Stats.ListPagesProcessed != 1 || summary.Stats.DetailPages != 2 {
		t.Errorf("stats = %+v", summary.Stats)
	}
	if !strings.Contains(stderr, "crawl finished") {
		t.Errorf("expected crawl log on stderr:\n%s", stderr)
	}

	fileReport, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !bytes.Equal(bytes.TrimSpace(fileReport), bytes.TrimSpace([]byte(stdout))) {
		t.Errorf("report file differs from stdout:\n%s", fileReport)
	}

	f, err := os.Open(filepath.Join(dataDir, "dataset.jsonl"))
	if err != nil {
		t.Fatalf("dataset not written: %v", err)
	}
	defer f.Close()
	var titles []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("invalid dataset line %q: %v", sc.Text(), err)
		}
		titles = append(titles, fmt.Sprint(rec["title"]))
		if rec["company"] != "ACME GmbH" || rec["location"] != "Berlin" {
			t.Errorf("record = %v", rec)
		}
	}
	if len(titles) != 2 {
		t.Fatalf("dataset has %d records, want 2", len(titles))
	}

	// A second run resumes from the saved count and has nothing to do.
	before := hits.Load()
	stdout, stderr, err = executeRoot(t, args...)
	if err != nil {
		t.Fatalf("second crawl failed: %v\nstderr:\n%s", err, stderr)
	}
	summary = report.Summary{}
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("stdout is not a JSON summary: %v", err)
	}
	if summary.ResumedFrom != 2 || summary.Saved != 2 || summary.Reason != "quota_met" {
		t.Errorf("resumed summary = %+v", summary)
	}
	if hits.Load() != before {
		t.Errorf("resumed run sent %d requests, want 0", hits.Load()-before)
	}
}
