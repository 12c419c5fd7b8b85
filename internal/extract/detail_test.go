package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const markerSpan = `<span class="body-copy-styles__BodyCopy-sc-b3916c1b-0 dLgVbf marker-styles__Text-sc-f046032b-2 bGmnFj">`

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

func TestFromJSONLD(t *testing.T) {
	t.Parallel()

	t.Run("maps a JobPosting object", func(t *testing.T) {
		t.Parallel()

		doc := mustDoc(t, `<script type="application/ld+json">{
			"@context": "https://schema.org",
			"@type": "JobPosting",
			"title": "Go Developer",
			"hiringOrganization": {"@type": "Organization", "name": "ACME GmbH"},
			"datePosted": "2025-02-20",
			"description": "<p>Build things</p>",
			"jobLocation": [{"address": {"addressLocality": "Berlin", "addressRegion": "BE"}}],
			"baseSalary": {"currency": "EUR", "value": {"minValue": 60000, "maxValue": 80000}},
			"employmentType": ["FULL_TIME", "CONTRACTOR"],
			"jobLocationType": "TELECOMMUTE"
		}</script>`)

		f, ok := FromJSONLD(doc)
		if !ok {
			t.Fatal("expected JobPosting metadata")
		}
		want := Fields{
			Title:           "Go Developer",
			Company:         "ACME GmbH",
			DatePosted:      "2025-02-20",
			DescriptionHTML: "<p>Build things</p>",
			Location:        "Berlin",
			Salary:          "€60,000 – €80,000",
			JobType:         "FULL_TIME, CONTRACTOR",
			Remote:          "TELECOMMUTE",
		}
		if f != want {
			t.Errorf("FromJSONLD() = %+v, want %+v", f, want)
		}
	})

	t.Run("skips malformed blocks and matches type lists in arrays", func(t *testing.T) {
		t.Parallel()

		doc := mustDoc(t, `
			<script type="application/ld+json">{ not json</script>
			<script type="application/ld+json">[{"@type": "BreadcrumbList"}, {"type": ["Thing", "JobPosting"], "name": "SRE", "baseSalary": {"value": {"value": 52500}, "currency": "EUR"}}]</script>`)

		f, ok := FromJSONLD(doc)
		if !ok {
			t.Fatal("expected JobPosting metadata")
		}
		if f.Title != "SRE" {
			t.Errorf("Title = %q, want name fallback", f.Title)
		}
		if f.Salary != "€52,500" {
			t.Errorf("Salary = %q", f.Salary)
		}
	})

	t.Run("region is used when locality is missing", func(t *testing.T) {
		t.Parallel()

		doc := mustDoc(t, `<script type="application/ld+json">{"@type":"JobPosting","jobLocation":{"address":{"addressRegion":"Bavaria"}}}</script>`)
		f, _ := FromJSONLD(doc)
		if f.Location != "Bavaria" {
			t.Errorf("Location = %q", f.Location)
		}
	})

	t.Run("absent metadata", func(t *testing.T) {
		t.Parallel()

		if _, ok := FromJSONLD(mustDoc(t, `<h1>Hi</h1>`)); ok {
			t.Error("expected no metadata")
		}
	})
}

func TestChainResolveOrder(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<div class="job-title">Class title</div><div data-testid="job-title">  Test   id </div>`)
	chain := Chain{
		FirstText("h1"),
		FirstText(`[data-testid="job-title"]`),
		FirstText(".job-title"),
	}

	value, strategy := chain.Resolve(doc)
	if value != "Test id" {
		t.Errorf("value = %q, want the test-id match", value)
	}
	if strategy != `text:[data-testid="job-title"]` {
		t.Errorf("strategy = %q", strategy)
	}

	if v, s := (Chain{}).Resolve(doc); v != "" || s != "" {
		t.Errorf("empty chain resolved to %q via %q", v, s)
	}
}

func TestLocationPrefersExactClass(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<span class="location-label">Standort</span><div class="location">München</div>`)
	value, strategy := DefaultStrategies().Location.Resolve(doc)
	if value != "München" || strategy != "text:.location" {
		t.Errorf("Resolve() = %q via %q, want München via text:.location", value, strategy)
	}
}

func TestDetailFallbackSelectors(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<html><body>
		<h1>  Senior   Go Engineer </h1>
		<div data-testid="company-name">ACME</div>
		<div data-testid="job-location">Hamburg</div>
		`+markerSpan+`Salary forecastHow forecasts are calculated €50,000 €40,000 €45,000 €60,000</span>
		`+markerSpan+`Hybrid</span>
		<span class="aria-extended-text__Text-sc-a2c0913c-0 gmPLC">Full-time</span>
		<p class="body-copy-styles__BodyCopy-sc-b3916c1b-0 gIutZc job-intro__AdditionalInfo-sc-5658992b-1 hDMxHz">Software Development</p>
		<div data-testid="job-description"><p>Write Go.</p><script>track()</script></div>
	</body></html>`)

	p, sources, err := NewExtractor(WithClock(func() time.Time { return fixedNow })).
		Detail(doc, "https://www.xing.com/jobs/hamburg-go-123456", "IT")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}

	checks := map[string][2]string{
		"title":            {p.Title, "Senior Go Engineer"},
		"company":          {p.Company, "ACME"},
		"location":         {p.Location, "Hamburg"},
		"salary":           {p.Salary, "€50,000 (avg), range €40,000 – €60,000"},
		"remote":           {p.Remote, "Hybrid"},
		"job_type":         {p.JobType, "Full-time"},
		"job_category":     {p.JobCategory, "Software Development"},
		"discipline":       {p.Discipline, "IT"},
		"description_text": {p.DescriptionText, "Write Go."},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
	if p.DescriptionHTML != "<p>Write Go.</p><script>track()</script>" {
		t.Errorf("description_html = %q", p.DescriptionHTML)
	}
	if !p.ScrapedAt.Equal(fixedNow) || p.ScrapedAt.Location() != time.UTC {
		t.Errorf("ScrapedAt = %v, want %v in UTC", p.ScrapedAt, fixedNow)
	}
	if p.DatePosted != "" {
		t.Errorf("DatePosted = %q, want empty without metadata", p.DatePosted)
	}
	if sources["title"] != "text:h1" || sources["location"] != `text:[data-testid="job-location"]` {
		t.Errorf("sources = %v", sources)
	}
	if _, ok := sources["date_posted"]; ok {
		t.Errorf("date_posted reported a source although it is empty: %v", sources)
	}
}

func TestDetailRemoteNeedsRepeatedMarker(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<h1>Role</h1>`+markerSpan+`€52,500</span>`)
	p, _, err := NewExtractor().Detail(doc, "https://www.xing.com/jobs/x-123456", "")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if p.Salary != "€52,500" {
		t.Errorf("Salary = %q", p.Salary)
	}
	if p.Remote != "" {
		t.Errorf("Remote = %q, want empty with a single marker", p.Remote)
	}
}

func TestDetailMetadataWinsOverSelectors(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<script type="application/ld+json">{"@type":"JobPosting","title":"From metadata","jobLocationType":"TELECOMMUTE"}</script>
		<h1>From selector</h1>
		<div class="company-name">Selector Co</div>`+markerSpan+`€1</span>`+markerSpan+`On-site</span>`)

	p, sources, err := NewExtractor().Detail(doc, "https://www.xing.com/jobs/x-123456", "")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if p.Title != "From metadata" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Company != "Selector Co" {
		t.Errorf("Company = %q, want selector fallback for a field metadata lacks", p.Company)
	}
	if p.Remote != "TELECOMMUTE" {
		t.Errorf("Remote = %q, want metadata over the positional heuristic", p.Remote)
	}
	if sources["title"] != SourceJSONLD || sources["company"] != "text:.company-name" {
		t.Errorf("sources = %v", sources)
	}
}

func TestDetailAllFieldsMissing(t *testing.T) {
	t.Parallel()

	p, sources, err := NewExtractor().Detail(mustDoc(t, `<html><body></body></html>`), "https://www.xing.com/jobs/x-123456", "")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if p.URL != "https://www.xing.com/jobs/x-123456" {
		t.Errorf("URL = %q", p.URL)
	}
	missing := p.MissingFields()
	if len(missing) == 0 {
		t.Error("expected missing fields to be reported")
	}
	if len(sources) != 0 {
		t.Errorf("sources = %v, want none", sources)
	}
}

func TestDetailRecoversFromPanics(t *testing.T) {
	t.Parallel()

	s := DefaultStrategies()
	s.Location = Chain{{Name: "boom", Extract: func(*goquery.Document) string { panic("selector exploded") }}}

	e := NewExtractor()
	e.strategies = s

	p, sources, err := e.Detail(mustDoc(t, `<h1>x</h1>`), "https://www.xing.com/jobs/x-123456", "")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Detail() error = %v, want ErrExtraction", err)
	}
	if p != nil || sources != nil {
		t.Error("expected no posting after a panic")
	}
}
