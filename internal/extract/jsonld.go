package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jobPostingType is the schema.org type of job posting metadata.
const jobPostingType = "JobPosting"

// Fields holds the values read from structured metadata. Empty strings mean
// the value was absent.
type Fields struct {
	Title           string
	Company         string
	DatePosted      string
	DescriptionHTML string
	Location        string
	Salary          string
	JobType         string
	Remote          string
}

// FromJSONLD returns the first schema.org JobPosting found in the page's
// application/ld+json scripts. Malformed blocks are skipped.
func FromJSONLD(doc *goquery.Document) (Fields, bool) {
	var (
		found  Fields
		ok     bool
		blocks = doc.Find(`script[type="application/ld+json"]`)
	)
	blocks.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return true
		}
		if obj := findJobPosting(parsed); obj != nil {
			found, ok = mapJobPosting(obj), true
			return false
		}
		return true
	})
	return found, ok
}

// findJobPosting looks through an object, an array of objects or an @graph
// for the first JobPosting entry.
func findJobPosting(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if obj := findJobPosting(e); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if isJobPosting(t) {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return findJobPosting(graph)
		}
	}
	return nil
}

func isJobPosting(obj map[string]any) bool {
	typ, ok := obj["@type"]
	if !ok {
		typ = obj["type"]
	}
	switch t := typ.(type) {
	case string:
		return t == jobPostingType
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s == jobPostingType {
				return true
			}
		}
	}
	return false
}

func mapJobPosting(obj map[string]any) Fields {
	f := Fields{
		Title:           firstNonEmpty(scalar(obj["title"]), scalar(obj["name"])),
		Company:         scalar(path(obj, "hiringOrganization", "name")),
		DatePosted:      scalar(obj["datePosted"]),
		DescriptionHTML: strings.TrimSpace(scalar(obj["description"])),
		JobType:         joinList(obj["employmentType"]),
		Remote:          joinList(obj["jobLocationType"]),
	}

	loc := obj["jobLocation"]
	if list, ok := loc.([]any); ok && len(list) > 0 {
		loc = list[0]
	}
	if m, ok := loc.(map[string]any); ok {
		f.Location = firstNonEmpty(
			scalar(path(m, "address", "addressLocality")),
			scalar(path(m, "address", "addressRegion")),
		)
	}

	if salary, ok := obj["baseSalary"].(map[string]any); ok {
		f.Salary = salaryFromMetadata(salary)
	} else {
		f.Salary = scalar(obj["baseSalary"])
	}

	return f
}

// salaryFromMetadata renders a MonetaryAmount. A single value wins over a
// min/max range; amounts get the currency symbol so that ParseSalary can
// format them.
func salaryFromMetadata(salary map[string]any) string {
	symbol := currencySymbols[strings.ToUpper(scalar(salary["currency"]))]

	value := salary["value"]
	valueObj, isObj := value.(map[string]any)
	if !isObj {
		valueObj = map[string]any{}
		if value != nil {
			valueObj["value"] = value
		}
	}

	if v := amount(valueObj["value"], symbol); v != "" {
		return v
	}
	low := firstNonEmpty(amount(valueObj["minValue"], symbol), amount(salary["minValue"], symbol))
	high := firstNonEmpty(amount(valueObj["maxValue"], symbol), amount(salary["maxValue"], symbol))
	switch {
	case low != "" && high != "" && low != high:
		return low + " – " + high
	default:
		return firstNonEmpty(low, high)
	}
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"GBP": "£",
	"USD": "$",
}

// amount formats a numeric or string amount. Numbers are grouped by
// thousands ("€52,500").
func amount(v any, symbol string) string {
	switch n := v.(type) {
	case float64:
		return symbol + groupThousands(n)
	case string:
		return strings.TrimSpace(n)
	}
	return ""
}

func groupThousands(f float64) string {
	digits, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(f), 'f', -1, 64), ".")
	var b strings.Builder
	if f < 0 {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func path(obj map[string]any, keys ...string) any {
	var cur any = obj
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func joinList(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, e := range list {
			if s := scalar(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return scalar(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
