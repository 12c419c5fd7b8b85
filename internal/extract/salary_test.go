package extract

import "testing"

func TestParseSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "boilerplate before the amount is dropped",
			raw:  "Salary forecastHow forecasts are calculated €52,500",
			want: "€52,500",
		},
		{
			name: "two amounts form a range",
			raw:  "€40,000 €60,000",
			want: "€40,000 – €60,000",
		},
		{
			name: "forecast block yields average and range",
			raw:  "€50,000 €40,000 €45,000 €60,000",
			want: "€50,000 (avg), range €40,000 – €60,000",
		},
		{
			name: "duplicates collapse to a single amount",
			raw:  "€52,500 €52,500",
			want: "€52,500",
		},
		{
			name: "text without currency is returned cleaned",
			raw:  "  Competitive \n salary  ",
			want: "Competitive salary",
		},
		{
			name: "pound and dollar amounts with decimals",
			raw:  "from £1,234.50 to $2,000",
			want: "£1,234.50 – $2,000",
		},
		{
			name: "space after the currency symbol is kept",
			raw:  "€ 45.000",
			want: "€ 45.000",
		},
		{
			name: "currency without digits returns the trimmed tail",
			raw:  "Pay in €",
			want: "€",
		},
		{
			name: "empty input",
			raw:  "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseSalary(tt.raw); got != tt.want {
				t.Errorf("ParseSalary(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "scripts and styles are removed",
			html: `<p>Build <b>services</b></p><script>var x = 1;</script><style>p{}</style><p>in Go</p>`,
			want: "Build services in Go",
		},
		{
			name: "noscript and iframe are removed",
			html: `<div>Apply now<noscript>enable js</noscript><iframe>frame</iframe></div>`,
			want: "Apply now",
		},
		{
			name: "list items are separated",
			html: `<ul><li>Go</li><li>SQL</li></ul>`,
			want: "Go SQL",
		},
		{
			name: "entities are decoded",
			html: `<p>R&amp;D &nbsp; team</p>`,
			want: "R&D team",
		},
		{
			name: "empty fragment",
			html: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanText(tt.html); got != tt.want {
				t.Errorf("CleanText() = %q, want %q", got, tt.want)
			}
		})
	}
}
