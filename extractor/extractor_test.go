package extractor

import (
	"reflect"
	"sort"
	"testing"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

func TestEmails_DedupedAndSorted(t *testing.T) {
	markup := `<p>write to test@example.com or another@example.org,
		or again test@example.com</p>`

	got := Emails(markup)
	want := []string{"another@example.org", "test@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emails() = %v, want %v", got, want)
	}
}

func TestEmails_Validation(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{
			name:   "seven char boundary rejected",
			markup: "mail a@b.com here",
			want:   []string{},
		},
		{
			name:   "eight chars accepted",
			markup: "mail ab@cd.ef here",
			want:   []string{"ab@cd.ef"},
		},
		{
			name:   "consecutive dots rejected",
			markup: "bad..name@example.com",
			want:   []string{},
		},
		{
			name:   "leading dot rejected",
			markup: "contact .lead@example.com now",
			want:   []string{},
		},
		{
			name:   "percent in local part rejected by charset rule",
			markup: "user%tag@example.com",
			want:   []string{},
		},
		{
			name:   "plus tagging accepted",
			markup: "user+tag@example.com",
			want:   []string{"user+tag@example.com"},
		},
		{
			name:   "no matches yields empty not nil",
			markup: "<p>nothing here</p>",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Emails(tt.markup)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Emails(%q) = %v, want %v", tt.markup, got, tt.want)
			}
		})
	}
}

func TestEmails_Idempotent(t *testing.T) {
	markup := `<p>z@last.org then a@first.com then m@middle.net again a@first.com</p>`
	first := Emails(markup)
	second := Emails(markup)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-running extraction changed the result: %v vs %v", first, second)
	}
	if !sort.StringsAreSorted(first) {
		t.Errorf("Emails() = %v, not sorted", first)
	}
}

func TestPhoneNumbers_FormatsAndNormalization(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{
			name:   "us parenthesized",
			markup: "Call (123) 456-7890 today",
			want:   []string{"1234567890"},
		},
		{
			name:   "international keeps leading plus",
			markup: "Intl: +1-987-654-3210",
			want:   []string{"+19876543210"},
		},
		{
			name:   "simple separator format",
			markup: "Fax 555.123.4567 please",
			want:   []string{"5551234567"},
		},
		{
			name:   "same number in two formats dedupes",
			markup: "(123) 456-7890 or 123-456-7890",
			want:   []string{"1234567890"},
		},
		{
			name:   "no digits yields empty not nil",
			markup: "<p>no numbers</p>",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PhoneNumbers(tt.markup)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PhoneNumbers(%q) = %v, want %v", tt.markup, got, tt.want)
			}
		})
	}
}

func TestPhoneNumbers_MinimumDigits(t *testing.T) {
	for _, got := range PhoneNumbers("+12 34 5678 910 and 22 333 44 55 and (800) 555-0199") {
		if digitCount(got) < 8 {
			t.Errorf("PhoneNumbers() returned %q with %d digits, want >= 8", got, digitCount(got))
		}
	}
}

func TestHeadings_DocumentOrder(t *testing.T) {
	markup := `<html><body>
		<h2>Second Level First</h2>
		<h1>Then The Title</h1>
		<h3>Ignored</h3>
		<h2>  </h2>
		<h1>Big <em>Finish</em></h1>
	</body></html>`

	got := Headings(markup)
	want := []models.Heading{
		{Level: 2, Text: "Second Level First"},
		{Level: 1, Text: "Then The Title"},
		{Level: 1, Text: "Big Finish"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Headings() = %v, want %v", got, want)
	}
}

func TestHeadings_EmptyMarkup(t *testing.T) {
	if got := Headings(""); len(got) != 0 {
		t.Errorf("Headings(\"\") = %v, want empty", got)
	}
}

func TestLinks_Classification(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []models.Link
	}{
		{
			name: "rooted path is internal without base",
			markup: `<a href="/page1">One</a>
				<a href="https://other.org">Two</a>`,
			want: []models.Link{
				{URL: "/page1", Text: "One", Internal: true},
				{URL: "https://other.org", Text: "Two", Internal: false},
			},
		},
		{
			name: "base tag classifies absolute urls",
			markup: `<head><base href="https://example.com"></head>
				<body>
				<a href="https://example.com/about">About</a>
				<a href="https://other.org">Away</a>
				</body>`,
			want: []models.Link{
				{URL: "https://example.com/about", Text: "About", Internal: true},
				{URL: "https://other.org", Text: "Away", Internal: false},
			},
		},
		{
			name: "canonical link supplies the domain",
			markup: `<head><link rel="canonical" href="https://example.com/articles/1"></head>
				<body><a href="https://example.com/articles/2">Next</a></body>`,
			want: []models.Link{
				{URL: "https://example.com/articles/2", Text: "Next", Internal: true},
			},
		},
		{
			name:   "relative href without base is external",
			markup: `<a href="page.html">Rel</a>`,
			want: []models.Link{
				{URL: "page.html", Text: "Rel", Internal: false},
			},
		},
		{
			name: "skips empty hash and javascript hrefs",
			markup: `<a href="">x</a><a href="#">y</a>
				<a href="javascript:void(0)">z</a><a href="/keep">Keep</a>`,
			want: []models.Link{
				{URL: "/keep", Text: "Keep", Internal: true},
			},
		},
		{
			name:   "text falls back to href",
			markup: `<a href="/bare"></a>`,
			want: []models.Link{
				{URL: "/bare", Text: "/bare", Internal: true},
			},
		},
		{
			name:   "duplicate anchors are kept",
			markup: `<a href="/p">first</a><a href="/p">second</a>`,
			want: []models.Link{
				{URL: "/p", Text: "first", Internal: true},
				{URL: "/p", Text: "second", Internal: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Links(tt.markup)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Links() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The canonical end-to-end fixture: all four fact types out of one page.
func TestFacts_AllTypes(t *testing.T) {
	markup := `<html>
		<head><title>Test Page</title></head>
		<body>
			<h1>Test Heading 1</h1>
			<h2>Test Heading 2</h2>
			<p>This is a test page with emails: test@example.com and another@example.org</p>
			<p>Contact us at: (123) 456-7890 or +1-987-654-3210</p>
			<a href="/page1">Internal Link</a>
			<a href="https://external-site.com">External Link</a>
		</body>
	</html>`

	got := Facts(markup, models.AllFactTypes)

	wantEmails := []string{"another@example.org", "test@example.com"}
	if !reflect.DeepEqual(got.Emails, wantEmails) {
		t.Errorf("Emails = %v, want %v", got.Emails, wantEmails)
	}

	if len(got.PhoneNumbers) != 2 {
		t.Fatalf("PhoneNumbers = %v, want 2 entries", got.PhoneNumbers)
	}
	for _, p := range got.PhoneNumbers {
		if digitCount(p) < 8 {
			t.Errorf("phone %q has fewer than 8 digits", p)
		}
	}

	wantHeadings := []models.Heading{
		{Level: 1, Text: "Test Heading 1"},
		{Level: 2, Text: "Test Heading 2"},
	}
	if !reflect.DeepEqual(got.Headings, wantHeadings) {
		t.Errorf("Headings = %v, want %v", got.Headings, wantHeadings)
	}

	var internal, external int
	for _, l := range got.Links {
		if l.Internal {
			internal++
		} else {
			external++
		}
	}
	if internal != 1 || external != 1 {
		t.Errorf("Links = %v, want 1 internal + 1 external", got.Links)
	}
}

func TestFacts_OnlyRequestedTypesPopulated(t *testing.T) {
	markup := `<body><h1>Title</h1><a href="/x">x</a><p>a@example.com</p></body>`

	got := Facts(markup, []models.FactType{models.FactHeadings})
	if got.Headings == nil {
		t.Error("Headings requested but nil")
	}
	if got.Emails != nil || got.PhoneNumbers != nil || got.Links != nil {
		t.Errorf("unrequested types populated: %+v", got)
	}
}

func TestFacts_UnparseableMarkupDegradesToEmpty(t *testing.T) {
	got := Facts("\x00\x01 not really html <<<", models.AllFactTypes)
	if len(got.Emails) != 0 || len(got.PhoneNumbers) != 0 ||
		len(got.Headings) != 0 || len(got.Links) != 0 {
		t.Errorf("garbage markup produced facts: %+v", got)
	}
	if got.Emails == nil || got.Headings == nil || got.Links == nil {
		t.Error("requested types must be non-nil even for garbage markup")
	}
}
