// Package extractor pulls structured facts out of fetched markup. Every
// function degrades to an empty result on unparseable input; extraction
// can reduce a scrape's yield but never fails it.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Facts runs extraction for each requested fact type against the markup.
// Requested types come back non-nil even when nothing matched, so callers
// can tell "requested, empty" from "not requested".
func Facts(markup string, types []models.FactType) models.Facts {
	var f models.Facts
	for _, ft := range types {
		switch ft {
		case models.FactEmails:
			f.Emails = Emails(markup)
		case models.FactPhoneNumbers:
			f.PhoneNumbers = PhoneNumbers(markup)
		case models.FactHeadings:
			f.Headings = Headings(markup)
		case models.FactLinks:
			f.Links = Links(markup)
		}
	}
	return f
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// emailRejects filters false positives out of regex hits: consecutive
// dots, a second @, leading/trailing punctuation, or characters outside
// the accepted set.
var emailRejects = []*regexp.Regexp{
	regexp.MustCompile(`\.{2,}`),
	regexp.MustCompile(`@.*@`),
	regexp.MustCompile(`^[.@]`),
	regexp.MustCompile(`[.@]$`),
	regexp.MustCompile(`[^\w.@+-]`),
}

// Emails scans raw markup for email addresses, deduplicates, sorts, and
// drops candidates that fail validation. The shortest accepted form is 8
// characters; a@b.com (7) sits just below the boundary.
func Emails(markup string) []string {
	seen := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(markup, -1) {
		seen[m] = struct{}{}
	}

	valid := make([]string, 0, len(seen))
	for email := range seen {
		if isValidEmail(email) {
			valid = append(valid, email)
		}
	}
	sort.Strings(valid)
	return valid
}

func isValidEmail(email string) bool {
	if len(email) <= 7 {
		return false
	}
	for _, re := range emailRejects {
		if re.MatchString(email) {
			return false
		}
	}
	return true
}

// phonePattern unions the four regional formats in a single alternation,
// strongest first: international with country code, US parenthesized,
// generic separator triplets, short European groupings. One scan keeps a
// number caught by a stronger pattern from being re-matched in part by a
// weaker one (the international form would otherwise also surface its
// bare national tail as a second number).
var phonePattern = regexp.MustCompile(
	`\+\d{1,3}[-.\s]?\d{1,3}[-.\s]?\d{3,4}[-.\s]?\d{3,4}` +
		`|\(\d{3}\)[-.\s]?\d{3}[-.\s]?\d{4}` +
		`|\d{3}[-.\s]?\d{3}[-.\s]?\d{4}` +
		`|\d{2}[-.\s]?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}`,
)

// PhoneNumbers scans raw markup for phone numbers, normalizes each hit to
// digits (keeping one leading +), deduplicates, sorts, and keeps only
// values with at least 8 digits.
func PhoneNumbers(markup string) []string {
	seen := make(map[string]struct{})
	for _, m := range phonePattern.FindAllString(markup, -1) {
		seen[normalizePhone(m)] = struct{}{}
	}

	valid := make([]string, 0, len(seen))
	for number := range seen {
		if digitCount(number) >= 8 {
			valid = append(valid, number)
		}
	}
	sort.Strings(valid)
	return valid
}

func normalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i, r := range raw {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
