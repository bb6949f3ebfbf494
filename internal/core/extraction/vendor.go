package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

var vendorLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Sold By:\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)Company:\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)Vendor:\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)From:\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)Bill From:\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)Supplier:\s*([^,\n]+)`),
}

var builtinVendors = []string{
	"MPS TELECOM RETAIL PRIVATE LIMITED",
	"Flipkart Internet Private Limited",
	"East Repair Inc.",
	"Amazon",
	"Microsoft",
	"Google",
	"Apple",
	"Tesla",
}

var (
	vendorHeaderBoilerplate = regexp.MustCompile(`(?i)invoice|bill|tax|date|order|phone|address|email`)
	hasLetter               = regexp.MustCompile(`[a-zA-Z]`)
	nonAlphanumeric         = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

const vendorHeaderLines = 10

type vendorRules struct {
	keywords []*regexp.Regexp
}

func newVendorRules(extra []string) vendorRules {
	names := append(append([]string(nil), builtinVendors...), extra...)
	keywords := make([]*regexp.Regexp, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(name)))
	}
	return vendorRules{keywords: keywords}
}

// match tries labels, then brand keywords, then the document header.
func (r vendorRules) match(text string) string {
	for _, pattern := range vendorLabelPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if vendor, ok := cleanVendor(m[1]); ok {
			return vendor
		}
	}

	for _, pattern := range r.keywords {
		if found := pattern.FindString(text); found != "" {
			if vendor, ok := cleanVendor(found); ok {
				return vendor
			}
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > vendorHeaderLines {
		lines = lines[:vendorHeaderLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 5 {
			continue
		}
		if vendorHeaderBoilerplate.MatchString(line) || !hasLetter.MatchString(line) {
			continue
		}
		return strings.TrimSpace(nonAlphanumeric.ReplaceAllString(line, ""))
	}

	return domain.UnknownVendor
}

func cleanVendor(raw string) (string, bool) {
	vendor := strings.TrimSpace(raw)
	if utf8.RuneCountInString(vendor) <= 2 {
		return "", false
	}
	vendor = strings.TrimSpace(strings.NewReplacer(",", "", ".", "", "\n", "").Replace(vendor))
	return vendor, vendor != ""
}
