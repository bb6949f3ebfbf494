package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

var itemLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Product[:\s]*[^\n]+`),
	regexp.MustCompile(`(?i)Description[:\s]*[^\n]+`),
	regexp.MustCompile(`(?i)Item[:\s]*[^\n]+`),
	regexp.MustCompile(`(?i)Service[:\s]*[^\n]+`),
}

var itemLineBoilerplate = regexp.MustCompile(`(?i)invoice|date|total|amount|tax|₹|\$`)

func items(text string) []string {
	var out []string
	for _, pattern := range itemLabelPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			item := match
			if idx := strings.Index(item, ":"); idx >= 0 {
				item = item[idx+1:]
			}
			item = strings.TrimSpace(item)
			if n := utf8.RuneCountInString(item); n > 3 && n < 100 {
				out = append(out, item)
			}
		}
	}

	if len(out) == 0 {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			n := utf8.RuneCountInString(line)
			if n <= 5 || n >= 80 || itemLineBoilerplate.MatchString(line) {
				continue
			}
			out = append(out, line)
			if len(out) >= domain.MaxItems {
				break
			}
		}
	}

	if len(out) == 0 {
		return []string{placeholderItem}
	}
	if len(out) > domain.MaxItems {
		out = out[:domain.MaxItems]
	}
	return out
}
