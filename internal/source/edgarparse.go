package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// documentText strips markup from an EDGAR HTML document and collapses
// whitespace. Plain-text filings pass through.
func documentText(raw string) (string, error) {
	if !strings.Contains(raw, "<") {
		return strings.Join(strings.Fields(raw), " "), nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", eris.Wrap(err, "edgar: parse document")
	}
	doc.Find("script, style, ix\\:header").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12,
}

var (
	segmentCountRe = regexp.MustCompile(`(?i)\b(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(?:reportable|business|operating)\s+segments\b`)
	segmentNamesRe = regexp.MustCompile(`(?i)(?:reportable|operating|business) segments (?:are|consist of|include|were)\s*:?\s+([^.;]{3,300})`)
	foundedRe      = regexp.MustCompile(`(?i)\b(?:incorporated|founded|established|organized)\b[^.]{0,80}?\b(?:in|on)\s+(?:[A-Z][a-z]+\s+(?:\d{1,2},\s+)?)?((?:1[6-9]|20)\d{2})\b`)
	ceoSinceRe     = regexp.MustCompile(`(?i)(?:Chief Executive Officer|\bCEO\b)[^.]{0,160}?\bsince\s+(?:[A-Z][a-z]+\s+(?:\d{1,2},\s+)?)?((?:19|20)\d{2})\b`)
	cfoSinceRe     = regexp.MustCompile(`(?i)(?:Chief Financial Officer|\bCFO\b)[^.]{0,160}?\bsince\s+(?:[A-Z][a-z]+\s+(?:\d{1,2},\s+)?)?((?:19|20)\d{2})\b`)
	listSplitRe    = regexp.MustCompile(`\s*(?:,\s*and\s+|,\s*|\s+and\s+)\s*`)
)

// ParseSegments extracts the reported segment count and, where the filing
// lists them inline, the segment names.
func ParseSegments(text string) (int, []string) {
	count := 0
	if m := segmentCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			count = n
		} else {
			count = numberWords[strings.ToLower(m[1])]
		}
	}

	var names []string
	if m := segmentNamesRe.FindStringSubmatch(text); m != nil {
		for _, part := range listSplitRe.Split(m[1], -1) {
			part = strings.Trim(strings.TrimSpace(part), `"“”'`)
			if part != "" && len(part) <= 80 {
				names = append(names, part)
			}
		}
	}
	if count == 0 {
		count = len(names)
	}
	return count, names
}

// ParseFoundedYear finds the incorporation or founding year.
func ParseFoundedYear(text string, maxYear int) (int, bool) {
	for _, m := range foundedRe.FindAllStringSubmatch(text, 5) {
		y, err := strconv.Atoi(m[1])
		if err == nil && y <= maxYear {
			return y, true
		}
	}
	return 0, false
}

// ParseTenures finds CEO and CFO tenure in whole years as of year.
func ParseTenures(text string, year int) (ceo, cfo int, ceoOK, cfoOK bool) {
	ceo, ceoOK = tenure(ceoSinceRe, text, year)
	cfo, cfoOK = tenure(cfoSinceRe, text, year)
	return ceo, cfo, ceoOK, cfoOK
}

func tenure(re *regexp.Regexp, text string, year int) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	since, err := strconv.Atoi(m[1])
	if err != nil || since > year {
		return 0, false
	}
	return year - since, true
}
