// Package textnorm holds the pure string transforms shared by the keyword
// and listing pipelines: keyword splitting, the two normalization modes
// (comparison-form vs wire-form), and price/ID extraction from listing text.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	splitRe  = regexp.MustCompile(`[,\n]+`)
	digitsRe = regexp.MustCompile(`\d+`)

	// Ordered: the most specific listing URL shapes first. First numeric
	// capture wins.
	listingIDRes = []*regexp.Regexp{
		regexp.MustCompile(`https?://shopping\.naver\.com/catalog/(\d+)`),
		regexp.MustCompile(`https?://smartstore\.naver\.com/[^/]+/products/(\d+)`),
		regexp.MustCompile(`/catalog/(\d+)`),
		regexp.MustCompile(`/products/(\d+)`),
		regexp.MustCompile(`productId=(\d+)`),
	}
)

// SplitKeywords splits free text on comma and newline runs, trims each
// token, drops empties, and dedupes on the comparison form (so "강아지 간식"
// and "강아지간식" are one keyword) while keeping the first-seen form and
// the original relative order.
func SplitKeywords(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, part := range splitRe.Split(text, -1) {
		kw := strings.TrimSpace(part)
		if kw == "" {
			continue
		}
		key := ForComparison(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// ForComparison normalizes a keyword or listing title for identity checks
// only: trimmed, internal whitespace removed, lowercased. "강아지 간식" and
// "강아지간식" compare equal.
func ForComparison(keyword string) string {
	return strings.ToLower(stripSpace(strings.TrimSpace(keyword)))
}

// ForWire normalizes a keyword for the search-volume/shopping provider,
// which accepts no whitespace or punctuation and matches case-insensitively
// on the uppercased form. Only Hangul syllables, ASCII letters, and digits
// survive.
func ForWire(keyword string) string {
	cleaned := stripSpace(strings.TrimSpace(keyword))
	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		switch {
		case r >= '가' && r <= '힣':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// ExtractPrice concatenates every digit run in the text and parses the
// result. "12,000원" becomes 12000. This is deliberately lossy; it is not a
// currency parser. Returns 0 when the text carries no digits or the joined
// digits overflow.
func ExtractPrice(text string) int {
	runs := digitsRe.FindAllString(text, -1)
	if len(runs) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.Join(runs, ""))
	if err != nil {
		return 0
	}
	return n
}

// ExtractListingID pulls the numeric listing ID out of a known product URL
// shape (catalog path, store product path, or productId query parameter).
// Returns "" when no shape matches.
func ExtractListingID(url string) string {
	if url == "" {
		return ""
	}
	for _, re := range listingIDRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// StripMarkup removes the inline emphasis markup the shopping provider
// embeds in listing titles ("<b>...</b>" and friends) and collapses the
// remaining whitespace. Unparseable input falls back to the raw string.
func StripMarkup(title string) string {
	if !strings.ContainsRune(title, '<') {
		return strings.TrimSpace(title)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(title))
	if err != nil {
		return strings.TrimSpace(title)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
