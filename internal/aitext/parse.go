package aitext

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrNoExtractableContent means the response contained nothing that parses
// as a keyword at all. Distinct from a response that parsed fine but whose
// keywords were all filtered away downstream.
var ErrNoExtractableContent = errors.New("no extractable content in model response")

// ErrNoTitle means the response never produced the expected title line.
var ErrNoTitle = errors.New("no title line in model response")

const titleSentinel = "완성된 상품명:"

// Title is a parsed title-generation response: the title itself plus
// whatever explanation followed it.
type Title struct {
	Name        string
	Explanation string
}

// ParseKeywords extracts keywords from a model response. Lines starting
// with '#' or '-' are commentary and skipped; remaining lines are split on
// commas; '+' joiners are removed; anything under 2 runes is discarded.
// Duplicates (case-insensitive) keep the first-seen form.
func ParseKeywords(resp string) ([]string, error) {
	var raw []string
	for _, line := range strings.Split(strings.TrimSpace(resp), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			kw := strings.ReplaceAll(strings.TrimSpace(part), "+", "")
			if utf8.RuneCountInString(kw) >= 2 {
				raw = append(raw, kw)
			}
		}
	}
	if len(raw) == 0 {
		return nil, ErrNoExtractableContent
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out, nil
}

var titleLinePrefixRe = regexp.MustCompile(`^\d*[.)]?\s*` + titleSentinel)

// ParseGeneratedTitle finds the sentinel-prefixed title line and returns
// the title with the rest of the response as explanation. Bracket
// placeholders the model sometimes echoes are stripped.
func ParseGeneratedTitle(resp string) (Title, error) {
	lines := strings.Split(strings.TrimSpace(resp), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		loc := titleLinePrefixRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		name := strings.TrimSpace(line[loc[1]:])
		name = strings.TrimPrefix(name, "[")
		name = strings.TrimSuffix(name, "]")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		explanation := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		return Title{Name: name, Explanation: explanation}, nil
	}
	return Title{}, ErrNoTitle
}
