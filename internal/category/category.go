// Package category implements hierarchical category matching over
// ">"-delimited taxonomy paths, plus majority-vote inference of the dominant
// category across a sample of listings.
//
// Internally a category is a structured path with an optional confidence
// percentage; the "경로 (NN%)" display string exists only at the UI/report
// boundary and is parsed tolerantly on the way back in.
package category

import (
	"fmt"
	"regexp"
	"strings"
)

var pctSuffixRe = regexp.MustCompile(`\s*\(\d+%\)\s*$`)

// Inference is a category path with the share of sampled listings that
// agreed on it.
type Inference struct {
	Path       string
	Confidence int
}

// String renders the display form used in tables and reports.
func (inf Inference) String() string {
	if inf.Path == "" {
		return ""
	}
	return fmt.Sprintf("%s (%d%%)", inf.Path, inf.Confidence)
}

// ParseDisplay splits a display string back into path and confidence. A
// missing "(NN%)" suffix means no percentage, not an error.
func ParseDisplay(s string) Inference {
	s = strings.TrimSpace(s)
	loc := pctSuffixRe.FindStringIndex(s)
	if loc == nil {
		return Inference{Path: s}
	}
	pct := 0
	fmt.Sscanf(strings.TrimSpace(s[loc[0]:]), "(%d%%)", &pct)
	return Inference{Path: strings.TrimSpace(s[:loc[0]]), Confidence: pct}
}

// PathsMatch reports whether two category paths agree up to the shorter
// path's depth. "(NN%)" suffixes are ignored and comparison is
// case-insensitive, so "가구 > 침대" matches "가구 > 침대 > 프레임" in either
// direction. A path with zero segments matches nothing.
func PathsMatch(target, candidate string) bool {
	t := segments(target)
	c := segments(candidate)
	if len(t) == 0 || len(c) == 0 {
		return false
	}
	depth := len(t)
	if len(c) < depth {
		depth = len(c)
	}
	for i := 0; i < depth; i++ {
		if t[i] != c[i] {
			return false
		}
	}
	return true
}

// InferDominant builds each listing's category path by joining its
// non-empty levels with " > ", then selects the most frequent path. Ties
// break toward the first-encountered path. The confidence is the winning
// path's share of listings that produced any path at all, rounded.
func InferDominant(paths []string) Inference {
	counts := map[string]int{}
	order := []string{}
	total := 0
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, seen := counts[p]; !seen {
			order = append(order, p)
		}
		counts[p]++
		total++
	}
	if total == 0 {
		return Inference{}
	}
	best := order[0]
	for _, p := range order[1:] {
		if counts[p] > counts[best] {
			best = p
		}
	}
	pct := int(float64(counts[best])/float64(total)*100 + 0.5)
	return Inference{Path: best, Confidence: pct}
}

// JoinLevels walks category levels in order and stops at the first empty
// one: a short path is a valid path, distinct from a longer one that shares
// its prefix.
func JoinLevels(levels ...string) string {
	kept := []string{}
	for _, lv := range levels {
		lv = strings.TrimSpace(lv)
		if lv == "" {
			break
		}
		kept = append(kept, lv)
	}
	return strings.Join(kept, " > ")
}

// JoinAll joins every non-empty level with " > ", skipping gaps. Category
// inference uses this form; listing paths use JoinLevels.
func JoinAll(levels ...string) string {
	kept := []string{}
	for _, lv := range levels {
		lv = strings.TrimSpace(lv)
		if lv == "" {
			continue
		}
		kept = append(kept, lv)
	}
	return strings.Join(kept, " > ")
}

func segments(path string) []string {
	cleaned := strings.ToLower(ParseDisplay(path).Path)
	parts := strings.Split(cleaned, ">")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
