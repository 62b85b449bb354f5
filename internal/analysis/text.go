package analysis

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// around returns text from before runes ahead of start to after runes past end
func around(text string, start, end, before, after int) string {
	from := start
	for i := 0; i < before && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < after && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return text[from:to]
}

// titleCase upper-cases every letter that follows a non-letter
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// listLines splits a captured block into cleaned lines: at most limit lines
// are considered, bullets and the cutset are trimmed, lines not longer than
// minLen are dropped and kept lines are cut to maxLen runes
func listLines(block string, limit, minLen, maxLen int, cutset string) []string {
	out := []string{}
	lines := strings.Split(block, "\n")
	if len(lines) > limit {
		lines = lines[:limit]
	}
	for _, line := range lines {
		line = strings.Trim(line, cutset)
		if utf8.RuneCountInString(line) > minLen {
			out = append(out, truncate(line, maxLen))
		}
	}
	return out
}

const bulletCutset = " -•*\t"

// submatch returns capture group 1 of the first match, or "" and false
func submatch(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 {
		return "", false
	}
	return m[1], true
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

// parseLooseDate parses a short date with any of the layouts
func parseLooseDate(s string, loc *time.Location, layouts ...string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// wholeDays floors a duration to whole days
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

// round1 rounds to one decimal place
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// containsAny reports whether s contains any of the substrings
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
