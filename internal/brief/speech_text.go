package brief

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	separatorRe   = regexp.MustCompile(`[-_/\\|]`)
	symbolRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe       = regexp.MustCompile(`\s+`)
	militaryRe    = regexp.MustCompile(`\b([0-2]\d)([0-5]\d)\b`)
	clockStringRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s*$`)
)

// CleanForSpeech strips the punctuation and symbols that TTS engines read
// out literally. Separators become spaces, other symbols are dropped,
// whitespace is collapsed.
func CleanForSpeech(s string) string {
	if s == "" {
		return s
	}

	t := transform.Chain(
		norm.NFKC,
		runes.Remove(runes.In(unicode.Cf)),
		width.Fold,
	)
	if folded, _, err := transform.String(t, strings.ToValidUTF8(s, "")); err == nil {
		s = folded
	}

	s = separatorRe.ReplaceAllString(s, " ")
	s = symbolRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FixMilitaryTimes rewrites standalone 24-hour tokens such as "1200 to
// 1800" into "noon to 6 PM". Tokens with an hour above 23 are left alone,
// and 19xx/20xx tokens are read as years unless a time word sits next to
// them ("from 1930", "2000 to 2100").
func FixMilitaryTimes(s string) string {
	matches := militaryRe.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		tok := s[m[0]:m[1]]
		hour, _ := strconv.Atoi(s[m[2]:m[3]])
		minute, _ := strconv.Atoi(s[m[4]:m[5]])

		b.WriteString(s[last:m[0]])
		if hour <= 23 && (!yearLike(tok) || timeContext(s[:m[0]], s[m[1]:])) {
			b.WriteString(spokenHourMinute(hour, minute))
		} else {
			b.WriteString(tok)
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func yearLike(tok string) bool {
	return strings.HasPrefix(tok, "19") || strings.HasPrefix(tok, "20")
}

var (
	timeWordsBefore = map[string]bool{"at": true, "from": true, "to": true, "until": true, "till": true, "by": true}
	timeWordsAfter  = map[string]bool{"to": true, "until": true, "till": true, "hrs": true, "hours": true}
)

func timeContext(before, after string) bool {
	if words := strings.Fields(strings.ToLower(before)); len(words) > 0 && timeWordsBefore[words[len(words)-1]] {
		return true
	}
	if words := strings.Fields(strings.ToLower(after)); len(words) > 0 && timeWordsAfter[words[0]] {
		return true
	}
	return false
}

// SpokenTime renders t for speech: "9 AM", "2 30 PM", "noon", "midnight".
// Colons and leading zeros are avoided because engines read them oddly.
func SpokenTime(t time.Time) string {
	return spokenHourMinute(t.Hour(), t.Minute())
}

// SpokenClock converts a 12-hour clock string ("09:00 AM") the same way as
// SpokenTime. Unrecognized input is returned unchanged.
func SpokenClock(s string) string {
	m := clockStringRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return s
	}

	pm := strings.EqualFold(m[3], "PM")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return spokenHourMinute(hour, minute)
}

func spokenHourMinute(hour, minute int) string {
	if minute == 0 {
		switch hour {
		case 0:
			return "midnight"
		case 12:
			return "noon"
		}
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	if minute == 0 {
		return fmt.Sprintf("%d %s", h, period)
	}
	return fmt.Sprintf("%d %02d %s", h, minute, period)
}
