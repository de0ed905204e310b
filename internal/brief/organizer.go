package brief

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var hexToken = regexp.MustCompile(`^[0-9a-fA-F]{8,}$`)

// DisplayOrganizer turns an organizer value into something a person would
// say. Exchange Online sometimes hands out the legacy DN
// ("/o=ExchangeLabs/ou=.../cn=Recipients/cn=0a1b2c3d4e5f-john_smith")
// instead of a name; the trailing cn is reduced to "John Smith".
func DisplayOrganizer(organizer string) string {
	organizer = strings.TrimSpace(organizer)
	lower := strings.ToLower(organizer)
	if !strings.Contains(lower, "/o=exchangelabs/") {
		return organizer
	}

	idx := strings.LastIndex(lower, "cn=")
	if idx < 0 {
		return organizer
	}
	rdn := organizer[idx+len("cn="):]

	name := ""
	for _, part := range strings.Split(rdn, "-") {
		part = strings.TrimSpace(part)
		if part == "" || hexToken.MatchString(part) {
			continue
		}
		name = part
		break
	}
	if name == "" {
		return organizer
	}

	name = strings.NewReplacer("_", " ", ".", " ").Replace(name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}

// IsOrganizer reports whether the user's name appears in the organizer,
// either as given or after DN cleanup.
func IsOrganizer(userName, organizer string) bool {
	userName = strings.ToLower(strings.TrimSpace(userName))
	if userName == "" || organizer == "" {
		return false
	}
	return strings.Contains(strings.ToLower(organizer), userName) ||
		strings.Contains(strings.ToLower(DisplayOrganizer(organizer)), userName)
}
