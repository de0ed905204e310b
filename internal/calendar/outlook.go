package calendar

import (
	"fmt"
	"strings"
	"time"
)

// olFolderCalendar is the OlDefaultFolders value of the default calendar.
const olFolderCalendar = 9

const defaultMaxScan = 100

// OutlookOptions configures the Outlook COM source.
type OutlookOptions struct {
	// MaxScan caps the manual scan used when Items.Restrict fails.
	MaxScan int
	// Location converts appointment times; nil means time.Local.
	Location *time.Location
}

func (o OutlookOptions) normalized() OutlookOptions {
	if o.MaxScan <= 0 {
		o.MaxScan = defaultMaxScan
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// restriction builds the Items.Restrict filter for [from, to). Outlook's
// DASL-less filter syntax wants US-style dates.
func restriction(from, to time.Time) string {
	return fmt.Sprintf("[Start] >= '%s' AND [Start] < '%s'",
		from.Format("01/02/2006"), to.Format("01/02/2006"))
}

// splitCategories splits Outlook's category string. Outlook uses the list
// separator of the user's locale, which is "," or ";".
func splitCategories(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
