// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// missingValue is how an empty numeric cell reads back from the CSV exports.
const missingValue = "nan"

// parenthetical matches a "(...)" disambiguator such as "(Switzerland)".
var parenthetical = regexp.MustCompile(`\([^()]*\)`)

// TitleJournalQuery builds the first lookup stage.
func TitleJournalQuery(title, journal string) string {
	return "TITLE(" + title + ") AND SRCTITLE(" + journal + ")"
}

// TitleQuery builds the second lookup stage.
func TitleQuery(title string) string {
	return "TITLE(" + title + ")"
}

// CitationQuery builds the last lookup stage over all indexed fields.
func CitationQuery(citation string) string {
	return "ALL(" + citation + ")"
}

// CitedByQuery finds every document whose reference list contains eid.
func CitedByQuery(eid string) string {
	return "REFEID(" + eid + ")"
}

// FormatQuery builds the comparator query for one journal issue:
// EXACTSRCTITLE(name) [AND VOLUME(v)] [AND ISSUE(i)].
//
// Names carrying a parenthetical are quoted, otherwise Scopus reads the
// parentheses as grouping. Issue values that a spreadsheet turned into dates
// ("5-Jun", "Jun-5") are turned back into numeric pairs.
func FormatQuery(name, volume, issue string) string {
	if parenthetical.MatchString(name) {
		name = `"` + name + `"`
	}
	issue = undoDateIssue(issue)

	var b strings.Builder
	b.WriteString("EXACTSRCTITLE(" + name + ")")
	if !absent(volume) {
		b.WriteString(" AND VOLUME(" + volume + ")")
	}
	if !absent(issue) {
		b.WriteString(" AND ISSUE(" + issue + ")")
	}
	return b.String()
}

func absent(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, missingValue)
}

// undoDateIssue reverses spreadsheet date coercion. "5-Jun" was issue 5-6 and
// "Jun-5" was issue 6-5. Days are checked against a non-leap year so "29-Feb"
// stays as written.
func undoDateIssue(issue string) string {
	if t, err := time.Parse("2-Jan-2006", issue+"-1900"); err == nil {
		return fmt.Sprintf("%d-%d", t.Day(), int(t.Month()))
	}
	if t, err := time.Parse("Jan-2-2006", issue+"-1900"); err == nil {
		return fmt.Sprintf("%d-%d", int(t.Month()), t.Day())
	}
	return issue
}
