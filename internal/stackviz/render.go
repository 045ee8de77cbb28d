// Package stackviz renders the stack-visualization markdown block spliced
// into pull/merge request descriptions, and guards branch names that would
// otherwise let an attacker break out of that markdown.
package stackviz

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// State is the forge-agnostic lifecycle state of a change request row.
type State string

const (
	StateOpen   State = "open"
	StateMerged State = "merged"
	StateClosed State = "closed"
)

// Entry is one row's worth of input: a change request plus its precomputed
// tree position. TreePrefix comes from RefStore.ComputeTreePrefix — this
// package has no RefStore dependency of its own so it can be unit tested in
// isolation and reused by any forge.
type Entry struct {
	Number     int64
	URL        string
	Title      string
	State      State
	Draft      bool
	HeadRef    string
	BaseRef    string
	TreePrefix string
	// Updated is the change request's last-updated time. Zero means
	// unknown (e.g. the forge didn't report one), in which case the
	// rendered table omits the age column entirely.
	Updated time.Time
}

// nbsp separates the tree prefix from the link, so Slack/GitHub renderers
// never collapse or re-wrap it away from its row.
const nbsp = " "

const maxTitleRunes = 50

// truncateTitle cuts s to 49 Unicode scalar values plus an ellipsis once it
// exceeds maxTitleRunes, matching spec §4.9's title-truncation rule.
func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTitleRunes {
		return s
	}
	return string(runes[:maxTitleRunes-1]) + "…"
}

// Render builds the `PR | Title | Status` table for entries, in the DFS
// order the caller already sorted them into, marking currentHeadRef's row.
func Render(entries []Entry, currentHeadRef string) string {
	showAge := false
	for _, e := range entries {
		if !e.Updated.IsZero() {
			showAge = true
			break
		}
	}

	var b strings.Builder
	b.WriteString("<details><summary>Stack</summary>\n\n")
	if showAge {
		b.WriteString("| PR | Title | Status | Updated |\n")
		b.WriteString("|---|---|---|---|\n")
	} else {
		b.WriteString("| PR | Title | Status |\n")
		b.WriteString("|---|---|---|\n")
	}

	for _, e := range entries {
		b.WriteString(renderRow(e, e.HeadRef == currentHeadRef, showAge))
		b.WriteByte('\n')
	}

	b.WriteString("\n</details>")
	return b.String()
}

func renderRow(e Entry, isCurrent, showAge bool) string {
	link := e.TreePrefix + nbsp + "[#" + strconv.FormatInt(e.Number, 10) + "](" + e.URL + ")"
	title := truncateTitle(e.Title)
	status := statusText(e)

	final := e.State == StateMerged || e.State == StateClosed

	cells := []string{link, title, status}
	if showAge {
		age := ""
		if !e.Updated.IsZero() {
			age = humanize.Time(e.Updated)
		}
		cells = append(cells, age)
	}
	if final {
		for i, c := range cells {
			cells[i] = "~~" + c + "~~"
		}
	}
	if isCurrent {
		for i, c := range cells {
			cells[i] = "**" + c + "**"
		}
		cells[0] = "👉 " + cells[0]
	}

	return "| " + strings.Join(cells, " | ") + " |"
}

func statusText(e Entry) string {
	if e.Draft {
		return "Draft"
	}
	switch e.State {
	case StateMerged:
		return "Merged"
	case StateClosed:
		return "Closed"
	default:
		return "Open"
	}
}
