package stackviz

import "strings"

// dangerousSubstrings are case-sensitive substrings that would let a branch
// name break out of the markdown link/table cell it's rendered into, per
// the sanitization table in the original Rust implementation's
// src/stack_viz.rs.
var dangerousSubstrings = []string{
	"](http",
	"](https",
	"](javascript",
	"](file",
	"](data",
	"![",
	"```",
	"<!--",
	"-->",
}

// dangerousTags are HTML tags that must never appear verbatim in a branch
// name we splice into a PR body.
var dangerousTags = []string{
	"<script", "<img", "<iframe", "<object", "<embed", "<svg", "<a ", "<a>",
}

// dangerousEventHandlers are case-insensitive inline event-handler tokens.
var dangerousEventHandlers = []string{"onerror", "onload", "onclick"}

// dangerousRunes are Unicode control/formatting characters that can hide or
// reorder the rendered text (zero-width, bidi overrides, BOM).
var dangerousRunes = buildDangerousRuneSet()

func buildDangerousRuneSet() map[rune]struct{} {
	set := make(map[rune]struct{})
	for r := rune(0x200B); r <= 0x200F; r++ {
		set[r] = struct{}{}
	}
	for r := rune(0x202A); r <= 0x202E; r++ {
		set[r] = struct{}{}
	}
	for r := rune(0x2066); r <= 0x2069; r++ {
		set[r] = struct{}{}
	}
	set[0xFEFF] = struct{}{}
	return set
}

// IsDangerousBranchName reports whether name must be refused at tracking
// time because rendering it into a PR body's stack-viz table could break out
// of the markdown/HTML structure or smuggle invisible characters.
func IsDangerousBranchName(name string) bool {
	lower := strings.ToLower(name)

	for _, s := range dangerousSubstrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	for _, tag := range dangerousTags {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	for _, handler := range dangerousEventHandlers {
		if strings.Contains(lower, handler) {
			return true
		}
	}
	for _, r := range name {
		if _, bad := dangerousRunes[r]; bad {
			return true
		}
	}
	return false
}
