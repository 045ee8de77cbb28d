package stackviz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDangerousBranchName(t *testing.T) {
	cases := map[string]bool{
		"feature/add-login":               false,
		"fix-123":                         false,
		"evil](https://example.com/steal": true,
		"![img]":                          true,
		"has <script>alert(1)</script>":   true,
		"onerror=alert(1)":                true,
		"embeds​zero-width":          true,
		"ends-with-dash-->":               true,
	}
	for name, want := range cases {
		require.Equal(t, want, IsDangerousBranchName(name), "branch %q", name)
	}
}

func TestTruncateTitle(t *testing.T) {
	short := "short title"
	require.Equal(t, short, truncateTitle(short))

	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	got := truncateTitle(long)
	require.Equal(t, 50, len([]rune(got)))
	require.True(t, []rune(got)[49] == '…')
}

func TestRenderMarksCurrentRow(t *testing.T) {
	entries := []Entry{
		{Number: 1, URL: "https://x/1", Title: "base", State: StateOpen, HeadRef: "base", TreePrefix: "└── "},
		{Number: 2, URL: "https://x/2", Title: "feature", State: StateOpen, HeadRef: "feature", TreePrefix: "    └── "},
	}
	out := Render(entries, "feature")
	require.Contains(t, out, "👉")
	require.Contains(t, out, "#1")
	require.Contains(t, out, "#2")
}

func TestRenderMergedRowStrikethrough(t *testing.T) {
	entries := []Entry{
		{Number: 3, URL: "https://x/3", Title: "old", State: StateMerged, HeadRef: "old"},
	}
	out := Render(entries, "current")
	require.Contains(t, out, "~~")
	require.Contains(t, out, "Merged")
}

func TestRenderDraftStatus(t *testing.T) {
	entries := []Entry{
		{Number: 4, URL: "https://x/4", Title: "wip", State: StateOpen, Draft: true, HeadRef: "wip"},
	}
	out := Render(entries, "")
	require.Contains(t, out, "Draft")
}

func TestUpdatePRDescriptionIdempotent(t *testing.T) {
	body := "Some description.\n\nMore context."
	first := UpdatePRDescription(body, "| PR | Title | Status |\n|---|---|---|")
	second := UpdatePRDescription(first, "| PR | Title | Status |\n|---|---|---|")
	require.Equal(t, first, second)
	require.Contains(t, first, "Some description.")
}

func TestUpdatePRDescriptionReplacesPriorBlock(t *testing.T) {
	body := "User text.\n\n" + WrapBlock("old block content")
	updated := UpdatePRDescription(body, "new block content")
	require.Contains(t, updated, "User text.")
	require.NotContains(t, updated, "old block content")
	require.Contains(t, updated, "new block content")
}

func TestUpdatePRDescriptionAcceptsLegacyMarker(t *testing.T) {
	body := "User text.\n\n" + legacySentinelStart + "\nlegacy block\n" + legacySentinelEnd
	updated := UpdatePRDescription(body, "")
	require.Equal(t, "User text.", updated)
}

func TestUpdatePRDescriptionEmptyBlockDropsSection(t *testing.T) {
	body := WrapBlock("stack content")
	updated := UpdatePRDescription(body, "")
	require.Equal(t, "", updated)
}
