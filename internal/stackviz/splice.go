package stackviz

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// sentinelVersion is bumped whenever the block format changes in a way that
// would need old readers to re-render rather than trust a cached body.
const sentinelVersion = 1

// versionedMarker matches the current "<!-- dm:stack:vN:hash:start -->" /
// "...:end -->" pair. The hash ties a start tag to its matching end tag so
// nested or adjacent HTML comments from other tools don't get mistaken for
// ours.
var versionedMarker = regexp.MustCompile(`<!-- dm:stack:v\d+:([0-9a-f]+):(start|end) -->`)

// legacy markers predate the hash-tagged scheme (the teacher predecessor's
// "diamond" block); still accepted on read, never written.
const (
	legacySentinelStart = "<!-- diamond:stack:start -->"
	legacySentinelEnd   = "<!-- diamond:stack:end -->"
)

func blockHash(block string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(block))
	return fmt.Sprintf("%x", h.Sum32())
}

// WrapBlock frames block between a fresh hash-tagged sentinel pair, ready to
// be spliced into a PR body by UpdatePRDescription.
func WrapBlock(block string) string {
	hash := blockHash(block)
	start := fmt.Sprintf("<!-- dm:stack:v%d:%s:start -->", sentinelVersion, hash)
	end := fmt.Sprintf("<!-- dm:stack:v%d:%s:end -->", sentinelVersion, hash)
	return start + "\n" + block + "\n" + end
}

// UpdatePRDescription excises any existing sentinel-framed stack block from
// original and appends a freshly rendered one, preserving whatever user
// content sits above it. If stackBlock is empty, the result is just the
// trimmed user content with no stack block at all. Idempotent: calling this
// repeatedly with the same stackBlock converges to a stable body.
func UpdatePRDescription(original, stackBlock string) string {
	userContent := strings.TrimRight(excise(original), " \t\n")

	if stackBlock == "" {
		return userContent
	}

	wrapped := WrapBlock(stackBlock)
	if userContent == "" {
		return wrapped
	}
	return userContent + "\n\n" + wrapped
}

// excise removes the first sentinel-framed region it finds in body (current
// hash-tagged form first, then the legacy unversioned form), returning the
// remainder.
func excise(body string) string {
	if start, end, ok := findVersionedRegion(body); ok {
		return body[:start] + body[end:]
	}
	if start, end, ok := findRegion(body, legacySentinelStart, legacySentinelEnd); ok {
		return body[:start] + body[end:]
	}
	return body
}

func findVersionedRegion(body string) (start, end int, ok bool) {
	matches := versionedMarker.FindAllStringSubmatchIndex(body, -1)
	for i, m := range matches {
		// m layout: [fullStart fullEnd hashStart hashEnd kindStart kindEnd]
		kind := body[m[4]:m[5]]
		if kind != "start" {
			continue
		}
		hash := body[m[2]:m[3]]
		for _, m2 := range matches[i+1:] {
			if body[m2[4]:m2[5]] == "end" && body[m2[2]:m2[3]] == hash {
				return m[0], m2[1], true
			}
		}
	}
	return 0, 0, false
}

func findRegion(body, startMarker, endMarker string) (start, end int, ok bool) {
	start = strings.Index(body, startMarker)
	if start == -1 {
		return 0, 0, false
	}
	endMarkerIdx := strings.Index(body[start:], endMarker)
	if endMarkerIdx == -1 {
		return 0, 0, false
	}
	end = start + endMarkerIdx + len(endMarker)
	return start, end, true
}
