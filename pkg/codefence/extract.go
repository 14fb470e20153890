// Package codefence pulls fenced code out of completion text.
package codefence

import "strings"

// Fence is the marker that opens and closes a code block.
const Fence = "```"

// Extract splits text on Fence and returns the segments that sit between an
// opening and a closing marker, each with its first line (the language tag) removed.
//
// Segments at odd 0-indexed positions are code. A segment with no line break is
// kept whole. When the marker count is odd the last marker opens a block that
// never closes; everything after it is dropped. This truncation is intended.
func Extract(text string) []string {
	segments := strings.Split(text, Fence)
	if len(segments)%2 == 0 {
		segments = segments[:len(segments)-1]
	}

	codes := make([]string, 0, len(segments)/2)
	for i := 1; i < len(segments); i += 2 {
		segment := segments[i]
		if nl := strings.IndexByte(segment, '\n'); nl >= 0 {
			segment = segment[nl+1:]
		}
		codes = append(codes, segment)
	}
	return codes
}
