// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package projection turns a journal entry into the bounded text string
// used as embedding input. The projection is deterministic and pure:
// the same entry always produces the same text.
package projection

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/hindsight/core"
)

// Version identifies the projection template. Stored on every
// EmbeddingRecord; a bump marks all previously stored vectors stale.
const Version int32 = 1

// Truncation bounds. These keep embedding requests small and topically
// focused; they are design choices, not API limits.
const (
	// MaxSituationChars caps the situation segment.
	MaxSituationChars = 800
	// MaxResolutionChars caps the outcome segment.
	MaxResolutionChars = 400
)

// segmentSeparator joins the labeled segments.
const segmentSeparator = " | "

// Project maps an entry to its embedding text: labeled segments in fixed
// order, joined by " | ". Absent fields omit their whole segment rather
// than emitting an empty one.
func Project(e *core.Entry) string {
	segments := make([]string, 0, 4)

	if e.Problem != "" {
		segments = append(segments, "Problem: "+e.Problem)
	}
	if e.Situation != "" {
		segments = append(segments, "Situation: "+truncate(e.Situation, MaxSituationChars))
	}
	if e.Resolution != "" {
		segments = append(segments, "Outcome: "+truncate(e.Resolution, MaxResolutionChars))
	}
	if len(e.Tags) > 0 {
		segments = append(segments, "Tags: "+strings.Join(e.Tags, ", "))
	}

	return strings.Join(segments, segmentSeparator)
}

// NeedsReembedding reports whether the stored vector for old is stale for
// new. Only the projected fields are compared: problem, situation,
// resolution, and tags. Edits to alternatives or confidence do not change
// the embedding text and are deliberately not rechecked.
func NeedsReembedding(old, new *core.Entry) bool {
	if old == nil || new == nil {
		return true
	}
	return old.Problem != new.Problem ||
		old.Situation != new.Situation ||
		old.Resolution != new.Resolution ||
		!slices.Equal(old.Tags, new.Tags)
}

// truncate hard-truncates s to at most max bytes on a rune boundary,
// appending an ellipsis marker when anything was cut. Cutting mid-rune
// would feed invalid UTF-8 to the embedding service.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
