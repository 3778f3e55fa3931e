package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackApology is the safe replacement text returned when a model call
// fails. It is also the marker segment text of the fallback analysis array.
const FallbackApology = "I'm sorry, I couldn't reach the interview service just now. Let's keep going."

// FallbackSegmentsJSON is the single-element segment array surfaced when the
// structured analysis call fails, so downstream parsing never fails even on
// upstream failure.
func FallbackSegmentsJSON() string {
	b, _ := json.Marshal([]MistakeSegment{{Text: FallbackApology}})
	return string(b)
}

// ParseMistakeSegments parses the model's analysis output and enforces the
// reconstruction invariant: the concatenated segment texts must equal the
// analyzed answer verbatim, whitespace and punctuation included. Corrections
// on non-error segments are cleared. The fallback array (a lone apology
// segment) is accepted as-is without reconstruction validation.
func ParseMistakeSegments(answer, jsonText string) ([]MistakeSegment, error) {
	var segments []MistakeSegment
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonText)), &segments); err != nil {
		return nil, fmt.Errorf("parsing analysis segments: %w", err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("analysis returned no segments")
	}

	if len(segments) == 1 && !segments[0].IsError && segments[0].Text == FallbackApology {
		segments[0].Correction = ""
		return segments, nil
	}

	var b strings.Builder
	for i := range segments {
		b.WriteString(segments[i].Text)
		if !segments[i].IsError {
			segments[i].Correction = ""
		}
	}
	if b.String() != answer {
		return nil, fmt.Errorf("analysis segments do not reconstruct the answer")
	}

	return segments, nil
}
