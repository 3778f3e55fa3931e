package domain

import (
	"strings"
	"testing"
)

func TestParseMistakeSegmentsReconstructsAnswer(t *testing.T) {
	answer := "I has worked on many projects, and I enjoys them."
	jsonText := `[
		{"text": "I has worked", "isError": true, "correction": "I have worked"},
		{"text": " on many projects, and ", "isError": false, "correction": ""},
		{"text": "I enjoys them.", "isError": true, "correction": "I enjoy them."}
	]`

	segments, err := ParseMistakeSegments(answer, jsonText)
	if err != nil {
		t.Fatalf("ParseMistakeSegments failed: %v", err)
	}

	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	if b.String() != answer {
		t.Fatalf("concatenated segments = %q, want %q", b.String(), answer)
	}
}

func TestParseMistakeSegmentsRejectsMismatch(t *testing.T) {
	answer := "the full original answer"
	jsonText := `[{"text": "something else entirely", "isError": false, "correction": ""}]`

	if _, err := ParseMistakeSegments(answer, jsonText); err == nil {
		t.Fatal("expected reconstruction error, got nil")
	}
}

func TestParseMistakeSegmentsRejectsBadJSON(t *testing.T) {
	if _, err := ParseMistakeSegments("anything", "not json at all"); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestParseMistakeSegmentsClearsCorrectionsOnCleanSpans(t *testing.T) {
	answer := "all good here"
	jsonText := `[{"text": "all good here", "isError": false, "correction": "stray"}]`

	segments, err := ParseMistakeSegments(answer, jsonText)
	if err != nil {
		t.Fatalf("ParseMistakeSegments failed: %v", err)
	}
	if segments[0].Correction != "" {
		t.Fatalf("expected cleared correction, got %q", segments[0].Correction)
	}
}

func TestParseMistakeSegmentsAcceptsFallback(t *testing.T) {
	segments, err := ParseMistakeSegments("whatever the user said", FallbackSegmentsJSON())
	if err != nil {
		t.Fatalf("fallback array must always parse: %v", err)
	}
	if len(segments) != 1 || segments[0].IsError || segments[0].Text != FallbackApology {
		t.Fatalf("unexpected fallback segments: %+v", segments)
	}
}

func TestLastAssistantText(t *testing.T) {
	s := &Session{Conversation: []*Message{
		{ID: 1, Role: RoleSystem, Text: SystemMarkerText},
		{ID: 2, Role: RoleAssistant, Text: "first question"},
		{ID: 3, Role: RoleUser, Text: "answer"},
		{ID: 4, Role: RoleAssistant, Text: "second question"},
	}}

	if got := s.LastAssistantText(); got != "second question" {
		t.Fatalf("LastAssistantText = %q", got)
	}

	empty := &Session{}
	if got := empty.LastAssistantText(); got != NoQuestionPlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}
