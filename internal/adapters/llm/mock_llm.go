package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

// MockModel is a deterministic InterviewModel for dev mode and tests.
type MockModel struct{}

func NewMockModel() *MockModel {
	return &MockModel{}
}

func (m *MockModel) GenerateFirstQuestion(ctx context.Context, resumeText string) string {
	words := strings.Fields(resumeText)
	topic := "your background"
	if len(words) > 0 {
		n := len(words)
		if n > 4 {
			n = 4
		}
		topic = strings.Join(words[:n], " ")
	}
	return fmt.Sprintf("Welcome, glad you're here. Tell me about %s?", topic)
}

func (m *MockModel) GenerateFollowUpQuestion(ctx context.Context, history []*domain.Message) string {
	turns := 0
	for _, msg := range history {
		if msg.Role == domain.RoleUser {
			turns++
		}
	}
	return fmt.Sprintf("Interesting. Can you go deeper on point %d?", turns)
}

func (m *MockModel) AnalyzeMistakes(ctx context.Context, question, answer string) string {
	// One clean segment covering the whole answer keeps the reconstruction
	// invariant trivially true.
	b, _ := json.Marshal([]domain.MistakeSegment{{Text: answer}})
	return string(b)
}

func (m *MockModel) SuggestAnswer(ctx context.Context, question, answer string) string {
	return "In my experience, " + strings.TrimSpace(answer)
}
