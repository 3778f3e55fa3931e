package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

// mistakeSegmentSchema constrains the analysis call to an array of
// {text, isError, correction} objects.
var mistakeSegmentSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"text":       {Type: genai.TypeString},
			"isError":    {Type: genai.TypeBoolean},
			"correction": {Type: genai.TypeString},
		},
		Required: []string{"text", "isError", "correction"},
	},
}

// GeminiClient implements domain.InterviewModel against the hosted Gemini
// API. Every operation absorbs failures into a fallback value; errors are
// logged at this boundary and never propagated.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	policy    SuggestionPolicy

	// generate is the raw model call; replaced in tests.
	generate func(ctx context.Context, p Prompt, cfg *genai.GenerateContentConfig) (string, error)
}

// NewGeminiClient creates an InterviewModel backed by the Gemini API. The
// API key comes from configuration (process environment), never from users.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, policy SuggestionPolicy) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	c := &GeminiClient{
		client:    client,
		modelName: modelName,
		policy:    policy,
	}
	c.generate = c.callModel
	return c, nil
}

// GenerateFirstQuestion implements domain.InterviewModel.
func (c *GeminiClient) GenerateFirstQuestion(ctx context.Context, resumeText string) string {
	return c.textOp(ctx, "first_question", BuildFirstQuestionPrompt(resumeText))
}

// GenerateFollowUpQuestion implements domain.InterviewModel.
func (c *GeminiClient) GenerateFollowUpQuestion(ctx context.Context, history []*domain.Message) string {
	return c.textOp(ctx, "follow_up_question", BuildFollowUpPrompt(history))
}

// SuggestAnswer implements domain.InterviewModel.
func (c *GeminiClient) SuggestAnswer(ctx context.Context, question, answer string) string {
	return c.textOp(ctx, "suggest_answer", BuildSuggestionPrompt(question, answer, c.policy))
}

// AnalyzeMistakes implements domain.InterviewModel. The response is
// schema-constrained JSON; on failure the fallback segment array is returned
// so downstream parsing never fails.
func (c *GeminiClient) AnalyzeMistakes(ctx context.Context, question, answer string) string {
	cfg := c.baseConfig()
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = mistakeSegmentSchema

	text, err := c.generate(ctx, BuildAnalysisPrompt(question, answer), cfg)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("model call failed, using fallback",
			"operation", "analyze_mistakes", "error", err)
		return domain.FallbackSegmentsJSON()
	}
	return text
}

func (c *GeminiClient) textOp(ctx context.Context, operation string, p Prompt) string {
	text, err := c.generate(ctx, p, c.baseConfig())
	if err != nil {
		observability.LoggerFromContext(ctx).Error("model call failed, using fallback",
			"operation", operation, "error", err)
		return domain.FallbackApology
	}
	return text
}

func (c *GeminiClient) baseConfig() *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)

	return &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: 2048,
	}
}

func (c *GeminiClient) callModel(ctx context.Context, p Prompt, cfg *genai.GenerateContentConfig) (string, error) {
	cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
