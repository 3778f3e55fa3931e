package llm

import (
	"fmt"
	"strings"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

const interviewerSystemPrompt = `
You are a professional job interviewer conducting a mock interview.

Your role:
- You are warm, encouraging, and focused: a good interviewer puts the
  candidate at ease while still probing their experience.
- You ask exactly ONE question at a time. Never bundle several questions.
- You ground every question in what the candidate has actually said or what
  their resume actually contains. No generic trivia.

Style guidelines:
- Keep every question to 15 words or fewer.
- Plain spoken English; the question will be read aloud by a voice.
- No markdown, no numbering, no stage directions.
`

const firstQuestionInstructions = `
Task: open the interview.

- Greet the candidate warmly in one short sentence.
- Then ask ONE opening question of 15 words or fewer, grounded in a concrete
  detail from the resume below.

Resume:
%s
`

const followUpInstructions = `
Task: continue the interview.

Below is the conversation so far. Ask exactly ONE follow-up question of 15
words or fewer. Progress from general topics toward specific and technical
ones as the interview advances: early questions explore background and
motivation, later questions dig into concrete skills, decisions, and details
of what the candidate described.

Conversation so far:
%s
`

const analysisSystemPrompt = `
You are an interview coach reviewing a candidate's spoken answer.

Break the answer into contiguous segments. Mark each segment as an error or
not. The segments, concatenated in order, MUST reproduce the original answer
exactly, character for character, including all whitespace and punctuation.
Do not paraphrase, drop, or reorder any part of the answer.

For each erroneous segment, supply a short correction. A segment that is not
an error must have an empty correction.

Errors to flag: grammar mistakes, factual contradictions within the answer,
filler that undermines the response, and phrasing a candidate should avoid.
`

func analysisInstructions(question, answer string) string {
	return fmt.Sprintf("Interview question:\n%s\n\nCandidate's answer:\n%s\n", question, answer)
}

const suggestionSystemPrompt = `
You are an interview coach. Rewrite the candidate's answer into a stronger
model answer to the same question.

- Preserve the intent and the facts of the original answer; invent nothing.
- Plain spoken English, first person, ready to be said aloud.
- No markdown, no preamble, no commentary: output only the improved answer.
`

// SuggestionPolicy bounds the length of a suggested answer. See the cap and
// shrink modes in the config package.
type SuggestionPolicy struct {
	// Shrink requires the suggestion to stay under the original answer's
	// word count. When false, the cap policy applies.
	Shrink bool

	// MaxWords caps the suggestion under the cap policy.
	MaxWords int

	// ShortAnswerTarget is the target length for very short originals under
	// the cap policy, so a brief answer is expanded rather than compressed
	// further.
	ShortAnswerTarget int
}

func (p SuggestionPolicy) instructions(answer string) string {
	words := countWords(answer)
	if p.Shrink {
		limit := words - 1
		if limit < 1 {
			limit = 1
		}
		return fmt.Sprintf("Keep the improved answer under %d words: it must be shorter than the original.", limit+1)
	}
	if words < p.ShortAnswerTarget {
		return fmt.Sprintf("The original is brief; aim for roughly %d words, and never exceed %d.", p.ShortAnswerTarget, p.MaxWords)
	}
	return fmt.Sprintf("Keep the improved answer within %d words.", p.MaxWords)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// BuildFirstQuestionPrompt builds the opening-question request.
func BuildFirstQuestionPrompt(resumeText string) Prompt {
	return Prompt{
		System: interviewerSystemPrompt,
		User:   fmt.Sprintf(firstQuestionInstructions, resumeText),
	}
}

// BuildFollowUpPrompt serializes the conversation as a role-labeled
// transcript and builds the follow-up request.
func BuildFollowUpPrompt(history []*domain.Message) Prompt {
	return Prompt{
		System: interviewerSystemPrompt,
		User:   fmt.Sprintf(followUpInstructions, Transcript(history)),
	}
}

// BuildAnalysisPrompt builds the mistake-breakdown request.
func BuildAnalysisPrompt(question, answer string) Prompt {
	return Prompt{
		System: analysisSystemPrompt,
		User:   analysisInstructions(question, answer),
	}
}

// BuildSuggestionPrompt builds the model-answer request under the given
// length policy.
func BuildSuggestionPrompt(question, answer string, policy SuggestionPolicy) Prompt {
	return Prompt{
		System: suggestionSystemPrompt,
		User: analysisInstructions(question, answer) + "\n" +
			policy.instructions(answer),
	}
}

// Prompt is the system prompt plus the content sent as the user turn.
type Prompt struct {
	System string
	User   string
}

// Transcript renders the conversation in order with role labels, one line
// per message.
func Transcript(history []*domain.Message) string {
	var lines []string
	for _, m := range history {
		var label string
		switch m.Role {
		case domain.RoleAssistant:
			label = "Interviewer"
		case domain.RoleUser:
			label = "Candidate"
		default:
			label = "System"
		}
		lines = append(lines, label+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}
