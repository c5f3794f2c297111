package generate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

// Completer issues one text-completion call and returns the raw reply.
// The reply carries no schema guarantee; ExtractQuestions is the shim.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient wraps the chat-completion endpoint as a Completer.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert quiz author for a learning platform. Reply with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", &GenerationError{Op: "completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Op: "completion", Err: fmt.Errorf("no choices in reply")}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &GenerationError{Op: "completion", Err: fmt.Errorf("empty reply")}
	}
	return content, nil
}

// buildPrompt assembles the generation request for the model.
func buildPrompt(req GenerateRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d quiz questions about: %s\n\n", req.Count, req.Topic))
	if req.Context != "" {
		sb.WriteString("Use the following lesson material as reference:\n")
		sb.WriteString(req.Context)
		sb.WriteString("\n\n")
	}
	sb.WriteString(fmt.Sprintf("Difficulty level: %s\n", req.Difficulty))
	if req.QuestionType != "" {
		sb.WriteString(fmt.Sprintf("Preferred question type: %s\n", req.QuestionType))
	}
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Respond with a JSON array of question objects\n")
	sb.WriteString("- Each object has: question, type (multiple_choice|true_false|short_answer), options, correct_answer, explanation\n")
	sb.WriteString("- Multiple choice questions must have exactly 4 options\n")
	sb.WriteString("- Incorrect options should be plausible but clearly wrong\n")
	sb.WriteString("- Questions should test understanding, not just memorization\n")

	return sb.String()
}

// GenerateRequest carries the authoring parameters for one quiz.
type GenerateRequest struct {
	Topic        string            `json:"topic"`
	Count        int               `json:"count"`
	Difficulty   quiz.Difficulty   `json:"difficulty"`
	QuestionType quiz.QuestionType `json:"question_type,omitempty"`
	Context      string            `json:"context,omitempty"`
	CourseID     string            `json:"course_id"`
	AuthorID     string            `json:"author_id"`
}
