// Package ai provides the LLM agent nodes. OpenAI, Groq and OpenRouter share
// the OpenAI-compatible chat API; Claude goes through the Anthropic SDK. The
// orchestrator treats all of them as plain nodes.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

const (
	NodeTypeOpenAI     = "OpenAI"
	NodeTypeGroq       = "Groq"
	NodeTypeOpenRouter = "OpenRouter"
	NodeTypeClaude     = "Claude"

	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	defaultMaxTokens = 1024
)

type Config struct {
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
}

// buildPrompt appends the node's inputs to the configured prompt so upstream
// market data and indicator values reach the model.
func buildPrompt(config Config, inputs map[string]any) (string, error) {
	if config.Prompt == "" {
		return "", fmt.Errorf("prompt is not configured")
	}

	if len(inputs) == 0 {
		return config.Prompt, nil
	}

	context, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("failed to serialize inputs: %w", err)
	}

	var b strings.Builder
	b.WriteString(config.Prompt)
	b.WriteString("\n\nContext data:\n")
	b.Write(context)

	return b.String(), nil
}

// chatNode covers every OpenAI-compatible provider.
type chatNode struct {
	client *openai.Client
	config Config
}

func newChatCreator(apiKey string, baseURL string, defaultModel string) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config Config
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if apiKey == "" {
			return nil, fmt.Errorf("api key is not configured")
		}

		if config.Model == "" {
			config.Model = defaultModel
		}

		clientConfig := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			clientConfig.BaseURL = baseURL
		}

		return &chatNode{
			client: openai.NewClientWithConfig(clientConfig),
			config: config,
		}, nil
	})
}

func NewOpenAICreator(deps domain.NodeDeps) domain.NodeCreator {
	return newChatCreator(deps.AIConfig.OpenAIAPIKey, "", "gpt-4o-mini")
}

func NewGroqCreator(deps domain.NodeDeps) domain.NodeCreator {
	return newChatCreator(deps.AIConfig.GroqAPIKey, groqBaseURL, "llama-3.1-8b-instant")
}

func NewOpenRouterCreator(deps domain.NodeDeps) domain.NodeCreator {
	return newChatCreator(deps.AIConfig.OpenRouterAPIKey, openRouterBaseURL, "openrouter/auto")
}

func (n *chatNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	prompt, err := buildPrompt(n.config, inputs)
	if err != nil {
		return nil, err
	}

	messages := []openai.ChatCompletionMessage{}

	if n.config.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: n.config.SystemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	maxTokens := n.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       n.config.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(n.config.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return map[string]any{
		"response": resp.Choices[0].Message.Content,
		"model":    resp.Model,
		"tokens":   resp.Usage.TotalTokens,
	}, nil
}

func (n *chatNode) RequiredInputs() []string {
	return nil
}

func (n *chatNode) Outputs() []string {
	return []string{"response", "model", "tokens"}
}

type claudeNode struct {
	client anthropic.Client
	config Config
}

func NewClaudeCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config Config
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if deps.AIConfig.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("api key is not configured")
		}

		if config.Model == "" {
			config.Model = string(anthropic.ModelClaudeSonnet4_5)
		}

		return &claudeNode{
			client: anthropic.NewClient(option.WithAPIKey(deps.AIConfig.AnthropicAPIKey)),
			config: config,
		}, nil
	})
}

func (n *claudeNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	prompt, err := buildPrompt(n.config, inputs)
	if err != nil {
		return nil, err
	}

	maxTokens := n.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(n.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if n.config.SystemPrompt != "" {
		req.System = []anthropic.TextBlockParam{{Text: n.config.SystemPrompt}}
	}

	if n.config.Temperature > 0 {
		req.Temperature = anthropic.Float(n.config.Temperature)
	}

	resp, err := n.client.Messages.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return map[string]any{
		"response": text.String(),
		"model":    string(resp.Model),
		"tokens":   int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

func (n *claudeNode) RequiredInputs() []string {
	return nil
}

func (n *claudeNode) Outputs() []string {
	return []string{"response", "model", "tokens"}
}
