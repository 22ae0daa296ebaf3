// Package news provides the market news and sentiment nodes. Without a news
// API key the fetch node serves development headlines, and without an LLM key
// sentiment analysis falls back to a keyword scorer.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

const (
	NodeTypeNewsFetch         = "NewsFetch"
	NodeTypeSentimentAnalysis = "SentimentAnalysis"

	newsAPIEndpoint = "https://newsapi.org/v2/everything"

	defaultHeadlineLimit = 5
)

type NewsFetchConfig struct {
	APIKey string `json:"api_key"`
	Symbol string `json:"symbol"`
	Limit  int    `json:"limit"`
}

type NewsFetchNode struct {
	httpClient *http.Client
	config     NewsFetchConfig
}

func NewNewsFetchCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config NewsFetchConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.Limit <= 0 {
			config.Limit = defaultHeadlineLimit
		}

		return &NewsFetchNode{
			httpClient: &http.Client{Timeout: 10 * time.Second},
			config:     config,
		}, nil
	})
}

func (n *NewsFetchNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	symbol := n.config.Symbol
	if symbol == "" {
		if fromInput, ok := inputs["symbol"].(string); ok {
			symbol = fromInput
		}
	}

	if n.config.APIKey == "" {
		headlines := mockHeadlines(symbol, n.config.Limit)

		return map[string]any{
			"headlines": headlines,
			"source":    "mock_data",
			"count":     len(headlines),
		}, nil
	}

	query := url.Values{}
	query.Set("q", subjectOr(symbol, "forex trading"))
	query.Set("pageSize", strconv.Itoa(n.config.Limit))
	query.Set("apiKey", n.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build news request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode news response: %w", err)
	}

	if payload.Status != "ok" {
		return nil, fmt.Errorf("news api error: %s", payload.Message)
	}

	headlines := make([]string, 0, len(payload.Articles))
	articles := make([]map[string]any, 0, len(payload.Articles))

	for _, article := range payload.Articles {
		headlines = append(headlines, article.Title)
		articles = append(articles, map[string]any{
			"title":        article.Title,
			"description":  article.Description,
			"url":          article.URL,
			"published_at": article.PublishedAt,
		})
	}

	return map[string]any{
		"headlines": headlines,
		"news_data": articles,
		"source":    "newsapi",
		"count":     len(headlines),
	}, nil
}

func (n *NewsFetchNode) RequiredInputs() []string {
	return nil
}

func (n *NewsFetchNode) Outputs() []string {
	return []string{"headlines", "news_data", "source", "count"}
}

func subjectOr(symbol string, fallback string) string {
	if symbol != "" {
		return symbol
	}

	return fallback
}

func mockHeadlines(symbol string, limit int) []string {
	subject := subjectOr(symbol, "Majors")

	headlines := []string{
		fmt.Sprintf("Market analysis for %s: volatility expected ahead of NFP", subject),
		"Central bank official hints at potential rate cuts in Q1",
		fmt.Sprintf("%s technical outlook remains bullish on daily timeframe", subject),
		"US dollar index softens as inflation data comes in lower than expected",
		"Global trade tensions ease as new negotiations begin",
	}

	if limit < len(headlines) {
		headlines = headlines[:limit]
	}

	return headlines
}

type SentimentAnalysisConfig struct {
	Model string `json:"model"`
}

// SentimentAnalysisNode scores upstream headlines from -1 (bearish) to 1
// (bullish). With an OpenAI key configured it asks the model and falls back
// to the keyword scorer on any model error.
type SentimentAnalysisNode struct {
	client *openai.Client
	config SentimentAnalysisConfig
}

func NewSentimentAnalysisCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config SentimentAnalysisConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.Model == "" {
			config.Model = "gpt-4o-mini"
		}

		node := &SentimentAnalysisNode{config: config}
		if deps.AIConfig.OpenAIAPIKey != "" {
			node.client = openai.NewClient(deps.AIConfig.OpenAIAPIKey)
		}

		return node, nil
	})
}

func (n *SentimentAnalysisNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	headlines, err := headlinesFromInputs(inputs)
	if err != nil {
		return nil, err
	}

	if n.client != nil {
		if result, err := n.analyzeWithModel(ctx, headlines); err == nil {
			return result, nil
		}
	}

	score := keywordScore(headlines)

	return map[string]any{
		"sentiment_score": score,
		"sentiment_label": sentimentLabel(score, 0.1),
		"analysis":        "calculated using keyword analysis",
	}, nil
}

func (n *SentimentAnalysisNode) RequiredInputs() []string {
	return []string{"headlines"}
}

func (n *SentimentAnalysisNode) Outputs() []string {
	return []string{"sentiment_score", "sentiment_label", "analysis"}
}

const sentimentPrompt = "Analyze the sentiment of these financial headlines and respond with a single combined score between -1 (very bearish) and 1 (very bullish), followed by a short justification."

func (n *SentimentAnalysisNode) analyzeWithModel(ctx context.Context, headlines []string) (map[string]any, error) {
	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.config.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: sentimentPrompt + "\n\nHeadlines:\n" + strings.Join(headlines, "\n"),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	analysis := resp.Choices[0].Message.Content

	score, ok := extractScore(analysis)
	if !ok {
		return nil, fmt.Errorf("no sentiment score in model response")
	}

	score = clampScore(score)

	return map[string]any{
		"sentiment_score": score,
		"sentiment_label": sentimentLabel(score, 0.2),
		"analysis":        analysis,
	}, nil
}

func headlinesFromInputs(inputs map[string]any) ([]string, error) {
	raw, ok := inputs["headlines"]
	if !ok {
		return nil, fmt.Errorf("headlines input is required")
	}

	switch value := raw.(type) {
	case []string:
		if len(value) == 0 {
			return nil, fmt.Errorf("headlines input is empty")
		}

		return value, nil
	case []any:
		headlines := make([]string, 0, len(value))
		for _, item := range value {
			if headline, ok := item.(string); ok {
				headlines = append(headlines, headline)
			}
		}

		if len(headlines) == 0 {
			return nil, fmt.Errorf("headlines input is empty")
		}

		return headlines, nil
	default:
		return nil, fmt.Errorf("headlines input must be a list of strings")
	}
}

var (
	scorePattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

	bullishWords = []string{"bullish", "up", "growth", "gain", "strong", "buy", "positive"}
	bearishWords = []string{"bearish", "down", "decline", "loss", "weak", "sell", "negative"}
)

func extractScore(text string) (float64, bool) {
	match := scorePattern.FindString(text)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

func keywordScore(headlines []string) float64 {
	text := strings.ToLower(strings.Join(headlines, " "))

	score := 0
	for _, word := range bullishWords {
		score += strings.Count(text, word)
	}
	for _, word := range bearishWords {
		score -= strings.Count(text, word)
	}

	return clampScore(float64(score) / float64(len(headlines)*2))
}

func clampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}

	return score
}

func sentimentLabel(score float64, threshold float64) string {
	switch {
	case score > threshold:
		return "Bullish"
	case score < -threshold:
		return "Bearish"
	default:
		return "Neutral"
	}
}
