// Package llm implements the completion client on Azure OpenAI.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"voicechat/core"
)

// Config holds connection options for the Azure OpenAI endpoint.
type Config struct {
	APIKey     string `json:"api_key"`
	Endpoint   string `json:"endpoint"`
	APIVersion string `json:"api_version"`
}

// DefaultConfig returns a Config with the stable API version pre-set.
// Populate APIKey and Endpoint before use.
func DefaultConfig() Config {
	return Config{
		APIVersion: "2024-12-01-preview",
	}
}

// AzureCompletionClient implements core.CompletionClient against the Azure
// OpenAI chat completions API.
type AzureCompletionClient struct {
	client *openai.Client
	logger *core.Logger
}

// NewAzureCompletionClient validates the connection config and builds the
// client. Missing credentials are a startup failure, not a per-call one.
func NewAzureCompletionClient(config Config, logger *core.Logger) (*AzureCompletionClient, error) {
	if config.APIKey == "" {
		return nil, &core.ConfigurationError{Field: "api_key", Reason: "Azure OpenAI API key is required"}
	}
	if config.Endpoint == "" {
		return nil, &core.ConfigurationError{Field: "endpoint", Reason: "Azure OpenAI endpoint is required"}
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.Endpoint)
	if config.APIVersion != "" {
		clientConfig.APIVersion = config.APIVersion
	}

	return &AzureCompletionClient{
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger.With(map[string]any{"component": "azure_llm"}),
	}, nil
}

// Complete sends the full ordered history plus the resolved chat parameters
// and returns the assistant reply with surrounding whitespace trimmed. One
// failure is one reported failure; there are no retries here.
func (c *AzureCompletionClient) Complete(ctx context.Context, history []core.Turn, params core.ChatParameters) (string, error) {
	req, err := BuildRequest(history, params)
	if err != nil {
		return "", err
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &core.CompletionServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &core.CompletionServiceError{Err: fmt.Errorf("response contained no choices")}
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", &core.CompletionServiceError{Err: fmt.Errorf("response contained an empty reply")}
	}

	c.logger.Debug("completion finished",
		"turns", len(history),
		"reply_chars", len(reply),
	)
	return reply, nil
}

// BuildRequest maps the history and chat parameters onto the wire request.
// The mapping is exact and total: every parameter field is set, and an empty
// stop-sequence set omits the stop condition entirely rather than sending an
// empty list (those are different request shapes to the service).
func BuildRequest(history []core.Turn, params core.ChatParameters) (openai.ChatCompletionRequest, error) {
	if strings.TrimSpace(params.Deployment) == "" {
		return openai.ChatCompletionRequest{},
			&core.ConfigurationError{Field: "deploymentName", Reason: "deployment identifier is missing or blank"}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:            params.Deployment,
		Messages:         messages,
		MaxTokens:        params.MaxResponseLen,
		Temperature:      params.Temperature,
		TopP:             params.TopProbability,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	}
	if len(params.StopSequences) > 0 {
		req.Stop = params.StopSequences
	}
	return req, nil
}
