// Package openai implements llm.Model over the OpenAI-compatible chat
// completions API via github.com/sashabaranov/go-openai. Any endpoint
// that speaks the same protocol (Azure, vLLM, litellm, Ollama) works by
// pointing BaseURL at it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golemforge/golem-forge/internal/llm"
	openailib "github.com/sashabaranov/go-openai"
)

// Client implements llm.Model.
type Client struct {
	client *openailib.Client
	config *Config
}

// GetConfig returns the client's configuration.
func (c *Client) GetConfig() *Config {
	return c.config
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clientConfig := openailib.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	httpTimeout := time.Duration(config.HTTPTimeout) * time.Second
	clientConfig.HTTPClient = &http.Client{Timeout: httpTimeout}

	return &Client{
		client: openailib.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// NewClientFromEnv creates a client using environment variables.
func NewClientFromEnv() (*Client, error) {
	config, err := NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return NewClient(config)
}

// ID returns the configured model identifier.
func (c *Client) ID() string { return c.config.Model }

// ContextWindow returns the model's context window in tokens.
func (c *Client) ContextWindow() int { return c.config.ResolveContextWindow() }

func toOpenAIMessages(messages []llm.Message) []openailib.ChatCompletionMessage {
	out := make([]openailib.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		m := openailib.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		if msg.Role == llm.RoleTool {
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		}
		if msg.Role == llm.RoleAssistant && len(msg.ToolCalls) > 0 {
			m.ToolCalls = make([]openailib.ToolCall, len(msg.ToolCalls))
			for j, tc := range msg.ToolCalls {
				m.ToolCalls[j] = openailib.ToolCall{
					ID:   tc.ID,
					Type: openailib.ToolTypeFunction,
					Function: openailib.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				}
			}
		}
		out[i] = m
	}
	return out
}

func toOpenAITools(tools []llm.ToolDefinition) []openailib.Tool {
	out := make([]openailib.Tool, len(tools))
	for i, t := range tools {
		out[i] = openailib.Tool{
			Type: openailib.ToolTypeFunction,
			Function: &openailib.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

// GenerateText implements llm.Model. It streams when req.OnChunk is
// non-nil, and falls back to a single non-streaming call otherwise or if
// stream creation fails.
func (c *Client) GenerateText(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	if len(req.Messages) == 0 {
		return llm.GenerateResponse{}, fmt.Errorf("no messages to send")
	}
	if req.OnChunk != nil {
		return c.generateStreaming(ctx, req)
	}
	return c.generateOnce(ctx, req)
}

func (c *Client) baseRequest(req llm.GenerateRequest) openailib.ChatCompletionRequest {
	r := openailib.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		r.Tools = toOpenAITools(req.Tools)
	}
	if c.config.Temperature != nil {
		r.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens > 0 {
		r.MaxTokens = c.config.MaxTokens
	}
	if c.config.ResolveThinkingMode() == "native" {
		r.ReasoningEffort = "medium"
	}
	return r
}

func (c *Client) generateOnce(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	chatReq := c.baseRequest(req)

	var resp openailib.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		resp, lastErr = c.client.CreateChatCompletion(ctx, chatReq)
		if lastErr == nil {
			break
		}
		if attempt < c.config.MaxRetries {
			wait := time.Duration(attempt+1) * time.Second
			log.Printf("[LLM] retry %d/%d after %v, error: %v", attempt+1, c.config.MaxRetries, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return llm.GenerateResponse{}, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return llm.GenerateResponse{}, fmt.Errorf("model call failed after %d retries: %w", c.config.MaxRetries, lastErr)
	}
	if len(resp.Choices) == 0 {
		return llm.GenerateResponse{}, fmt.Errorf("no choices returned from model")
	}

	choice := resp.Choices[0].Message
	msg := llm.Message{
		Role:             llm.RoleAssistant,
		Content:          choice.Content,
		ReasoningContent: choice.ReasoningContent,
	}
	if len(choice.ToolCalls) > 0 {
		msg.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			msg.ToolCalls[i] = llm.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			}
		}
	}
	return llm.GenerateResponse{
		Message: msg,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (c *Client) generateStreaming(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	chatReq := c.baseRequest(req)
	chatReq.Stream = true
	chatReq.StreamOptions = &openailib.StreamOptions{IncludeUsage: true}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		log.Printf("[LLM] stream creation failed, falling back to non-streaming: %v", err)
		return c.generateOnce(ctx, req)
	}
	defer stream.Close()

	var content, reasoning strings.Builder
	var usage llm.Usage
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if content.Len() > 0 {
				log.Printf("[LLM] stream interrupted after %d chars: %v", content.Len(), err)
				break
			}
			return llm.GenerateResponse{}, fmt.Errorf("stream recv error: %w", err)
		}
		if chunk.Usage != nil {
			usage = llm.Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if rc := chunk.Choices[0].Delta.ReasoningContent; rc != "" {
			reasoning.WriteString(rc)
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			content.WriteString(delta)
			req.OnChunk(delta)
		}
	}

	return llm.GenerateResponse{
		Message: llm.Message{
			Role:             llm.RoleAssistant,
			Content:          content.String(),
			ReasoningContent: reasoning.String(),
		},
		Usage: usage,
	}, nil
}
