// Package openaicompat wraps OpenAI-compatible chat and responses endpoints
// shared by several providers.
package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/polymage/internal/httpclient"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/platform"
	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the subset of *openai.Client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type Client struct {
	chat    ChatClient
	http    httpclient.HTTPClient
	baseURL string
	apiKey  string
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = cfg.HTTPClient

	return &Client{
		chat:    openai.NewClientWithConfig(oc),
		http:    cfg.HTTPClient,
		baseURL: oc.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Message is one chat completion call. Params holds the merged model
// defaults and caller parameters; known sampling keys are mapped onto the
// request and everything else is ignored.
type Message struct {
	Model    string
	System   string
	Prompt   string
	ImageURL string
	Params   map[string]any

	SchemaName string
	Schema     json.Marshaler
}

// Chat runs a chat completion and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, msg Message) (string, error) {
	resp, err := c.chat.CreateChatCompletion(ctx, buildRequest(msg))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", domain.ErrMalformedOutput)
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatJSON runs a structured-output completion and decodes the content.
func (c *Client) ChatJSON(ctx context.Context, msg Message) (map[string]any, error) {
	if msg.Schema == nil {
		return nil, domain.InvalidInput("structured output requires a schema")
	}
	content, err := c.Chat(ctx, msg)
	if err != nil {
		return nil, err
	}
	return platform.DecodeData(content)
}

func buildRequest(msg Message) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if msg.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: msg.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if msg.ImageURL != "" {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: msg.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: msg.ImageURL}},
		}
	} else {
		user.Content = msg.Prompt
	}
	messages = append(messages, user)

	req := openai.ChatCompletionRequest{
		Model:    msg.Model,
		Messages: messages,
	}
	applyParams(&req, msg.Params)

	if msg.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   msg.SchemaName,
				Schema: msg.Schema,
			},
		}
	}
	return req
}

func applyParams(req *openai.ChatCompletionRequest, params map[string]any) {
	if v, ok := platform.ParamFloat(params, "temperature"); ok {
		req.Temperature = float32(v)
	}
	if v, ok := platform.ParamFloat(params, "top_p"); ok {
		req.TopP = float32(v)
	}
	if v, ok := platform.ParamInt(params, "max_completion_tokens"); ok {
		req.MaxCompletionTokens = v
	}
	if v, ok := platform.ParamInt(params, "max_tokens"); ok {
		req.MaxTokens = v
	}
	if v, ok := platform.ParamInt(params, "seed"); ok {
		req.Seed = &v
	}
	if v, ok := platform.ParamString(params, "reasoning_effort"); ok {
		req.ReasoningEffort = v
	}
}
