package openaicompat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nulzo/polymage/internal/httpclient"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/platform"
)

type inputPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type responsesRequest struct {
	Model        string         `json:"model"`
	Instructions string         `json:"instructions,omitempty"`
	Input        []inputMessage `json:"input"`
	Temperature  *float64       `json:"temperature,omitempty"`
	TopP         *float64       `json:"top_p,omitempty"`
	MaxTokens    *int           `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Describe sends a text and image pair to the /responses endpoint and
// returns the first output text.
func (c *Client) Describe(ctx context.Context, msg Message) (string, error) {
	body := responsesRequest{
		Model:        msg.Model,
		Instructions: msg.System,
		Input: []inputMessage{{
			Role: "user",
			Content: []inputPart{
				{Type: "input_text", Text: msg.Prompt},
				{Type: "input_image", ImageURL: msg.ImageURL},
			},
		}},
	}
	if v, ok := platform.ParamFloat(msg.Params, "temperature"); ok {
		body.Temperature = &v
	}
	if v, ok := platform.ParamFloat(msg.Params, "top_p"); ok {
		body.TopP = &v
	}
	if v, ok := platform.ParamInt(msg.Params, "max_output_tokens"); ok {
		body.MaxTokens = &v
	}

	var out responsesResponse
	url := c.baseURL + "/responses"
	if err := httpclient.SendRequest(ctx, c.http, http.MethodPost, url, httpclient.Bearer(c.apiKey), body, &out); err != nil {
		return "", err
	}

	// reasoning models emit a reasoning item ahead of the message
	for _, item := range out.Output {
		for _, part := range item.Content {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: responses output has no text", domain.ErrMalformedOutput)
}
