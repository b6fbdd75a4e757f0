package provider

import (
	"context"
	"encoding/json"

	"github.com/hovershell/core/internal/shared/types"
)

const (
	anthropicDefaultEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
	anthropicMaxTokens       = 4096
)

// anthropicAdapter speaks the Anthropic messages API. Streaming uses typed
// SSE events; only content_block_delta lines carry text.
type anthropicAdapter struct {
	*base
}

type anthropicRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []openaiMessage `json:"messages"`
	Stream    bool            `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

func (a *anthropicAdapter) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.provider.APIKey,
		"anthropic-version": anthropicVersion,
	}
}

func (a *anthropicAdapter) Complete(ctx context.Context, req Request) (string, types.Usage, error) {
	var text string
	var usage types.Usage

	err := a.guard(ctx, func() error {
		var out anthropicResponse
		resp, err := a.rest.R().
			SetContext(ctx).
			SetHeaders(a.headers()).
			SetBody(anthropicRequest{
				Model:     a.model(req),
				MaxTokens: anthropicMaxTokens,
				Messages:  []openaiMessage{{Role: "user", Content: req.Prompt}},
			}).
			SetResult(&out).
			Post(a.endpoint(anthropicDefaultEndpoint))
		if err != nil {
			return types.Providerf("%s: %v", a.provider.ID, err)
		}
		if resp.IsError() {
			return types.Providerf("%s: status %s", a.provider.ID, resp.Status())
		}
		if len(out.Content) == 0 {
			return types.Providerf("%s: empty content", a.provider.ID)
		}
		text = out.Content[0].Text
		usage = types.Usage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		}
		return nil
	})
	return text, usage, err
}

func (a *anthropicAdapter) Stream(ctx context.Context, req Request, onFragment func(string)) error {
	body, err := json.Marshal(anthropicRequest{
		Model:     a.model(req),
		MaxTokens: anthropicMaxTokens,
		Messages:  []openaiMessage{{Role: "user", Content: req.Prompt}},
		Stream:    true,
	})
	if err != nil {
		return types.Providerf("encode request: %v", err)
	}

	return a.guard(ctx, func() error {
		return a.streamRequest(ctx, a.endpoint(anthropicDefaultEndpoint), body, a.headers(),
			func(line string) (string, bool, error) {
				data, ok := sseData(line)
				if !ok {
					return "", false, nil
				}
				var ev anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					return "", false, types.Providerf("%s: decode event: %v", a.provider.ID, err)
				}
				switch ev.Type {
				case "content_block_delta":
					return ev.Delta.Text, false, nil
				case "message_stop":
					return "", true, nil
				default:
					return "", false, nil
				}
			}, onFragment)
	})
}
