package provider

import (
	"context"
	"encoding/json"

	"github.com/hovershell/core/internal/shared/types"
)

const openaiDefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// openaiAdapter speaks the OpenAI chat completions API. Streaming uses SSE
// with a [DONE] terminator.
type openaiAdapter struct {
	*base
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openaiStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (a *openaiAdapter) Complete(ctx context.Context, req Request) (string, types.Usage, error) {
	var text string
	var usage types.Usage

	err := a.guard(ctx, func() error {
		var out openaiResponse
		resp, err := a.rest.R().
			SetContext(ctx).
			SetAuthToken(a.provider.APIKey).
			SetBody(openaiRequest{
				Model:    a.model(req),
				Messages: []openaiMessage{{Role: "user", Content: req.Prompt}},
			}).
			SetResult(&out).
			Post(a.endpoint(openaiDefaultEndpoint))
		if err != nil {
			return types.Providerf("%s: %v", a.provider.ID, err)
		}
		if resp.IsError() {
			return types.Providerf("%s: status %s", a.provider.ID, resp.Status())
		}
		if len(out.Choices) == 0 {
			return types.Providerf("%s: empty choices", a.provider.ID)
		}
		text = out.Choices[0].Message.Content
		usage = types.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
		return nil
	})
	return text, usage, err
}

func (a *openaiAdapter) Stream(ctx context.Context, req Request, onFragment func(string)) error {
	body, err := json.Marshal(openaiRequest{
		Model:    a.model(req),
		Messages: []openaiMessage{{Role: "user", Content: req.Prompt}},
		Stream:   true,
	})
	if err != nil {
		return types.Providerf("encode request: %v", err)
	}

	return a.guard(ctx, func() error {
		headers := map[string]string{"Authorization": "Bearer " + a.provider.APIKey}
		return a.streamRequest(ctx, a.endpoint(openaiDefaultEndpoint), body, headers,
			func(line string) (string, bool, error) {
				data, ok := sseData(line)
				if !ok {
					return "", false, nil
				}
				if data == "[DONE]" {
					return "", true, nil
				}
				var chunk openaiStreamChunk
				if err := json.Unmarshal([]byte(data), &chunk); err != nil {
					return "", false, types.Providerf("%s: decode chunk: %v", a.provider.ID, err)
				}
				if len(chunk.Choices) == 0 {
					return "", false, nil
				}
				done := chunk.Choices[0].FinishReason != nil
				return chunk.Choices[0].Delta.Content, done, nil
			}, onFragment)
	})
}
