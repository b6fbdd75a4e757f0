package provider

import (
	"context"
	"encoding/json"

	"github.com/hovershell/core/internal/shared/types"
)

const cohereDefaultEndpoint = "https://api.cohere.ai/v1/chat"

// cohereAdapter speaks the Cohere chat API. Streaming is newline-delimited
// JSON events tagged by event_type.
type cohereAdapter struct {
	*base
}

type cohereRequest struct {
	Model   string `json:"model,omitempty"`
	Message string `json:"message"`
	Stream  bool   `json:"stream,omitempty"`
}

type cohereResponse struct {
	Text string `json:"text"`
	Meta struct {
		BilledUnits struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

type cohereStreamEvent struct {
	EventType string `json:"event_type"`
	Text      string `json:"text"`
}

func (a *cohereAdapter) Complete(ctx context.Context, req Request) (string, types.Usage, error) {
	var text string
	var usage types.Usage

	err := a.guard(ctx, func() error {
		var out cohereResponse
		resp, err := a.rest.R().
			SetContext(ctx).
			SetAuthToken(a.provider.APIKey).
			SetBody(cohereRequest{
				Model:   a.model(req),
				Message: req.Prompt,
			}).
			SetResult(&out).
			Post(a.endpoint(cohereDefaultEndpoint))
		if err != nil {
			return types.Providerf("%s: %v", a.provider.ID, err)
		}
		if resp.IsError() {
			return types.Providerf("%s: status %s", a.provider.ID, resp.Status())
		}
		text = out.Text
		in := out.Meta.BilledUnits.InputTokens
		outTokens := out.Meta.BilledUnits.OutputTokens
		usage = types.Usage{
			PromptTokens:     in,
			CompletionTokens: outTokens,
			TotalTokens:      in + outTokens,
		}
		return nil
	})
	return text, usage, err
}

func (a *cohereAdapter) Stream(ctx context.Context, req Request, onFragment func(string)) error {
	body, err := json.Marshal(cohereRequest{
		Model:   a.model(req),
		Message: req.Prompt,
		Stream:  true,
	})
	if err != nil {
		return types.Providerf("encode request: %v", err)
	}

	return a.guard(ctx, func() error {
		headers := map[string]string{"Authorization": "Bearer " + a.provider.APIKey}
		return a.streamRequest(ctx, a.endpoint(cohereDefaultEndpoint), body, headers,
			func(line string) (string, bool, error) {
				var ev cohereStreamEvent
				if err := json.Unmarshal([]byte(line), &ev); err != nil {
					return "", false, types.Providerf("%s: decode event: %v", a.provider.ID, err)
				}
				switch ev.EventType {
				case "text-generation":
					return ev.Text, false, nil
				case "stream-end":
					return "", true, nil
				default:
					return "", false, nil
				}
			}, onFragment)
	})
}
