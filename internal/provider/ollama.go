package provider

import (
	"context"
	"encoding/json"

	"github.com/hovershell/core/internal/shared/types"
)

const ollamaDefaultEndpoint = "http://localhost:11434/api/chat"

// ollamaAdapter speaks the Ollama chat API. Streaming is newline-delimited
// JSON, one object per line, terminated by done=true.
type ollamaAdapter struct {
	*base
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

func (a *ollamaAdapter) Complete(ctx context.Context, req Request) (string, types.Usage, error) {
	var text string
	var usage types.Usage

	err := a.guard(ctx, func() error {
		var out ollamaResponse
		resp, err := a.rest.R().
			SetContext(ctx).
			SetBody(ollamaRequest{
				Model:    a.model(req),
				Messages: []openaiMessage{{Role: "user", Content: req.Prompt}},
				Stream:   false,
			}).
			SetResult(&out).
			Post(a.endpoint(ollamaDefaultEndpoint))
		if err != nil {
			return types.Providerf("%s: %v", a.provider.ID, err)
		}
		if resp.IsError() {
			return types.Providerf("%s: status %s", a.provider.ID, resp.Status())
		}
		text = out.Message.Content
		usage = types.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		}
		return nil
	})
	return text, usage, err
}

func (a *ollamaAdapter) Stream(ctx context.Context, req Request, onFragment func(string)) error {
	body, err := json.Marshal(ollamaRequest{
		Model:    a.model(req),
		Messages: []openaiMessage{{Role: "user", Content: req.Prompt}},
		Stream:   true,
	})
	if err != nil {
		return types.Providerf("encode request: %v", err)
	}

	return a.guard(ctx, func() error {
		return a.streamRequest(ctx, a.endpoint(ollamaDefaultEndpoint), body, nil,
			func(line string) (string, bool, error) {
				var chunk ollamaResponse
				if err := json.Unmarshal([]byte(line), &chunk); err != nil {
					return "", false, types.Providerf("%s: decode chunk: %v", a.provider.ID, err)
				}
				return chunk.Message.Content, chunk.Done, nil
			}, onFragment)
	})
}
