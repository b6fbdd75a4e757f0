package types

// ProviderKind enumerates the supported completion backends.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOllama    ProviderKind = "ollama"
	ProviderCohere    ProviderKind = "cohere"
)

// Provider is configuration data for one completion backend. It carries no
// behavior; adapters are constructed from it. Among enabled providers at most
// one may have Default set, enforced on every mutation.
type Provider struct {
	ID            string            `json:"id" yaml:"id"`
	DisplayName   string            `json:"display_name" yaml:"display_name"`
	Kind          ProviderKind      `json:"kind" yaml:"kind"`
	Endpoint      string            `json:"endpoint,omitempty" yaml:"endpoint"`
	Model         string            `json:"model,omitempty" yaml:"model"`
	APIKey        string            `json:"-" yaml:"api_key"`
	Default       bool              `json:"is_default" yaml:"default"`
	Enabled       bool              `json:"enabled" yaml:"enabled"`
	RequestConfig map[string]string `json:"request_config,omitempty" yaml:"request_config"`
}

// Usage is token accounting reported by a backend on a completed response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
