package oracle

import (
	"fmt"
	"strings"
)

// NewProvider creates the configured provider. An empty provider name
// disables the oracle and returns nil without error.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic", "claude":
		return NewAnthropicProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "file":
		return NewFileProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, anthropic, ollama, file)", cfg.Provider)
	}
}
