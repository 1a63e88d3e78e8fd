package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a provider for the given type. An empty type or
// "none" returns a nil provider, which selects pure heuristic
// extraction. The API key falls back to OPENAI_API_KEY when empty.
func NewProvider(providerType, apiKey, baseURL, model string) (Provider, error) {
	switch providerType {
	case "", "none":
		return nil, nil
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider selected but no API key given (set OPENAI_API_KEY)")
		}
		return NewOpenAIProvider(apiKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
