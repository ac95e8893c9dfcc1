package streamllm

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	ContextWindow int      `json:"context_window"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog used for provider inference when a
// request names a model but no provider.
var Models = []ModelInfo{
	{ID: "gpt-4o", Provider: "openai", ContextWindow: 128000, Aliases: []string{"4o"}},
	{ID: "gpt-4o-mini", Provider: "openai", ContextWindow: 128000, Aliases: []string{"4o-mini"}},
	{ID: "gpt-4.1", Provider: "openai", ContextWindow: 1000000},
	{ID: "o3-mini", Provider: "openai", ContextWindow: 200000},
	{ID: "claude-opus-4-6", Provider: "anthropic", ContextWindow: 200000, Aliases: []string{"opus"}},
	{ID: "claude-sonnet-4-5", Provider: "anthropic", ContextWindow: 200000, Aliases: []string{"sonnet"}},
	{ID: "claude-3-5-haiku-20241022", Provider: "anthropic", ContextWindow: 200000, Aliases: []string{"haiku"}},
	{ID: "llama-3.3-70b-versatile", Provider: "groq", ContextWindow: 128000},
	{ID: "mistral-large-latest", Provider: "mistral", ContextWindow: 128000},
}

// GetModelInfo looks up a model by id or alias. Returns nil when unknown.
func GetModelInfo(id string) *ModelInfo {
	for i := range Models {
		m := &Models[i]
		if m.ID == id {
			return m
		}
		for _, alias := range m.Aliases {
			if alias == id {
				return m
			}
		}
	}
	return nil
}

// InferProvider guesses the provider for a model id, first from the catalog,
// then from the id's naming convention. Returns "" when no guess is safe.
func InferProvider(model string) string {
	if info := GetModelInfo(model); info != nil {
		return info.Provider
	}
	switch {
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return "openai"
	case strings.HasPrefix(model, "claude-"):
		return "anthropic"
	}
	return ""
}
