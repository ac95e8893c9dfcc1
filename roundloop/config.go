package roundloop

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config holds per-invocation settings for a Runner.
type Config struct {
	// Model and Provider select the completion backend; Provider may be
	// empty when the client can infer it from the model id.
	Model    string `json:"model"`
	Provider string `json:"provider,omitempty"`
	// Temperature for completion requests.
	Temperature float64 `json:"temperature"`
	// MaxSteps bounds the number of code-execution rounds per invocation.
	MaxSteps int `json:"max_steps"`
	// MaxProtocolRetries bounds consecutive malformed responses.
	// 0 means unlimited: the loop keeps reminding the model forever.
	MaxProtocolRetries int `json:"max_protocol_retries,omitempty"`
	// MaxResultChars truncates sandbox results before they re-enter the
	// conversation. 0 uses the sandbox default.
	MaxResultChars int `json:"max_result_chars,omitempty"`
	// SystemPrompt is the host's preamble; the grammar instructions are
	// always appended after it.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// RecordStreams enables per-round JSONL capture of raw stream
	// fragments under RecordDir.
	RecordStreams bool   `json:"record_streams,omitempty"`
	RecordDir     string `json:"record_dir,omitempty"`
	// EventBuffer sizes the event channel.
	EventBuffer int `json:"event_buffer,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxSteps:    10,
		EventBuffer: 256,
	}
}

// LoadConfig reads a Config from a JSON file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg := DefaultConfig()
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	return cfg, nil
}
