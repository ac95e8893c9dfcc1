package streamllm

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-5"
	defaultAnthropicMaxTokens = 8192
)

// AnthropicAdapter implements ProviderAdapter on the official Anthropic SDK's
// messages endpoint.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAdapter creates an adapter backed by the official SDK.
func NewAnthropicAdapter(apiKey, model string) *AnthropicAdapter {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicAdapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Name returns the provider identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Complete sends a blocking request and returns the full response.
func (a *AnthropicAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	params := a.buildParams(req)

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.translateError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}

	return &Response{
		ID:           msg.ID,
		Model:        string(msg.Model),
		Provider:     "anthropic",
		Text:         sb.String(),
		FinishReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// Stream sends a streaming request and forwards text deltas in arrival order.
func (a *AnthropicAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params := a.buildParams(req)

	ch := make(chan StreamEvent, 64)

	go func() {
		defer close(ch)

		stream := a.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		ch <- StreamEvent{Type: StreamStart}

		var fullText strings.Builder
		var usage Usage
		var id, model, stopReason string

		for stream.Next() {
			event := stream.Current()
			switch evt := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				id = evt.Message.ID
				model = string(evt.Message.Model)
				usage.InputTokens = int(evt.Message.Usage.InputTokens)
			case anthropic.ContentBlockDeltaEvent:
				if td, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && td.Text != "" {
					fullText.WriteString(td.Text)
					ch <- StreamEvent{Type: TextDelta, Delta: td.Text}
				}
			case anthropic.MessageDeltaEvent:
				if evt.Delta.StopReason != "" {
					stopReason = string(evt.Delta.StopReason)
				}
				usage.OutputTokens = int(evt.Usage.OutputTokens)
			}
		}

		if err := stream.Err(); err != nil {
			slog.Debug("anthropic stream failed", "error", err)
			ch <- StreamEvent{Type: StreamError, Err: a.translateError(err)}
			return
		}

		if stopReason == "" {
			stopReason = "stop"
		}
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
		ch <- StreamEvent{Type: StreamFinish, Response: &Response{
			ID:           id,
			Model:        model,
			Provider:     "anthropic",
			Text:         fullText.String(),
			FinishReason: stopReason,
			Usage:        usage,
		}}
	}()

	return ch, nil
}

func (a *AnthropicAdapter) buildParams(req Request) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var systemBlocks []anthropic.TextBlockParam
	var chatMessages []anthropic.MessageParam

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			if text := strings.TrimSpace(msg.Content); text != "" {
				systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: text})
			}
		case RoleAssistant:
			chatMessages = append(chatMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := defaultAnthropicMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  chatMessages,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

func (a *AnthropicAdapter) translateError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return ErrorFromStatusCode(apierr.StatusCode, apierr.Error(), "anthropic")
	}
	return &TransportError{SDKError: SDKError{Message: "request failed", Cause: err}, Provider: "anthropic"}
}
