package streamllm

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIAdapter implements ProviderAdapter on the official OpenAI SDK's
// chat-completions endpoint, streamed over SSE.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// NewOpenAIAdapter creates an adapter backed by the official SDK. Extra
// request options allow custom base URLs for OpenAI-compatible servers.
func NewOpenAIAdapter(apiKey, model string, opts ...option.RequestOption) *OpenAIAdapter {
	if model == "" {
		model = defaultOpenAIModel
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIAdapter{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Complete sends a blocking request and returns the full response.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	params := a.buildParams(req)

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, a.translateError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &TransportError{SDKError: SDKError{Message: "response contained no choices"}, Provider: "openai"}
	}

	return &Response{
		ID:           resp.ID,
		Model:        resp.Model,
		Provider:     "openai",
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Stream sends a streaming request. Text deltas are forwarded in arrival
// order; the final event carries the accumulated response.
func (a *OpenAIAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params := a.buildParams(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	ch := make(chan StreamEvent, 64)

	go func() {
		defer close(ch)

		stream := a.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		ch <- StreamEvent{Type: StreamStart}

		var fullText strings.Builder
		var usage Usage
		var id, model, finishReason string

		for stream.Next() {
			chunk := stream.Current()
			if id == "" {
				id = chunk.ID
				model = chunk.Model
			}
			if chunk.Usage.TotalTokens > 0 {
				usage = Usage{
					InputTokens:  int(chunk.Usage.PromptTokens),
					OutputTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:  int(chunk.Usage.TotalTokens),
				}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				finishReason = string(choice.FinishReason)
			}
			if choice.Delta.Content != "" {
				fullText.WriteString(choice.Delta.Content)
				ch <- StreamEvent{Type: TextDelta, Delta: choice.Delta.Content}
			}
		}

		if err := stream.Err(); err != nil {
			slog.Debug("openai stream failed", "error", err)
			ch <- StreamEvent{Type: StreamError, Err: a.translateError(err)}
			return
		}

		if finishReason == "" {
			finishReason = "stop"
		}
		ch <- StreamEvent{Type: StreamFinish, Response: &Response{
			ID:           id,
			Model:        model,
			Provider:     "openai",
			Text:         fullText.String(),
			FinishReason: finishReason,
			Usage:        usage,
		}}
	}()

	return ch, nil
}

func (a *OpenAIAdapter) buildParams(req Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = a.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			// Tool results travel as user messages; the round loop embeds
			// them in observation markers itself.
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	return params
}

func (a *OpenAIAdapter) translateError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return ErrorFromStatusCode(apierr.StatusCode, apierr.Message, "openai")
	}
	return &TransportError{SDKError: SDKError{Message: "request failed", Cause: err}, Provider: "openai"}
}
