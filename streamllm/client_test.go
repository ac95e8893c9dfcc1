package streamllm

import (
	"context"
	"errors"
	"testing"
)

// mockAdapter is a provider test double with canned responses.
type mockAdapter struct {
	name      string
	response  *Response
	err       error
	completes int
	streams   int
	lastReq   Request
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	m.completes++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	m.streams++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan StreamEvent, 4)
	ch <- StreamEvent{Type: StreamStart}
	ch <- StreamEvent{Type: TextDelta, Delta: m.response.Text}
	ch <- StreamEvent{Type: StreamFinish, Response: m.response}
	close(ch)
	return ch, nil
}

func TestClientRoutesByRequestProvider(t *testing.T) {
	a := &mockAdapter{name: "alpha", response: &Response{Text: "from alpha"}}
	b := &mockAdapter{name: "beta", response: &Response{Text: "from beta"}}
	client := NewClient(
		WithProvider("alpha", a),
		WithProvider("beta", b),
		WithDefaultProvider("alpha"),
	)

	resp, err := client.Complete(context.Background(), Request{Model: "m", Provider: "beta"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "from beta" {
		t.Errorf("routed to wrong provider: got %q", resp.Text)
	}
	if a.completes != 0 || b.completes != 1 {
		t.Errorf("call counts: alpha=%d beta=%d", a.completes, b.completes)
	}
}

func TestClientInfersProviderFromModel(t *testing.T) {
	oa := &mockAdapter{name: "openai", response: &Response{Text: "oa"}}
	an := &mockAdapter{name: "anthropic", response: &Response{Text: "an"}}
	client := NewClient(WithProvider("openai", oa), WithProvider("anthropic", an))

	if _, err := client.Complete(context.Background(), Request{Model: "claude-sonnet-4-5"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if an.completes != 1 {
		t.Errorf("claude model should route to anthropic, got openai=%d anthropic=%d", oa.completes, an.completes)
	}

	if _, err := client.Complete(context.Background(), Request{Model: "gpt-4o"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if oa.completes != 1 {
		t.Errorf("gpt model should route to openai")
	}
}

func TestClientSingleProviderBecomesDefault(t *testing.T) {
	a := &mockAdapter{name: "only", response: &Response{Text: "ok"}}
	client := NewClient(WithProvider("only", a))

	if _, err := client.Complete(context.Background(), Request{Model: "unknown-model"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if a.completes != 1 {
		t.Errorf("single registered provider should serve as default")
	}
}

func TestClientUnknownProvider(t *testing.T) {
	client := NewClient(WithProvider("alpha", &mockAdapter{name: "alpha"}))

	_, err := client.Complete(context.Background(), Request{Model: "m", Provider: "gamma"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
}

func TestClientNoProviderNoDefault(t *testing.T) {
	client := NewClient()
	_, err := client.Complete(context.Background(), Request{Model: "unknown-model"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
}

func TestClientMiddlewareOrder(t *testing.T) {
	a := &mockAdapter{name: "only", response: &Response{Text: "ok"}}
	var order []string
	mk := func(tag string) Middleware {
		return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
			order = append(order, tag+":before")
			resp, err := next(ctx, req)
			order = append(order, tag+":after")
			return resp, err
		}
	}
	client := NewClient(WithProvider("only", a), WithMiddleware(mk("first"), mk("second")))

	if _, err := client.Complete(context.Background(), Request{Model: "m"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	want := []string{"first:before", "second:before", "second:after", "first:after"}
	if len(order) != len(want) {
		t.Fatalf("middleware order: got %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("middleware order: got %v, want %v", order, want)
		}
	}
}

func TestClientStreamSetsStreamFlag(t *testing.T) {
	a := &mockAdapter{name: "only", response: &Response{Text: "ok"}}
	client := NewClient(WithProvider("only", a))

	events, err := client.Stream(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	for range events {
	}

	if !a.lastReq.Stream {
		t.Errorf("Stream must set req.Stream")
	}
	if a.lastReq.Provider != "only" {
		t.Errorf("Stream must stamp the resolved provider, got %q", a.lastReq.Provider)
	}
}

func TestClientStreamMiddleware(t *testing.T) {
	a := &mockAdapter{name: "only", response: &Response{Text: "hello"}}
	var sawModel string
	client := NewClient(
		WithProvider("only", a),
		WithStreamMiddleware(func(ctx context.Context, req Request, next func(context.Context, Request) (<-chan StreamEvent, error)) (<-chan StreamEvent, error) {
			sawModel = req.Model
			return next(ctx, req)
		}),
	)

	events, err := client.Stream(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var deltas int
	for ev := range events {
		if ev.Type == TextDelta {
			deltas++
		}
	}
	if sawModel != "m" {
		t.Errorf("stream middleware never ran")
	}
	if deltas != 1 {
		t.Errorf("want 1 delta through middleware, got %d", deltas)
	}
}

func TestRegisterProviderSetsDefault(t *testing.T) {
	client := NewClient()
	client.RegisterProvider("late", &mockAdapter{name: "late", response: &Response{Text: "ok"}})

	if _, err := client.Complete(context.Background(), Request{Model: "unknown-model"}); err != nil {
		t.Fatalf("Complete after RegisterProvider: %v", err)
	}
}

func TestGetModelInfoAliases(t *testing.T) {
	if info := GetModelInfo("sonnet"); info == nil || info.Provider != "anthropic" {
		t.Errorf("alias lookup failed: %+v", info)
	}
	if info := GetModelInfo("gpt-4o"); info == nil || info.Provider != "openai" {
		t.Errorf("id lookup failed: %+v", info)
	}
	if GetModelInfo("made-up") != nil {
		t.Errorf("unknown model should return nil")
	}
}

func TestInferProvider(t *testing.T) {
	cases := map[string]string{
		"gpt-4o":                  "openai",
		"gpt-5-preview":           "openai",
		"o3-mini":                 "openai",
		"claude-sonnet-4-5":       "anthropic",
		"claude-next":             "anthropic",
		"llama-3.3-70b-versatile": "groq",
		"totally-unknown":         "",
	}
	for model, want := range cases {
		if got := InferProvider(model); got != want {
			t.Errorf("InferProvider(%q) = %q, want %q", model, got, want)
		}
	}
}
