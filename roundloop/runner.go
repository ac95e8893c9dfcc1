package roundloop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/martinemde/codeact/sandbox"
	"github.com/martinemde/codeact/streamllm"
)

// Hooks are optional host observer callbacks, invoked synchronously as
// milestones occur. Return values are never consumed.
type Hooks struct {
	// OnMessage fires once per completed invocation with the final answer
	// and the committed action ids.
	OnMessage func(roundID, finalText string, committedIDs []string)
	// OnStreaming fires per streamed fragment with the whole partial
	// buffer accumulated so far.
	OnStreaming func(roundID, partialText string)
}

// round is one request/response cycle. Exactly one round is active at a
// time; it is discarded once its action or final branch has been processed.
type round struct {
	id     string
	buffer strings.Builder
}

func newRound() *round {
	return &round{id: uuid.New().String()}
}

// Runner drives the bounded multi-round loop between a completion provider
// and the code-execution sandbox. One Runner serves one invocation: Run may
// be called once, and the event channel is closed when it returns.
// Concurrent invocations use separate Runners and share nothing.
type Runner struct {
	config  Config
	client  *streamllm.Client
	exec    sandbox.Executor
	hooks   Hooks
	history *conversation
	emitter *eventEmitter

	cancelled atomic.Bool
	runOnce   sync.Once
}

// NewRunner creates a Runner. client and exec are required; hooks may be
// zero.
func NewRunner(cfg Config, client *streamllm.Client, exec sandbox.Executor, hooks Hooks) *Runner {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	return &Runner{
		config:  cfg,
		client:  client,
		exec:    exec,
		hooks:   hooks,
		history: &conversation{},
		emitter: newEventEmitter(cfg.EventBuffer),
	}
}

// Seed appends a message to the conversation before Run. Use it to restore
// prior history.
func (r *Runner) Seed(msg streamllm.Message) {
	r.history.append(msg)
}

// History returns a copy of the conversation.
func (r *Runner) History() []streamllm.Message {
	return r.history.snapshot()
}

// Events returns the event channel. It is closed when Run returns.
func (r *Runner) Events() <-chan Event {
	return r.emitter.events()
}

// Cancel requests a cooperative early stop. The loop polls at loop entry,
// before consuming each streamed fragment, and before invoking the sandbox;
// once observed, no further events are emitted. An in-flight sandbox call is
// still awaited to completion.
func (r *Runner) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether cancellation was requested. The event stream
// alone cannot distinguish a cancelled invocation from one whose final
// answer was empty; hosts that care ask here.
func (r *Runner) Cancelled() bool {
	return r.cancelled.Load()
}

// isCancelled folds the explicit token and context cancellation into one
// check.
func (r *Runner) isCancelled(ctx context.Context) bool {
	if r.cancelled.Load() {
		return true
	}
	select {
	case <-ctx.Done():
		r.cancelled.Store(true)
		return true
	default:
		return false
	}
}

// Run processes one user input through the loop. It returns nil on normal
// termination, on the step limit, and on cancellation; only transport
// failures return an error, unwinding the invocation for the caller's retry
// policy. The event channel is closed before Run returns.
func (r *Runner) Run(ctx context.Context, userInput string) error {
	var err error
	called := false
	r.runOnce.Do(func() {
		called = true
		defer r.emitter.close()
		err = r.loop(ctx, userInput)
	})
	if !called {
		return fmt.Errorf("runner already ran")
	}
	return err
}

func (r *Runner) loop(ctx context.Context, userInput string) error {
	if r.isCancelled(ctx) {
		return nil
	}

	r.history.append(streamllm.UserMessage(userInput))

	systemMsg := streamllm.SystemMessage(buildSystemMessage(r.config.SystemPrompt))
	steps := 0
	reminders := 0

	for {
		rd := newRound()
		r.emitter.emit(EventNewCompletion, rd.id, map[string]interface{}{"id": rd.id})

		buffer, err := r.streamRound(ctx, rd, systemMsg)
		// Cancellation wins over any stream failure: adapters surface a
		// cancelled context as a stream error, which must still come back
		// as a silent return, not a transport failure.
		if r.isCancelled(ctx) {
			return nil
		}
		if err != nil {
			return err
		}

		// Extraction. The final block wins even when an action block is
		// also present: termination is the deliberate tie-break.
		if fin := ExtractFinal(buffer); fin != nil {
			r.emitter.emit(EventText, rd.id, map[string]interface{}{
				"content": fin.Content,
				"final":   true,
			})
			if r.hooks.OnMessage != nil {
				r.hooks.OnMessage(rd.id, fin.Content, fin.CommitIDs())
			}
			return nil
		}

		if act := ExtractAction(buffer); act != nil {
			reminders = 0
			done, err := r.executeAction(ctx, rd, buffer, act, &steps)
			if done || err != nil {
				return err
			}
			continue
		}

		// Neither block arrived: remind and re-request. No extra events
		// beyond those already streamed.
		reminders++
		if r.config.MaxProtocolRetries > 0 && reminders > r.config.MaxProtocolRetries {
			msg := protocolLimitMessage(reminders - 1)
			r.emitter.emit(EventText, rd.id, map[string]interface{}{
				"content": msg,
				"final":   true,
			})
			if r.hooks.OnMessage != nil {
				r.hooks.OnMessage(rd.id, msg, nil)
			}
			return nil
		}
		r.history.append(streamllm.AssistantMessage(reminderMessage))
	}
}

// streamRound issues one streaming completion call and accumulates the
// round's buffer, emitting an authoritative text event per fragment. A
// transport failure is fatal and propagates; cancellation stops consumption
// and returns the partial buffer with no further events.
func (r *Runner) streamRound(ctx context.Context, rd *round, systemMsg streamllm.Message) (string, error) {
	temp := r.config.Temperature
	req := streamllm.Request{
		Model:       r.config.Model,
		Messages:    append([]streamllm.Message{systemMsg}, r.history.snapshot()...),
		Temperature: &temp,
		Stream:      true,
		Provider:    r.config.Provider,
	}

	events, err := r.client.Stream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}

	rec := NewStreamRecorder(r.config.RecordDir, rd.id, r.config.RecordStreams)
	defer rec.Close()

	for ev := range events {
		switch ev.Type {
		case streamllm.TextDelta:
			if r.isCancelled(ctx) {
				// Stop consuming; drain in the background so the
				// adapter goroutine can finish.
				go func() {
					for range events {
					}
				}()
				return rd.buffer.String(), nil
			}
			rd.buffer.WriteString(ev.Delta)
			rec.Record(ev.Delta)
			partial := rd.buffer.String()
			r.emitter.emit(EventText, rd.id, map[string]interface{}{
				"content": partial,
				"final":   false,
			})
			if r.hooks.OnStreaming != nil {
				r.hooks.OnStreaming(rd.id, partial)
			}
		case streamllm.StreamError:
			return "", fmt.Errorf("completion stream: %w", ev.Err)
		}
	}

	return rd.buffer.String(), nil
}

// executeAction runs the action branch of a round: record the assistant
// turn, announce the call, invoke the sandbox, feed the observation back,
// and enforce the step limit. done reports that the invocation is over.
func (r *Runner) executeAction(ctx context.Context, rd *round, buffer string, act *ActionSegment, steps *int) (done bool, err error) {
	// The assistant turn re-embeds the reasoning and the original action
	// tag verbatim, so the model sees its prior turn exactly as produced.
	assistant := act.Raw
	if reasoning, ok := ExtractReasoning(buffer); ok {
		assistant = "<thoughts>" + reasoning + "</thoughts>\n" + act.Raw
	}
	r.history.append(streamllm.AssistantMessage(assistant))

	r.emitter.emit(EventFunctionCall, rd.id, map[string]interface{}{
		"name":    "runCode",
		"call_id": rd.id,
		"arguments": map[string]interface{}{
			"code": act.Code,
		},
	})

	if r.isCancelled(ctx) {
		return true, nil
	}

	result, execErr := r.exec.ExecuteCode(ctx, act.Code)
	if execErr != nil {
		// Sandbox-side failures are opaque: they surface to the model as
		// ordinary result text.
		result = fmt.Sprintf("Execution failed: %v", execErr)
	}
	if r.isCancelled(ctx) {
		// The call was awaited to completion, but no further events are
		// emitted once cancellation has been observed.
		return true, nil
	}
	result = sandbox.TruncateOutput(result, r.config.MaxResultChars)

	r.emitter.emit(EventFunctionCallOutput, rd.id, map[string]interface{}{
		"call_id": rd.id,
		"content": result,
	})

	r.history.append(streamllm.UserMessage(observationMessage(result)))

	*steps++
	if *steps >= r.config.MaxSteps {
		msg := stepLimitMessage(r.config.MaxSteps)
		r.emitter.emit(EventText, rd.id, map[string]interface{}{
			"content": msg,
			"final":   true,
		})
		if r.hooks.OnMessage != nil {
			r.hooks.OnMessage(rd.id, msg, nil)
		}
		return true, nil
	}

	return false, nil
}
