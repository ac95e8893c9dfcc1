// Package roundloop converts an incrementally streamed language-model
// response into typed actions and drives a bounded, cancellable multi-round
// loop between a completion provider and a code-execution sandbox.
//
// The model speaks a small tag grammar: an optional <thoughts> block
// followed by exactly one <py-script> block (run this code) or one
// <finalResponse> block (answer the user and stop). The loop re-parses the
// whole accumulated buffer on every streamed fragment, so extraction is
// safe to attempt at any point and simply returns nothing until a block's
// closing tag has arrived.
//
// # Architecture
//
//   - Runner: the loop state machine. It owns the append-only conversation,
//     issues streaming completion calls through a streamllm.Client,
//     dispatches action blocks to a sandbox.Executor, and emits a typed
//     event stream.
//   - Segment extractors: pure functions over the buffer
//     (ExtractReasoning, ExtractAction, ExtractFinal).
//   - Event protocol: per round, new_completion, then text events carrying
//     the whole buffer so far, then optionally function_call and
//     function_call_output, then either the next round or a terminal text
//     event.
//
// # Quick Start
//
//	client := streamllm.NewClientFromEnv()
//	exec := sandbox.NewLocalPython()
//	runner := roundloop.NewRunner(roundloop.DefaultConfig(), client, exec, roundloop.Hooks{})
//
//	go func() {
//	    if err := runner.Run(ctx, "Plot a sine wave"); err != nil {
//	        log.Fatal(err)
//	    }
//	}()
//
//	for event := range runner.Events() {
//	    fmt.Printf("[%s] %v\n", event.Kind, event.Data)
//	}
//
// Cancellation is cooperative: Runner.Cancel (or context cancellation) is
// polled at loop entry, per streamed fragment, and before each sandbox
// call. Once observed it suppresses all further events and Run returns nil.
// Only transport failures return an error; retry belongs to the caller
// (see streamllm.Retry).
package roundloop
