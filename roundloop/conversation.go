package roundloop

import (
	"sync"

	"github.com/martinemde/codeact/streamllm"
)

// conversation is the append-only message list forming the model's context.
// It is owned by the Runner for the life of the invocation; entries are
// never reordered or truncated mid-loop.
type conversation struct {
	messages []streamllm.Message
	mu       sync.Mutex
}

func (c *conversation) append(msg streamllm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// snapshot returns a copy of the current message list.
func (c *conversation) snapshot() []streamllm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]streamllm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *conversation) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
