package roundloop

import (
	"fmt"
	"strings"
)

// defaultPreamble is prepended when the host configures no system prompt.
const defaultPreamble = `You are a coding assistant that solves tasks by reasoning and running Python code in a sandbox.`

// grammarInstructions teaches the model the wire grammar the loop parses.
// It is always appended to the system message, regardless of the host's
// preamble.
const grammarInstructions = `# Response format

Every response must start with your reasoning inside a thoughts block, then exactly one of the two blocks below.

To run code in the sandbox:
<thoughts>why this code, what you expect</thoughts>
<py-script id="unique-id">
print("your python code here")
</py-script>

After the script runs you will receive its output wrapped in an observation marker. Use it to decide your next step.

To finish and answer the user:
<thoughts>why you are done</thoughts>
<finalResponse commit="id1,id2">Your answer to the user.</finalResponse>

The commit attribute is optional; list the ids of the scripts whose results your answer depends on. Never emit both a py-script and a finalResponse with the intent of running the script: a finalResponse always ends the conversation.`

// buildSystemMessage assembles the outgoing system message: host preamble
// first, grammar instructions last.
func buildSystemMessage(preamble string) string {
	var sb strings.Builder
	if strings.TrimSpace(preamble) == "" {
		preamble = defaultPreamble
	}
	sb.WriteString(strings.TrimSpace(preamble))
	sb.WriteString("\n\n")
	sb.WriteString(grammarInstructions)
	return sb.String()
}

// observationMessage wraps a sandbox result in the marker the model was
// taught to expect, instructing it to continue.
func observationMessage(result string) string {
	return fmt.Sprintf("<observation>%s</observation>\nReview the observation and continue: respond with <thoughts> followed by either another <py-script> or a <finalResponse>.", result)
}

// reminderMessage is appended when a response carried neither an action nor
// a final block.
const reminderMessage = `Your previous response did not include a <py-script> or <finalResponse> block. You must reply with <thoughts> followed by exactly one of those two blocks.`

// stepLimitMessage is the synthesized terminal answer when the loop hits
// its step limit before the model produces a final block.
func stepLimitMessage(maxSteps int) string {
	return fmt.Sprintf("Stopped after reaching the limit of %d code-execution steps without a final response. The results so far are in the conversation above.", maxSteps)
}

// protocolLimitMessage is the synthesized terminal answer when the optional
// protocol-retry guard trips.
func protocolLimitMessage(retries int) string {
	return fmt.Sprintf("Stopped after %d consecutive malformed responses from the model.", retries)
}
