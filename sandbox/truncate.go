package sandbox

import "fmt"

// DefaultMaxResultChars bounds a result before it re-enters the model's
// context.
const DefaultMaxResultChars = 30000

// TruncateOutput applies head/tail truncation to an oversized result. The
// head and tail are each half the budget; a marker notes how much was cut.
func TruncateOutput(output string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxResultChars
	}
	if len(output) <= maxChars {
		return output
	}

	half := maxChars / 2
	removed := len(output) - maxChars
	return output[:half] +
		fmt.Sprintf("\n\n[%d characters truncated from the middle of this output. Re-run with more targeted code if you need the full result.]\n\n", removed) +
		output[len(output)-half:]
}
