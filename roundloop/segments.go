package roundloop

import (
	"regexp"
	"strings"
)

// The model's wire grammar: an optional reasoning block, followed by exactly
// one action block or final block. All extractors run against the full
// accumulated buffer on every streamed increment, so they must be pure and
// cheap to re-invoke; they return nil until both tags of a block have
// arrived and never fail on malformed input.
var (
	reasoningPattern = regexp.MustCompile(`(?s)<thoughts>(.*?)</thoughts>`)
	actionPattern    = regexp.MustCompile(`(?s)<py-script([^>]*)>(.*?)</py-script>`)
	finalPattern     = regexp.MustCompile(`(?s)<finalResponse([^>]*)>(.*?)</finalResponse>`)
	attributePattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*)\s*=\s*"([^"]*)"`)
)

// ActionSegment is a unit of work for the sandbox. The tag may carry its own
// id attribute, preserved in Attributes, but the operational call id is
// always the round id of the round that produced the segment.
type ActionSegment struct {
	Code       string
	Attributes map[string]string
	Raw        string // the full tag exactly as the model produced it
}

// FinalSegment terminates the loop, carrying the user-facing answer and
// optional commit ids.
type FinalSegment struct {
	Content    string
	Attributes map[string]string
}

// CommitIDs returns the commit attribute split on commas with each entry
// trimmed. Entries that trim to empty are dropped.
func (f *FinalSegment) CommitIDs() []string {
	raw, ok := f.Attributes["commit"]
	if !ok {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ExtractReasoning returns the inner text of the first complete thoughts
// block, or false while the closing tag has not arrived.
func ExtractReasoning(buffer string) (string, bool) {
	m := reasoningPattern.FindStringSubmatch(buffer)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractAction returns the first complete action block, or nil.
func ExtractAction(buffer string) *ActionSegment {
	m := actionPattern.FindStringSubmatch(buffer)
	if m == nil {
		return nil
	}
	return &ActionSegment{
		Code:       strings.TrimSpace(m[2]),
		Attributes: parseAttributes(m[1]),
		Raw:        m[0],
	}
}

// ExtractFinal returns the first complete final block, or nil.
func ExtractFinal(buffer string) *FinalSegment {
	m := finalPattern.FindStringSubmatch(buffer)
	if m == nil {
		return nil
	}
	return &FinalSegment{
		Content:    strings.TrimSpace(m[2]),
		Attributes: parseAttributes(m[1]),
	}
}

// parseAttributes scans key="value" pairs permissively: anything that does
// not match the shape is ignored rather than rejected.
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attributePattern.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}
