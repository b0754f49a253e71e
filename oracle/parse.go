package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Delimiter is the token the conversation prompts instruct the oracle to use
// between fragments. It is a wire contract of this package: nothing outside
// oracle knows the literal token.
const Delimiter = "|||"

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractJSON parses raw oracle output into v, best effort: a direct parse
// first, then the first JSON object embedded in surrounding prose or a code
// fence. Callers supply their own hardcoded fallback when this fails too.
func ExtractJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// Models love fencing JSON even when told not to.
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	if m := jsonObjectRe.FindString(s); m != "" {
		if err := json.Unmarshal([]byte(m), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no parseable JSON object in response")
}

// SplitFragments splits one oracle response into chat-message fragments on
// the delimiter, trimming whitespace and dropping empties. A response with no
// delimiter yields a single fragment.
func SplitFragments(s string) []string {
	parts := strings.Split(s, Delimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
