// Package transcript recovers the caller's utterance from speech-relay events.
// Event shapes are provider and version dependent, so extraction walks a small
// priority list of well-known shapes before falling back to a depth-bounded
// heuristic scan of the whole payload.
package transcript

import (
	"strings"
	"unicode"
)

// maxScanDepth bounds the fallback scan so hostile or cyclic-looking payloads
// stay cheap.
const maxScanDepth = 5

// minCandidateLen rejects scan candidates too short to be speech.
const minCandidateLen = 3

// genericKeys are top-level keys several relay integrations use for the
// recognized text.
var genericKeys = []string{"text", "user", "utterance", "transcript"}

// Extract returns the best-guess user utterance from a decoded event payload.
// The payload is either a raw string or an arbitrarily nested JSON tree
// (map[string]any / []any). Returns false when no utterance can be recovered.
func Extract(payload any) (string, bool) {
	if s, ok := payload.(string); ok {
		return nonEmpty(s)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}

	// 1) Canonical direct transcript field.
	if t, ok := stringValue(obj["input_transcript"]); ok {
		return t, true
	}

	// 2) Nested speech result: alternatives[0].transcript, or a direct text.
	for _, key := range []string{"speech", "asr"} {
		speech, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		if alts, ok := speech["alternatives"].([]any); ok && len(alts) > 0 {
			if first, ok := alts[0].(map[string]any); ok {
				if t, ok := stringValue(first["transcript"]); ok {
					return t, true
				}
			}
		}
		if t, ok := stringValue(speech["text"]); ok {
			return t, true
		}
	}

	// 3) Generic single-key shapes.
	for _, key := range genericKeys {
		if t, ok := stringValue(obj[key]); ok {
			return t, true
		}
	}

	// 4) Nested input.text.
	if input, ok := obj["input"].(map[string]any); ok {
		if t, ok := stringValue(input["text"]); ok {
			return t, true
		}
	}

	// 5) Deep scan: longest string that looks like speech.
	return deepScan(obj)
}

// deepScan collects every non-empty string in the tree up to maxScanDepth,
// discards candidates with no letters (ids, numbers, hex blobs), and keeps the
// longest survivor. Favoring length keeps short technical values like event
// type tags from shadowing actual speech.
func deepScan(obj map[string]any) (string, bool) {
	best := ""
	var walk func(v any, depth int)
	walk = func(v any, depth int) {
		if depth > maxScanDepth {
			return
		}
		switch val := v.(type) {
		case string:
			s := strings.TrimSpace(val)
			if len([]rune(s)) >= minCandidateLen && hasLetter(s) && len(s) > len(best) {
				best = s
			}
		case map[string]any:
			for _, child := range val {
				walk(child, depth+1)
			}
		case []any:
			for _, child := range val {
				walk(child, depth+1)
			}
		}
	}
	walk(obj, 1)
	if best == "" {
		return "", false
	}
	return best, true
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return nonEmpty(s)
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
