package transcript

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestExtractRawString(t *testing.T) {
	got, ok := Extract("  hola  ")
	if !ok || got != "hola" {
		t.Fatalf("expected trimmed raw string, got (%q, %v)", got, ok)
	}
	if _, ok := Extract("   "); ok {
		t.Fatalf("expected no utterance from blank string")
	}
}

func TestExtractInputTranscriptWins(t *testing.T) {
	payload := decode(t, `{"input_transcript":"soy propietario","text":"ignored"}`)
	got, ok := Extract(payload)
	if !ok || got != "soy propietario" {
		t.Fatalf("expected canonical key to win, got (%q, %v)", got, ok)
	}
}

func TestExtractSpeechAlternatives(t *testing.T) {
	payload := decode(t, `{"speech":{"type":"transcript","alternatives":[{"transcript":"en madrid"}]}}`)
	got, ok := Extract(payload)
	if !ok || got != "en madrid" {
		t.Fatalf("expected alternatives transcript, got (%q, %v)", got, ok)
	}

	payload = decode(t, `{"asr":{"text":"juan garcia"}}`)
	got, ok = Extract(payload)
	if !ok || got != "juan garcia" {
		t.Fatalf("expected asr text, got (%q, %v)", got, ok)
	}
}

func TestExtractGenericKeys(t *testing.T) {
	for _, key := range []string{"text", "user", "utterance", "transcript"} {
		payload := map[string]any{key: "seiscientos doce"}
		got, ok := Extract(payload)
		if !ok || got != "seiscientos doce" {
			t.Fatalf("key %q: got (%q, %v)", key, got, ok)
		}
	}
}

func TestExtractNestedInputText(t *testing.T) {
	payload := decode(t, `{"input":{"text":"vale, de acuerdo"}}`)
	got, ok := Extract(payload)
	if !ok || got != "vale, de acuerdo" {
		t.Fatalf("expected input.text, got (%q, %v)", got, ok)
	}
}

func TestDeepScanPrefersLongestSpeechLikeString(t *testing.T) {
	payload := decode(t, `{
		"type": "prompt",
		"voicePrompt": "quiero información sobre la franquicia",
		"seq": "991234567890",
		"lang": "es"
	}`)
	got, ok := Extract(payload)
	if !ok || got != "quiero información sobre la franquicia" {
		t.Fatalf("expected deep scan result, got (%q, %v)", got, ok)
	}
}

func TestDeepScanDiscardsNonAlphabetic(t *testing.T) {
	payload := decode(t, `{"a":"12345","b":{"c":"9-9-9"}}`)
	if got, ok := Extract(payload); ok {
		t.Fatalf("expected no utterance from digits, got %q", got)
	}
}

func TestDeepScanRespectsDepthLimit(t *testing.T) {
	payload := decode(t, `{"a":{"b":{"c":{"d":{"e":{"f":"demasiado profundo"}}}}}}`)
	if got, ok := Extract(payload); ok {
		t.Fatalf("expected depth-limited scan to miss, got %q", got)
	}
	payload = decode(t, `{"a":{"b":{"c":{"d":"justo a tiempo"}}}}`)
	got, ok := Extract(payload)
	if !ok || got != "justo a tiempo" {
		t.Fatalf("expected in-depth candidate, got (%q, %v)", got, ok)
	}
}

func TestDeepScanRejectsShortCandidates(t *testing.T) {
	payload := decode(t, `{"x":"no"}`)
	if got, ok := Extract(payload); ok {
		t.Fatalf("expected short candidate rejected, got %q", got)
	}
}

func TestExtractUnknownPayloadKind(t *testing.T) {
	if _, ok := Extract(42); ok {
		t.Fatalf("expected no utterance from number payload")
	}
	if _, ok := Extract(nil); ok {
		t.Fatalf("expected no utterance from nil payload")
	}
}
