package redact

import (
	"strings"
	"testing"
)

func TestTextDisabled(t *testing.T) {
	SetEnabled(false)
	in := "contacto a@b.com y teléfono +34 612 345 678"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
}

func TestTextEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	in := "contacto a@b.com y teléfono +34 612 345 678"
	got := Text(in)
	if got == in {
		t.Fatalf("expected redaction")
	}
	if want := "[REDACTED_EMAIL]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
	if want := "[REDACTED_PHONE]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
}

func TestPhoneMasksAllButTrailingDigits(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	got := Phone("+34612345678")
	if strings.Contains(got, "612345") {
		t.Fatalf("expected leading digits masked, got %q", got)
	}
	if !strings.HasSuffix(got, "678") {
		t.Fatalf("expected trailing digits kept, got %q", got)
	}
}
