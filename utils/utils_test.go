package utils

import "testing"

func TestExtractJSONObjectSkipsThinkBlock(t *testing.T) {
	raw := "<think>{\"not\": \"this\"} pondering...</think>\nSure: {\"rewritten\": \"\\\"Artist X\\\" tour dates\"} trailing"
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\"rewritten\": \"\\\"Artist X\\\" tour dates\"}"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExtractJSONObjectNested(t *testing.T) {
	raw := `prefix {"reasoning": {"news_agent": "covered {widely}"}, "agents": ["news_agent"]} suffix`
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"reasoning": {"news_agent": "covered {widely}"}, "agents": ["news_agent"]}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONObjectErrors(t *testing.T) {
	if _, err := ExtractJSONObject("no json here"); err == nil {
		t.Fatalf("expected error for missing object")
	}
	if _, err := ExtractJSONObject(`{"open": true`); err == nil {
		t.Fatalf("expected error for unterminated object")
	}
}

func TestCapWords(t *testing.T) {
	if got := CapWords("one two three four", 2); got != "one two …" {
		t.Fatalf("unexpected cap: %q", got)
	}
	if got := CapWords("short", 10); got != "short" {
		t.Fatalf("expected untouched string, got %q", got)
	}
}
