package dictionary

import "testing"

func TestKagomeReading(t *testing.T) {
	k, err := NewKagome()
	if err != nil {
		t.Fatalf("failed to build tokenizer: %v", err)
	}

	reading := k.Reading("犬")
	if reading != "イヌ" {
		t.Fatalf("expected イヌ, got %q", reading)
	}
}

func TestKagomeReadingIsDeterministic(t *testing.T) {
	k, err := NewKagome()
	if err != nil {
		t.Fatalf("failed to build tokenizer: %v", err)
	}

	first := k.Reading("日本語を勉強する")
	second := k.Reading("日本語を勉強する")
	if first != second {
		t.Fatalf("readings differ: %q vs %q", first, second)
	}
	if first == "" {
		t.Fatal("expected a non-empty reading for kanji text")
	}
}

func TestKagomeReadingSkipsPlainKana(t *testing.T) {
	k, err := NewKagome()
	if err != nil {
		t.Fatalf("failed to build tokenizer: %v", err)
	}

	// Latin text has no useful reading.
	if got := k.Reading("hello"); got != "" {
		t.Fatalf("expected empty reading for latin text, got %q", got)
	}
}

func TestNoop(t *testing.T) {
	if got := (Noop{}).Reading("犬"); got != "" {
		t.Fatalf("expected empty reading, got %q", got)
	}
}
