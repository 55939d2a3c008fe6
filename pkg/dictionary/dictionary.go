// Package dictionary derives readings for captured Japanese text. The
// reading fills the back of a card when the memo itself carries no
// translation, so promotion stays deterministic.
package dictionary

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Annotator produces an auxiliary reading for memo text. An empty result
// means no enrichment is available.
type Annotator interface {
	Reading(text string) string
}

// Noop never enriches. Used when the tokenizer failed to initialize and in
// tests that do not care about card backs.
type Noop struct{}

func (Noop) Reading(string) string { return "" }

// Kagome annotates with the IPA dictionary. Construction loads the whole
// dictionary, so build one and share it.
type Kagome struct {
	t *tokenizer.Tokenizer
}

func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

// Reading returns the katakana reading of text, or "" when the reading
// adds nothing over the surface form.
func (k *Kagome) Reading(text string) string {
	var b strings.Builder
	for _, token := range k.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if reading, ok := token.Reading(); ok && reading != "*" {
			b.WriteString(reading)
			continue
		}
		b.WriteString(token.Surface)
	}
	reading := b.String()
	if reading == "" || reading == text {
		return ""
	}
	return reading
}
