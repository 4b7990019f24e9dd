package skill

import (
	"encoding/xml"
	"strings"
)

// SpellPause separates the parts of a spell.
const SpellPause = "0.5s"

// SpeechBuilder assembles an SSML document.
//
// Text is XML-escaped; empty text is skipped so optional parts can be added
// unconditionally.
type SpeechBuilder struct {
	parts []string
}

// NewSpeechBuilder returns an empty builder.
func NewSpeechBuilder() *SpeechBuilder {
	return &SpeechBuilder{}
}

// AddText appends spoken text.
func (b *SpeechBuilder) AddText(text string) *SpeechBuilder {
	if strings.TrimSpace(text) == "" {
		return b
	}
	b.parts = append(b.parts, escape(text))
	return b
}

// AddAudio appends an audio clip.
func (b *SpeechBuilder) AddAudio(src string) *SpeechBuilder {
	if src == "" {
		return b
	}
	b.parts = append(b.parts, `<audio src="`+escape(src)+`"/>`)
	return b
}

// AddBreak appends a pause such as "0.5s" or "300ms".
func (b *SpeechBuilder) AddBreak(d string) *SpeechBuilder {
	b.parts = append(b.parts, `<break time="`+escape(d)+`"/>`)
	return b
}

// Empty reports whether nothing has been added.
func (b *SpeechBuilder) Empty() bool {
	return len(b.parts) == 0
}

// Build returns the SSML document.
func (b *SpeechBuilder) Build() string {
	return "<speak>" + strings.Join(b.parts, " ") + "</speak>"
}

func escape(s string) string {
	var sb strings.Builder
	// EscapeText only fails when the writer does; strings.Builder never does.
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
