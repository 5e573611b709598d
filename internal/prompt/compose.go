// Package prompt folds a personality profile and a memory window into a
// single generation prompt.
package prompt

import (
	"strings"

	"github.com/Domnoval/THE-37TH-MOVE/internal/memory"
	"github.com/Domnoval/THE-37TH-MOVE/internal/persona"
)

// Fallbacks used when a profile field is missing or blank.
const (
	FallbackName  = "AI Artwork"
	FallbackVoice = "contemplative"
)

// FallbackTraits is copied before use; callers must not rely on mutating it.
var FallbackTraits = []string{"thoughtful", "creative"}

// Compose builds the prompt for one turn. window is expected newest first,
// as returned by memory.Store.Recent; it is rendered oldest first. Compose is
// pure and never fails.
func Compose(profile persona.Profile, window []memory.Entry, message string) string {
	var b strings.Builder

	b.WriteString("You are ")
	b.WriteString(DisplayName(profile))
	b.WriteString(", an artwork brought to life, speaking with a ")
	b.WriteString(voice(profile))
	b.WriteString(" voice. Your personality traits: ")
	b.WriteString(strings.Join(traits(profile), ", "))
	b.WriteString(". Stay in character and answer as the artwork itself.\n\n")

	if len(window) > 0 {
		b.WriteString("Previous conversation:\n")
		for i := len(window) - 1; i >= 0; i-- {
			b.WriteString("User: ")
			b.WriteString(window[i].UserMessage)
			b.WriteString("\nAI: ")
			b.WriteString(window[i].AIResponse)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nAI:")
	return b.String()
}

// DisplayName returns the profile's name or FallbackName.
func DisplayName(p persona.Profile) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	return FallbackName
}

func voice(p persona.Profile) string {
	if v := strings.TrimSpace(p.Voice); v != "" {
		return v
	}
	return FallbackVoice
}

func traits(p persona.Profile) []string {
	out := make([]string, 0, len(p.Traits))
	for _, t := range p.Traits {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), FallbackTraits...)
	}
	return out
}
