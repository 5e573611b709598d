package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Domnoval/THE-37TH-MOVE/internal/memory"
	"github.com/Domnoval/THE-37TH-MOVE/internal/persona"
)

var starry = persona.Profile{
	ID:          "P1",
	DisplayName: "The Starry Night",
	Voice:       "dreamy",
	Traits:      []string{"passionate", "vivid"},
}

func TestComposeEmptyWindow(t *testing.T) {
	got := Compose(starry, nil, "Hello, how are you?")
	want := "You are The Starry Night, an artwork brought to life, speaking with a dreamy voice. " +
		"Your personality traits: passionate, vivid. Stay in character and answer as the artwork itself.\n\n" +
		"User: Hello, how are you?\nAI:"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Compose() mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(got, "Previous conversation") {
		t.Fatalf("empty window must omit the previous conversation block")
	}
}

func TestComposeRendersWindowOldestFirst(t *testing.T) {
	// Newest first, as the store returns it.
	window := []memory.Entry{
		{UserMessage: "third", AIResponse: "r3"},
		{UserMessage: "second", AIResponse: "r2"},
		{UserMessage: "first", AIResponse: "r1"},
	}
	got := Compose(starry, window, "fourth")

	wantTail := "Previous conversation:\n" +
		"User: first\nAI: r1\n" +
		"User: second\nAI: r2\n" +
		"User: third\nAI: r3\n" +
		"\nUser: fourth\nAI:"
	if !strings.HasSuffix(got, wantTail) {
		t.Fatalf("Compose() tail mismatch (-want +got):\n%s", cmp.Diff(wantTail, got[len(got)-min(len(got), len(wantTail)):]))
	}
	if window[0].UserMessage != "third" {
		t.Fatalf("Compose() must not reorder the caller's window")
	}
}

func TestComposeTenEntryWindowOrder(t *testing.T) {
	window := make([]memory.Entry, 0, 10)
	for i := 14; i >= 5; i-- {
		window = append(window, memory.Entry{UserMessage: fmt.Sprintf("m%02d", i), AIResponse: fmt.Sprintf("r%02d", i)})
	}
	got := Compose(starry, window, "next")

	last := -1
	for i := 5; i <= 14; i++ {
		idx := strings.Index(got, fmt.Sprintf("User: m%02d\n", i))
		if idx < 0 {
			t.Fatalf("m%02d missing from prompt", i)
		}
		if idx <= last {
			t.Fatalf("m%02d rendered out of chronological order", i)
		}
		last = idx
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	window := []memory.Entry{{UserMessage: "a", AIResponse: "b"}}
	first := Compose(starry, window, "c")
	second := Compose(starry, window, "c")
	if first != second {
		t.Fatalf("Compose() not byte-identical across calls")
	}
}

func TestComposeFallbackPersona(t *testing.T) {
	cases := map[string]persona.Profile{
		"zero":   {},
		"blanks": {ID: "x", DisplayName: "  ", Voice: "", Traits: []string{" ", ""}},
	}
	for name, profile := range cases {
		t.Run(name, func(t *testing.T) {
			got := Compose(profile, nil, "hi")
			for _, want := range []string{"You are AI Artwork,", "a contemplative voice", "traits: thoughtful, creative."} {
				if !strings.Contains(got, want) {
					t.Fatalf("Compose() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestComposePartialProfileKeepsPresentFields(t *testing.T) {
	got := Compose(persona.Profile{DisplayName: "Mona Lisa"}, nil, "hi")
	if !strings.Contains(got, "You are Mona Lisa,") || !strings.Contains(got, "a contemplative voice") {
		t.Fatalf("Compose() = %q", got)
	}
}

func TestFallbackTraitsNotShared(t *testing.T) {
	tr := traits(persona.Profile{})
	tr[0] = "changed"
	if FallbackTraits[0] != "thoughtful" {
		t.Fatalf("FallbackTraits mutated through traits()")
	}
}
