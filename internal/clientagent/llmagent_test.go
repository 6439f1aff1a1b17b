package clientagent

import (
	"strings"
	"testing"

	"github.com/sherzodv/tim/internal/storage"
)

func TestRenderSpaceAbilitiesSkipsUnnamed(t *testing.T) {
	abilities := []storage.ParticipantAbilities{
		{
			Participant: storage.Participant{ID: 1, Nick: "mara"},
			Abilities: []storage.Ability{
				{Name: "web.crawl", Description: "fetch a page"},
				{Name: "  "},
			},
		},
		{
			Participant: storage.Participant{ID: 2},
			Abilities: []storage.Ability{
				{Name: "calc.add", Params: []storage.AbilityParam{{Name: "a"}, {Name: "b", Description: "second operand"}}},
			},
		},
	}

	out := renderSpaceAbilities(abilities)

	if !strings.Contains(out, "mara.web.crawl: fetch a page") {
		t.Fatalf("missing named ability entry, got:\n%s", out)
	}
	if !strings.Contains(out, "timite#2.calc.add") {
		t.Fatalf("missing fallback owner name, got:\n%s", out)
	}
	if !strings.Contains(out, "a, b (second operand)") {
		t.Fatalf("missing formatted params, got:\n%s", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly 2 rendered lines, got:\n%s", out)
	}
}

func TestFormatParamsNone(t *testing.T) {
	if got := formatParams(nil); got != "no parameters" {
		t.Fatalf("formatParams(nil) = %q", got)
	}
}

func TestRenderedSystemPromptFoldsPersonaAndAbilities(t *testing.T) {
	a := &LLMAgent{persona: "a helpful librarian", abilitiesContext: "- mara.web.crawl: fetch a page (no parameters)"}
	prompt := a.renderedSystemPrompt()

	if !strings.Contains(prompt, systemPrompt) {
		t.Fatalf("expected base system prompt to be present, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "a helpful librarian") {
		t.Fatalf("expected persona to be folded in, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "mara.web.crawl") {
		t.Fatalf("expected rendered abilities to be folded in, got:\n%s", prompt)
	}
}

func TestRenderedSystemPromptBareWithNoExtras(t *testing.T) {
	a := &LLMAgent{}
	if got := a.renderedSystemPrompt(); got != systemPrompt {
		t.Fatalf("expected bare system prompt with no persona/abilities, got:\n%s", got)
	}
}
