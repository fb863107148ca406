package msgcat

import (
	"strings"
	"testing"
)

func TestRenderKnownKeys(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	required := []string{
		"login.success", "login.duplicate", "login.required", "login.in_room",
		"room.created", "room.create_denied", "room.not_found",
		"room.full", "room.joined", "room.closed",
		"move.invalid", "move.not_playing",
		"game.checkmate", "game.draw",
	}
	have := map[string]bool{}
	for _, k := range c.Keys() {
		have[k] = true
	}
	for _, k := range required {
		if !have[k] {
			t.Fatalf("catalog missing key %q", k)
		}
		if c.Render(k, map[string]any{"Winner": "alice"}) == k {
			t.Fatalf("key %q rendered as itself", k)
		}
	}
}

func TestRenderTemplateArgs(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := c.Render("game.checkmate", map[string]any{"Winner": "bob"})
	if !strings.Contains(out, "bob") {
		t.Fatalf("winner not substituted: %q", out)
	}
}

func TestRenderUnknownKeyFallsBack(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Render("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("fallback = %q", got)
	}
}
