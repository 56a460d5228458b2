package binding

import (
	"testing"

	"emuinject/internal/settings"
)

func TestInScope(t *testing.T) {
	scoped := KeyBinding{Key: "vsync", Scope: "Video"}
	if !scoped.InScope("video") {
		t.Fatal("scope match should be case-insensitive")
	}
	if scoped.InScope("") || scoped.InScope("Audio") {
		t.Fatal("scoped binding must not match other scopes")
	}
	unscoped := KeyBinding{Key: "vsync"}
	if !unscoped.InScope("") || !unscoped.InScope("Anything") {
		t.Fatal("unscoped binding should match everywhere")
	}
}

func TestValidate(t *testing.T) {
	ok := []KeyBinding{{Key: "a", Value: settings.IntValue(1)}}
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate([]KeyBinding{{Key: " "}}); err == nil {
		t.Fatal("expected empty key error")
	}
	if err := Validate([]KeyBinding{{Key: "a", Policy: Policy(9)}}); err == nil {
		t.Fatal("expected unknown policy error")
	}
}

func TestChanges(t *testing.T) {
	var c Changes
	if c.Modified() {
		t.Fatal("zero changes should not be modified")
	}
	c.Replace("Video.vsync")
	c.Replace("Video.vsync")
	c.Append("volume")
	if !c.Modified() || len(c.Replaced) != 1 || len(c.Appended) != 1 {
		t.Fatalf("unexpected changes %+v", c)
	}
}

func TestDefaultFlagKey(t *testing.T) {
	b := KeyBinding{Key: "use_vsync_new"}
	if got := b.DefaultFlagKey(); got != `use_vsync_new\default` {
		t.Fatalf("DefaultFlagKey = %q", got)
	}
}
