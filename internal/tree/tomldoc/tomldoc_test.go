package tomldoc

import (
	"errors"
	"strings"
	"testing"

	"emuinject/internal/binding"
	"emuinject/internal/settings"
	"emuinject/internal/tree"
)

const xenia = `[GPU]
vsync = true
draw_resolution_scale_x = 1

[Display]
fullscreen = false
`

func TestRoundTripWithoutComments(t *testing.T) {
	for _, in := range []string{
		xenia,
		"[[bindings]]\nname = \"a\"\n\n[[bindings]]\nname = \"b\"\n",
		"title = \"x\"\n\n[a.b]\nc = 1\n",
	} {
		doc, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		out, _ := doc.Bytes()
		if string(out) != in {
			t.Fatalf("round trip\ngot\n%s\nwant\n%s", out, in)
		}
	}
}

func TestApplyOverwritesAndAppends(t *testing.T) {
	doc, err := Parse([]byte(xenia))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	changes, err := tree.Apply(doc, []binding.KeyBinding{
		{Scope: "GPU", Key: "vsync", Value: settings.BoolValue(false)},
		{Scope: "Display", Key: "fullscreen", Value: settings.BoolValue(true)},
		{Scope: "APU", Key: "volume", Value: settings.FloatValue(1)},
		{Key: "license_mask", Value: settings.IntValue(1)},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(changes.Replaced) != 2 || len(changes.Appended) != 2 {
		t.Fatalf("changes = %+v", changes)
	}
	out, _ := doc.Bytes()
	want := "license_mask = 1\n\n" +
		"[GPU]\nvsync = false\ndraw_resolution_scale_x = 1\n\n" +
		"[Display]\nfullscreen = true\n\n" +
		"[APU]\nvolume = 1.0\n"
	if string(out) != want {
		t.Fatalf("got\n%s\nwant\n%s", out, want)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	bindings := []binding.KeyBinding{
		{Scope: "gpu", Key: "VSYNC", Value: settings.BoolValue(true)},
		{Scope: "Content", Key: "path", Value: settings.StringValue(`C:\Games "x"`)},
	}
	doc, err := Parse([]byte(xenia))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := tree.Apply(doc, bindings); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	first, _ := doc.Bytes()
	doc, err = Parse(first)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, first)
	}
	changes, err := tree.Apply(doc, bindings)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if changes.Modified() {
		t.Fatalf("second apply changed %+v", changes)
	}
	second, _ := doc.Bytes()
	if string(first) != string(second) {
		t.Fatalf("not idempotent\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(string(first), `path = "C:\\Games \"x\""`) {
		t.Fatalf("string not escaped:\n%s", first)
	}
}

func TestValuesAreNormalized(t *testing.T) {
	doc, err := Parse([]byte("paths = ['a', \"b\"]\npoint = {x = 1, y = 2}\nwhen = 1979-05-27\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, _ := doc.Bytes()
	want := "paths = [\"a\", \"b\"]\npoint = { x = 1, y = 2 }\nwhen = 1979-05-27\n"
	if string(out) != want {
		t.Fatalf("got\n%s\nwant\n%s", out, want)
	}
}

func TestSections(t *testing.T) {
	doc, err := Parse([]byte("name = \"x\"\n\n[video]\nscale = 2\nratio = 1.5\nvsync = true\n\n[video.shader]\npreset = \"crt\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	secs, err := doc.Sections()
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(secs) != 3 || secs[0].Name != "" || secs[1].Name != "video" || secs[2].Name != "video.shader" {
		t.Fatalf("sections = %+v", secs)
	}
	v := secs[1].Entries
	if !v[0].Value.Equal(settings.IntValue(2)) || !v[1].Value.Equal(settings.FloatValue(1.5)) || !v[2].Value.Equal(settings.BoolValue(true)) {
		t.Fatalf("video entries = %+v", v)
	}
	if secs[2].Entries[0].Value.String() != "crt" {
		t.Fatalf("shader entries = %+v", secs[2].Entries)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"a = \n",
		"a = 1\na = 2\n",
		"a = 1\n[a]\nb = 2\n",
	} {
		_, err := Parse([]byte(in))
		var pe *tree.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Parse(%q) err = %v, want ParseError", in, err)
		}
	}
}

func TestConflictingLeaf(t *testing.T) {
	doc, err := Parse([]byte("[GPU]\nvsync = true\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = tree.Apply(doc, []binding.KeyBinding{{Key: "GPU", Value: settings.BoolValue(true)}})
	if err == nil {
		t.Fatal("expected error setting a table as a value")
	}
}
