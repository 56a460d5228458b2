package templates

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	data, err := Lookup("retroarch.cfg")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty template")
	}
	if !Has("retroarch.cfg") {
		t.Error("Has(retroarch.cfg) = false")
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("nope.cfg")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("err = %v, want ErrUnknown", err)
	}
	if Has("nope.cfg") {
		t.Error("Has(nope.cfg) = true")
	}
}

func TestIDsSorted(t *testing.T) {
	ids := IDs()
	if len(ids) < 13 {
		t.Fatalf("IDs = %v", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDs not sorted: %v", ids)
		}
	}
}
