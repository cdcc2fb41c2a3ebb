package clipboard

import (
	"errors"
	"testing"
)

func TestVerify(t *testing.T) {
	if !Available() {
		if err := Copy("x"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("Copy without clipboard = %v", err)
		}
		t.Skip("no clipboard utility")
	}
	before, err := Read()
	if err != nil {
		t.Skipf("clipboard not readable here: %v", err)
	}
	if _, err := Verify("parley clipboard check"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	after, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("clipboard not restored: %q -> %q", before, after)
	}
}
