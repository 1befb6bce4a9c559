package vars

import (
	"testing"
	"time"
)

func TestFirstNonZero(t *testing.T) {
	if got := FirstNonZero("", "a", "b"); got != "a" {
		t.Fatalf("got %q", got)
	}
	if got := FirstNonZero[time.Duration](0, 0); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestStrToBool(t *testing.T) {
	for str, expected := range map[string]bool{
		"yes":   true,
		" On ":  true,
		"1":     true,
		"no":    false,
		"":      false,
		"false": false,
	} {
		if got := StrToBool(str); got != expected {
			t.Fatalf("%q: got %v", str, got)
		}
	}
}
