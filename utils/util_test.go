package utils

import "testing"

func TestMustPort(t *testing.T) {
	if got := MustPort(":8001"); got != 8001 {
		t.Fatalf("MustPort got=%d want=8001", got)
	}
	if got := MustPort("0.0.0.0:111"); got != 111 {
		t.Fatalf("MustPort got=%d want=111", got)
	}
	if got := MustPort("[::]:8080"); got != 8080 {
		t.Fatalf("MustPort got=%d want=8080", got)
	}
}

func TestValidPort(t *testing.T) {
	for _, p := range []int{0, 80, 8001, 65535} {
		if !ValidPort(p) {
			t.Fatalf("ValidPort(%d) = false", p)
		}
	}
	for _, p := range []int{-1, 65536} {
		if ValidPort(p) {
			t.Fatalf("ValidPort(%d) = true", p)
		}
	}
}
