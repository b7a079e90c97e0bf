package id

import (
	"strings"
	"testing"
)

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		v := New("cv_")
		if !strings.HasPrefix(v, "cv_") {
			t.Fatalf("Expected prefix cv_, got %s", v)
		}
		if seen[v] {
			t.Fatalf("Duplicate id %s", v)
		}
		seen[v] = true
	}
}

func TestInit(t *testing.T) {
	if err := Init(7); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := Init(1 << 20); err == nil {
		t.Error("Expected error for node id out of range")
	}
	if New("x_") == "" {
		t.Error("Expected non-empty id")
	}
}
