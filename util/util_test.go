package util

import (
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"10MB", 10 * 1024 * 1024},
		{"512KB", 512 * 1024},
		{"2GB", 2 * 1024 * 1024 * 1024},
		{"1024", 1024},
		{"  64kb ", 64 * 1024},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseSize(tc.input, 0); got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseSize_Default(t *testing.T) {
	def := int64(4 * 1024 * 1024)
	for _, input := range []string{"", "garbage", "-5MB", "MB"} {
		if got := ParseSize(input, def); got != def {
			t.Errorf("ParseSize(%q) = %d, want default %d", input, got, def)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains([]string{"orders", "alerts"}, "alerts") {
		t.Error("expected Contains to find alerts")
	}
	if Contains([]string{"orders"}, "missing") {
		t.Error("expected Contains to not find missing")
	}
	if Contains([]int{}, 1) {
		t.Error("expected Contains on empty slice to be false")
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Unique returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Unique returned %v, want %v", got, want)
		}
	}
}
