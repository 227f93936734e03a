package envutil

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_GET", "  value  ")
	if got := Get("ENVUTIL_TEST_GET", "fallback"); got != "value" {
		t.Fatalf("Get = %q, want trimmed value", got)
	}
	if got := Get("ENVUTIL_TEST_GET_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("Get on unset = %q, want fallback", got)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{"parses", "45", 7, 45},
		{"empty_uses_default", "", 7, 7},
		{"garbage_uses_default", "forty", 7, 7},
		{"negative_passes_through", "-3", 7, -3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ENVUTIL_TEST_INT", tc.value)
			if got := Int("ENVUTIL_TEST_INT", tc.def); got != tc.want {
				t.Fatalf("Int(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{"one_is_true", "1", false, true},
		{"yes_is_true", "YES", false, true},
		{"off_is_false", "off", true, false},
		{"empty_uses_default", "", true, true},
		{"garbage_uses_default", "maybe", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ENVUTIL_TEST_BOOL", tc.value)
			if got := Bool("ENVUTIL_TEST_BOOL", tc.def); got != tc.want {
				t.Fatalf("Bool(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}
