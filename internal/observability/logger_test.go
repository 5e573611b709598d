package observability

import "testing"

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l, err := NewLogger(level, false)
		if err != nil {
			t.Fatalf("NewLogger(%q) error = %v", level, err)
		}
		_ = l.Sync()
	}
	if _, err := NewLogger("loud", true); err == nil {
		t.Fatalf("NewLogger(loud) expected error")
	}
}
