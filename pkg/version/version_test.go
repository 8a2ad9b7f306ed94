package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	if !strings.HasPrefix(String(), Version) {
		t.Errorf("String() = %q, want prefix %q", String(), Version)
	}
}
