package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogRespectsEnabled(t *testing.T) {
	var buf bytes.Buffer
	prev := Enabled()
	defer func() {
		SetEnabled(prev)
		SetOutput(nil)
	}()

	SetEnabled(false)
	SetOutput(&buf)
	Log("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buf.String())
	}

	SetEnabled(true)
	Log("visible %d", 2)
	if !strings.Contains(buf.String(), "[RRG_DEBUG] ") || !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogEnterExit(t *testing.T) {
	var buf bytes.Buffer
	prev := Enabled()
	defer func() {
		SetEnabled(prev)
		SetOutput(nil)
	}()
	SetEnabled(true)
	SetOutput(&buf)

	done := LogEnterExit("build")
	done()

	out := buf.String()
	if !strings.Contains(out, "-> build") || !strings.Contains(out, "<- build") {
		t.Errorf("expected enter and exit lines, got %q", out)
	}
}

func TestAssertPanicsWhenEnabled(t *testing.T) {
	prev := Enabled()
	defer func() {
		SetEnabled(prev)
		SetOutput(nil)
	}()
	SetEnabled(true)
	SetOutput(&bytes.Buffer{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic from failed assertion")
		}
	}()
	Assert(false, "boom")
}
