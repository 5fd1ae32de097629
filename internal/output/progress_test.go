package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/meridian-os/updatectl/internal/fetch"
)

func TestDownloadBar_NonTTYPrintsCompletionOnly(t *testing.T) {
	var buf bytes.Buffer
	bar := NewDownloadBar("base-os-2.0.tgz")
	bar.SetWriter(&buf)

	bar.Update(fetch.Progress{Percent: 10, Total: 1000, Read: 100})
	bar.Update(fetch.Progress{Percent: 55, Total: 1000, Read: 550})
	if buf.Len() != 0 {
		t.Errorf("intermediate progress written to non-terminal: %q", buf.String())
	}

	bar.Finish()
	out := buf.String()
	if got := strings.Count(out, "\n"); got != 1 {
		t.Errorf("got %d lines; want exactly the completion line", got)
	}
	if !strings.Contains(out, "100%") || !strings.Contains(out, "base-os-2.0.tgz") {
		t.Errorf("completion line = %q; want percent and label", out)
	}
	if strings.Contains(out, "\r") {
		t.Errorf("carriage return written to non-terminal: %q", out)
	}
}

func TestVerifyCounter_SilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	counter := NewVerifyCounter()
	counter.SetWriter(&buf)

	counter.Update(1, 3, "/usr/bin/one")
	counter.Update(3, 3, "/usr/bin/three")
	if buf.Len() != 0 {
		t.Errorf("counter wrote to non-terminal: %q", buf.String())
	}
}
