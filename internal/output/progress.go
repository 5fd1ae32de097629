// Package output renders CLI progress. Library packages report through
// callbacks only; this is the one place that writes to the terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/meridian-os/updatectl/internal/fetch"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// DownloadBar renders download progress with size and transfer rate.
// Example: [=========>          ]  45% of 120 MB  12 MB/s
type DownloadBar struct {
	label  string
	width  int
	mu     sync.Mutex
	writer io.Writer
	last   fetch.Progress
}

// NewDownloadBar creates a bar labeled with the artifact being fetched.
func NewDownloadBar(label string) *DownloadBar {
	return &DownloadBar{
		label:  label,
		width:  40,
		writer: os.Stdout,
	}
}

// SetWriter sets the output writer (useful for testing).
func (b *DownloadBar) SetWriter(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writer = w
}

// Update is a fetch.ProgressFunc; hand it to the fetcher or resolver.
func (b *DownloadBar) Update(p fetch.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = p
	b.render(p)
}

// Finish completes the bar and moves to a new line.
func (b *DownloadBar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	done := b.last
	done.Percent = 100
	if done.Total > 0 {
		done.Read = done.Total
	}
	b.render(done)
	if writerIsTTY(b.writer) {
		fmt.Fprintln(b.writer)
	}
}

// render draws the bar (must be called with lock held).
func (b *DownloadBar) render(p fetch.Progress) {
	filled := 0
	if p.Percent > 0 {
		filled = p.Percent * b.width / 100
	}

	bar := strings.Builder{}
	bar.WriteString("[")
	for i := 0; i < b.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteString("=")
		case i == filled-1:
			bar.WriteString(">")
		default:
			bar.WriteString(" ")
		}
	}
	bar.WriteString("]")

	line := fmt.Sprintf("%s %3d%% of %s  %s/s  %s",
		bar.String(), p.Percent,
		humanize.Bytes(uint64(p.Total)),
		humanize.Bytes(uint64(p.Rate)),
		b.label)

	if writerIsTTY(b.writer) {
		fmt.Fprintf(b.writer, "\r%s", line)
	} else if p.Percent >= 100 {
		// Non-TTY: only the completion line, to keep logs clean.
		fmt.Fprintf(b.writer, "%s\n", line)
	}
}

// VerifyCounter reports audit progress as a running count.
type VerifyCounter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewVerifyCounter creates a counter writing to stdout.
func NewVerifyCounter() *VerifyCounter {
	return &VerifyCounter{writer: os.Stdout}
}

// SetWriter sets the output writer (useful for testing).
func (v *VerifyCounter) SetWriter(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writer = w
}

// Update is a verify.ProgressFunc.
func (v *VerifyCounter) Update(done, total int, path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !writerIsTTY(v.writer) {
		return
	}
	fmt.Fprintf(v.writer, "\rChecking %d/%d", done, total)
	if done == total {
		fmt.Fprintln(v.writer)
	}
}
