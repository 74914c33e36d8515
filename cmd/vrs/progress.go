package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// progressBar renders a copy/merge's running record count, adapted
// from the teacher's pkg/util.ProgressBar: this one tracks record
// counts instead of byte counts, since CopyOptions.Progress reports
// (copied, total int) records rather than bytes.
type progressBar struct {
	mu       sync.Mutex
	total    int
	current  int
	start    time.Time
	prefix   string
	width    int
	writer   io.Writer
	lastDraw time.Time
}

func newProgressBar(total int, prefix string, writer io.Writer) *progressBar {
	return &progressBar{
		total:  total,
		prefix: prefix,
		width:  barWidth(),
		writer: writer,
		start:  time.Now(),
	}
}

// barWidth picks a fixed bar width based on the terminal's current
// size (falling back to 40 columns when stdout isn't a terminal), per
// SPEC_FULL.md's domain-stack wiring for golang.org/x/term.
func barWidth() int {
	const fallback = 40
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 20 {
		return fallback
	}
	if w-30 < 10 {
		return 10
	}
	return w - 30
}

// Set updates the bar to (copied, total), throttled to 10 redraws/sec
// exactly like the teacher's Add.
func (p *progressBar) Set(copied, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current, p.total = copied, total
	if p.current > p.total {
		p.current = p.total
	}
	if time.Since(p.lastDraw) < 100*time.Millisecond && p.current < p.total {
		return
	}
	p.draw()
	p.lastDraw = time.Now()
}

func (p *progressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.draw()
	fmt.Fprintln(p.writer)
}

func (p *progressBar) draw() {
	if p.total <= 0 {
		return
	}
	percent := float64(p.current) / float64(p.total) * 100
	filled := int(float64(p.width) * float64(p.current) / float64(p.total))
	if filled > p.width {
		filled = p.width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	eta := ""
	elapsed := time.Since(p.start)
	if p.current > 0 && p.current < p.total && elapsed > 0 {
		recPerSec := float64(p.current) / elapsed.Seconds()
		if recPerSec > 0 {
			remaining := float64(p.total-p.current) / recPerSec
			eta = fmt.Sprintf(" ETA: %s", formatDuration(time.Duration(remaining)*time.Second))
		}
	}

	fmt.Fprintf(p.writer, "\r%s [%s] %.1f%% %d/%d records%s",
		p.prefix, bar, percent, p.current, p.total, eta)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
