package main

import (
	"strings"
	"sync"
)

const logPanelLines = 6

// logRing keeps the last lines written to the viewer log for the HUD.
type logRing struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLogRing(n int) *logRing {
	return &logRing{max: n}
}

func (l *logRing) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		l.lines = append(l.lines, line)
	}
	if over := len(l.lines) - l.max; over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
	return len(p), nil
}

// Lines returns a copy of the retained lines, oldest first.
func (l *logRing) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
