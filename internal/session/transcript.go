package session

import (
	"strings"
	"sync"
)

// Transcript accumulates transcribed blocks separated by blank lines.
type Transcript struct {
	mu sync.RWMutex
	b  strings.Builder
}

// Append adds a block followed by a blank line.
func (t *Transcript) Append(block string) {
	t.mu.Lock()
	t.b.WriteString(block)
	t.b.WriteString("\n\n")
	t.mu.Unlock()
}

// Text returns the transcript without trailing whitespace.
func (t *Transcript) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return strings.TrimRight(t.b.String(), " \t\r\n")
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.b.Reset()
	t.mu.Unlock()
}
