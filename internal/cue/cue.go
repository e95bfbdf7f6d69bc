// Package cue plays the short correct/incorrect signal after an answer.
package cue

import (
	"io"
	"sync"
)

// Player plays a correctness cue. Implementations must not block.
type Player interface {
	Play(correct bool)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(correct bool)

func (f PlayerFunc) Play(correct bool) { f(correct) }

// Silent plays nothing.
type Silent struct{}

func (Silent) Play(bool) {}

// Bell rings the terminal bell: once for a correct answer, twice for a
// wrong one.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell returns a Bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Play(correct bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if correct {
		io.WriteString(b.w, "\a")
		return
	}
	io.WriteString(b.w, "\a\a")
}
