// Package notify emits the audible terminal bell after a build when the
// user asked for it.
package notify

import "io"

// Bell writes the terminal bell character to w when enabled.
type Bell struct {
	w       io.Writer
	enabled bool
}

// NewBell creates a bell writer. When enabled is false Ring is a no-op.
func NewBell(w io.Writer, enabled bool) *Bell {
	return &Bell{w: w, enabled: enabled}
}

// Ring sounds the bell.
func (b *Bell) Ring() {
	if !b.enabled || b.w == nil {
		return
	}

	_, _ = b.w.Write([]byte{'\a'})
}
