// Package editor implements the cursor-addressable input buffer with history
// recall. All operations are pure and synchronous; the only failure mode is
// an explicit out-of-range cursor set.
package editor

import (
	"github.com/hovershell/core/internal/shared/types"
)

const notBrowsing = -1

// Editor holds one input line, its cursor, and submitted-line history.
type Editor struct {
	buf    []rune
	cursor int

	history    []string
	maxHistory int
	histIdx    int // index into history while browsing, notBrowsing otherwise

	// Unsent buffer snapshot taken when a history excursion begins, restored
	// exactly when the excursion walks past the newest entry.
	saved       []rune
	savedCursor int
}

// New creates an editor bounding history to maxHistory entries. A
// non-positive bound keeps all entries.
func New(maxHistory int) *Editor {
	return &Editor{maxHistory: maxHistory, histIdx: notBrowsing}
}

// Buffer returns the current buffer content.
func (e *Editor) Buffer() string { return string(e.buf) }

// Cursor returns the cursor offset in runes, always in [0, len(buffer)].
func (e *Editor) Cursor() int { return e.cursor }

// History returns a copy of the submitted-line history, most recent last.
func (e *Editor) History() []string {
	out := make([]string, len(e.history))
	copy(out, e.history)
	return out
}

// Browsing reports whether a history excursion is in progress.
func (e *Editor) Browsing() bool { return e.histIdx != notBrowsing }

// Insert splices text at the cursor and advances the cursor past it.
func (e *Editor) Insert(text string) {
	if text == "" {
		return
	}
	runes := []rune(text)
	e.buf = append(e.buf[:e.cursor], append(runes, e.buf[e.cursor:]...)...)
	e.cursor += len(runes)
}

// DeleteBackward removes up to n runes before the cursor, clamped at the
// buffer start. The cursor follows the deletion.
func (e *Editor) DeleteBackward(n int) {
	if n <= 0 || e.cursor == 0 {
		return
	}
	if n > e.cursor {
		n = e.cursor
	}
	e.buf = append(e.buf[:e.cursor-n], e.buf[e.cursor:]...)
	e.cursor -= n
}

// DeleteForward removes up to n runes after the cursor, clamped at the
// buffer end. The cursor stays fixed.
func (e *Editor) DeleteForward(n int) {
	if n <= 0 || e.cursor >= len(e.buf) {
		return
	}
	if n > len(e.buf)-e.cursor {
		n = len(e.buf) - e.cursor
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+n:]...)
}

// MoveCursor shifts the cursor by delta, clamped into [0, len(buffer)].
func (e *Editor) MoveCursor(delta int) {
	e.cursor += delta
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.buf) {
		e.cursor = len(e.buf)
	}
}

// SetCursor places the cursor at an absolute offset. Unlike MoveCursor this
// does not clamp: an out-of-range position is a programming error reported
// as types.ErrIndex.
func (e *Editor) SetCursor(pos int) error {
	if pos < 0 || pos > len(e.buf) {
		return types.ErrIndex
	}
	e.cursor = pos
	return nil
}

// HistoryPrev walks to the previous (older) history entry, snapshotting the
// unsent buffer on entry to browsing. At the oldest entry it is a no-op.
func (e *Editor) HistoryPrev() {
	if len(e.history) == 0 {
		return
	}
	switch {
	case e.histIdx == notBrowsing:
		e.saved = e.buf
		e.savedCursor = e.cursor
		e.histIdx = len(e.history) - 1
	case e.histIdx > 0:
		e.histIdx--
	default:
		return
	}
	e.buf = []rune(e.history[e.histIdx])
	e.cursor = len(e.buf)
}

// HistoryNext walks to the next (newer) history entry. Walking past the
// newest entry exits browsing and restores the snapshotted unsent buffer
// exactly as it was, cursor included.
func (e *Editor) HistoryNext() {
	if e.histIdx == notBrowsing {
		return
	}
	if e.histIdx < len(e.history)-1 {
		e.histIdx++
		e.buf = []rune(e.history[e.histIdx])
		e.cursor = len(e.buf)
		return
	}
	e.buf = e.saved
	e.cursor = e.savedCursor
	e.saved = nil
	e.histIdx = notBrowsing
}

// Submit returns the buffer content, appends it to history (skipping empty
// lines and immediate duplicates), clears the buffer, and exits browsing.
func (e *Editor) Submit() string {
	line := string(e.buf)

	if line != "" && (len(e.history) == 0 || e.history[len(e.history)-1] != line) {
		e.history = append(e.history, line)
		if e.maxHistory > 0 && len(e.history) > e.maxHistory {
			e.history = e.history[len(e.history)-e.maxHistory:]
		}
	}

	e.buf = nil
	e.cursor = 0
	e.saved = nil
	e.histIdx = notBrowsing
	return line
}
