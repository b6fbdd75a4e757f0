package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hovershell/core/internal/shared/types"
)

func TestInsertAdvancesCursor(t *testing.T) {
	e := New(100)
	e.Insert("hello")

	assert.Equal(t, "hello", e.Buffer())
	assert.Equal(t, 5, e.Cursor())
}

func TestInsertAtCursorSplices(t *testing.T) {
	e := New(100)
	e.Insert("hd")
	e.MoveCursor(-1)
	e.Insert("ello worl")

	assert.Equal(t, "hello world", e.Buffer())
	assert.Equal(t, 10, e.Cursor())
}

func TestInsertDeleteRoundTrip(t *testing.T) {
	cases := []string{"a", "hello", "héllo wörld", "日本語テスト", ""}
	for _, s := range cases {
		e := New(100)
		e.Insert("prefix")
		before, cursor := e.Buffer(), e.Cursor()

		e.Insert(s)
		e.DeleteBackward(len([]rune(s)))

		assert.Equal(t, before, e.Buffer(), "input %q", s)
		assert.Equal(t, cursor, e.Cursor(), "input %q", s)
	}
}

func TestDeleteBackwardClampsAtStart(t *testing.T) {
	e := New(100)
	e.Insert("ab")
	e.DeleteBackward(10)

	assert.Equal(t, "", e.Buffer())
	assert.Equal(t, 0, e.Cursor())
}

func TestDeleteForwardKeepsCursor(t *testing.T) {
	e := New(100)
	e.Insert("abcdef")
	e.MoveCursor(-4)
	e.DeleteForward(2)

	assert.Equal(t, "abef", e.Buffer())
	assert.Equal(t, 2, e.Cursor())

	e.DeleteForward(10)
	assert.Equal(t, "ab", e.Buffer())
	assert.Equal(t, 2, e.Cursor())
}

func TestMoveCursorClamps(t *testing.T) {
	e := New(100)
	e.Insert("abc")

	e.MoveCursor(-100)
	assert.Equal(t, 0, e.Cursor())

	e.MoveCursor(100)
	assert.Equal(t, 3, e.Cursor())
}

func TestSetCursorOutOfRange(t *testing.T) {
	e := New(100)
	e.Insert("abc")

	require.NoError(t, e.SetCursor(0))
	require.NoError(t, e.SetCursor(3))

	err := e.SetCursor(4)
	assert.True(t, errors.Is(err, types.ErrIndex))
	err = e.SetCursor(-1)
	assert.True(t, errors.Is(err, types.ErrIndex))
}

func TestSubmitAppendsHistoryAndClears(t *testing.T) {
	e := New(100)
	e.Insert("ls -la")

	line := e.Submit()
	assert.Equal(t, "ls -la", line)
	assert.Equal(t, "", e.Buffer())
	assert.Equal(t, 0, e.Cursor())
	assert.Equal(t, []string{"ls -la"}, e.History())
}

func TestSubmitSkipsEmptyAndDuplicates(t *testing.T) {
	e := New(100)

	e.Submit()
	assert.Empty(t, e.History())

	e.Insert("make test")
	e.Submit()
	e.Insert("make test")
	e.Submit()
	assert.Equal(t, []string{"make test"}, e.History())

	e.Insert("make build")
	e.Submit()
	e.Insert("make test")
	e.Submit()
	assert.Equal(t, []string{"make test", "make build", "make test"}, e.History())
}

func TestHistoryRoundTrip(t *testing.T) {
	e := New(100)
	e.Insert("ls -la")
	e.Submit()

	// In-progress text survives a cancelled excursion.
	e.Insert("echo dra")
	e.MoveCursor(-3)

	e.HistoryPrev()
	assert.Equal(t, "ls -la", e.Buffer())
	assert.Equal(t, 6, e.Cursor())

	e.HistoryNext()
	assert.Equal(t, "echo dra", e.Buffer())
	assert.Equal(t, 5, e.Cursor())
	assert.False(t, e.Browsing())
}

func TestHistoryRoundTripEmptyBuffer(t *testing.T) {
	e := New(100)
	e.Insert("pwd")
	e.Submit()

	e.HistoryPrev()
	assert.Equal(t, "pwd", e.Buffer())

	e.HistoryNext()
	assert.Equal(t, "", e.Buffer())
	assert.Equal(t, 0, e.Cursor())
}

func TestHistoryWalkStopsAtOldest(t *testing.T) {
	e := New(100)
	for _, cmd := range []string{"one", "two", "three"} {
		e.Insert(cmd)
		e.Submit()
	}

	e.HistoryPrev()
	e.HistoryPrev()
	e.HistoryPrev()
	assert.Equal(t, "one", e.Buffer())

	e.HistoryPrev()
	assert.Equal(t, "one", e.Buffer())

	e.HistoryNext()
	assert.Equal(t, "two", e.Buffer())
}

func TestHistoryPrevOnEmptyHistory(t *testing.T) {
	e := New(100)
	e.Insert("draft")
	e.HistoryPrev()

	assert.Equal(t, "draft", e.Buffer())
	assert.False(t, e.Browsing())
}

func TestHistoryNextWithoutBrowsing(t *testing.T) {
	e := New(100)
	e.Insert("draft")
	e.HistoryNext()

	assert.Equal(t, "draft", e.Buffer())
}

func TestHistoryEviction(t *testing.T) {
	e := New(3)
	for _, cmd := range []string{"a", "b", "c", "d", "e"} {
		e.Insert(cmd)
		e.Submit()
	}

	assert.Equal(t, []string{"c", "d", "e"}, e.History())
}

func TestSubmitExitsBrowsing(t *testing.T) {
	e := New(100)
	e.Insert("first")
	e.Submit()

	e.Insert("draft")
	e.HistoryPrev()
	require.True(t, e.Browsing())

	line := e.Submit()
	assert.Equal(t, "first", line)
	assert.False(t, e.Browsing())
	assert.Equal(t, "", e.Buffer())
}
