package trigger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hovershell/core/internal/shared/types"
)

func TestNormalizeChord(t *testing.T) {
	cases := []struct {
		spec string
		want string
	}{
		{"alt+`", "alt+`"},
		{"Alt + Shift + P", "alt+shift+p"},
		{"cmd+`", "ctrl+`"},
		{"command+k", "ctrl+k"},
		{"Control+K", "ctrl+k"},
		{"option+space", "alt+space"},
		{"super+enter", "meta+enter"},
		{"shift+ctrl+a", "ctrl+shift+a"},
		{"ctrl+ctrl+a", "ctrl+a"},
		{"esc", "esc"},
	}
	for _, tc := range cases {
		got, err := NormalizeChord(tc.spec)
		require.NoError(t, err, tc.spec)
		assert.Equal(t, tc.want, got, tc.spec)
	}
}

func TestNormalizeChordCmdCtrlEquivalence(t *testing.T) {
	a, err := NormalizeChord("cmd+shift+t")
	require.NoError(t, err)
	b, err := NormalizeChord("ctrl+shift+t")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizeChordRejectsMalformed(t *testing.T) {
	for _, spec := range []string{"", "   ", "ctrl+", "+a", "ctrl+alt", "a+b", "ctrl+a+b"} {
		_, err := NormalizeChord(spec)
		assert.True(t, errors.Is(err, types.ErrValidation), spec)
	}
}
