package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mview/internal/ansi"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		patterns map[int]string
		line     string
		want     []Match
	}{
		{
			name:     "no patterns",
			patterns: nil,
			line:     "anything",
			want:     nil,
		},
		{
			name:     "case insensitive",
			patterns: map[int]string{0: "Error"},
			line:     "an ERROR occurred",
			want:     []Match{{Slot: 0, Off: 3, Len: 5}},
		},
		{
			name:     "repeated hits",
			patterns: map[int]string{0: "ab"},
			line:     "ababab",
			want: []Match{
				{Slot: 0, Off: 0, Len: 2},
				{Slot: 0, Off: 2, Len: 2},
				{Slot: 0, Off: 4, Len: 2},
			},
		},
		{
			name:     "earliest start wins",
			patterns: map[int]string{0: "cde", 1: "bcd"},
			line:     "abcdef",
			want:     []Match{{Slot: 1, Off: 1, Len: 3}},
		},
		{
			name:     "tie broken by lowest slot",
			patterns: map[int]string{2: "xy", 4: "xyz"},
			line:     "wxyz",
			want:     []Match{{Slot: 2, Off: 1, Len: 2}},
		},
		{
			name:     "scan resumes after winner",
			patterns: map[int]string{0: "aa", 1: "ab"},
			line:     "aaab",
			want: []Match{
				{Slot: 0, Off: 0, Len: 2},
				{Slot: 1, Off: 2, Len: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet()
			for slot, pat := range tt.patterns {
				require.NoError(t, s.Install(slot, pat))
			}
			assert.Equal(t, tt.want, s.Scan([]byte(tt.line)))
		})
	}
}

func TestInstallValidation(t *testing.T) {
	s := NewSet()
	assert.Error(t, s.Install(0, ""))
	assert.Error(t, s.Install(MaxPatterns, "x"))
	assert.Error(t, s.Install(-1, "x"))
	assert.NoError(t, s.Install(MaxPatterns-1, "x"))
}

func TestFoundTracking(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Install(1, "needle"))

	assert.False(t, s.Found(1))
	s.Scan([]byte("plain hay"))
	assert.False(t, s.Found(1))
	s.Scan([]byte("hayNEEDLEhay"))
	assert.True(t, s.Found(1))

	// Reinstalling resets the flag.
	require.NoError(t, s.Install(1, "other"))
	assert.False(t, s.Found(1))
}

func TestMatchesBySlot(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Install(0, "alpha"))
	require.NoError(t, s.Install(3, "beta"))

	assert.True(t, s.Matches([]byte("the BETA branch"), 3))
	assert.False(t, s.Matches([]byte("the BETA branch"), 0))
	assert.True(t, s.Matches([]byte("the BETA branch"), -1))
}

func TestHighlightComposesWithBackground(t *testing.T) {
	dark := Highlight(0, ansi.Terminal{DarkBackground: true})
	assert.Equal(t, Palette[0], dark.BG)
	assert.False(t, dark.Reverse)

	light := Highlight(0, ansi.Terminal{DarkBackground: false})
	assert.Equal(t, Palette[0], light.FG)
	assert.True(t, light.Reverse)

	// Slots wrap modulo the palette size.
	assert.Equal(t, Highlight(1, ansi.Terminal{DarkBackground: true}),
		Highlight(MaxPatterns+1, ansi.Terminal{DarkBackground: true}))
}
