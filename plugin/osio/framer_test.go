package osio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineFramer(t *testing.T) {
	tests := []struct {
		description string
		max         int
		chunks      []string
		expected    []string
	}{
		{
			description: "whole lines",
			max:         64,
			chunks:      []string{"a\nb\n"},
			expected:    []string{"a", "b"},
		},
		{
			description: "line split across chunks",
			max:         64,
			chunks:      []string{"hel", "lo\nwor", "ld\n"},
			expected:    []string{"hello", "world"},
		},
		{
			description: "crlf and empty lines",
			max:         64,
			chunks:      []string{"a\r\n\nb"},
			expected:    []string{"a", "", "b"},
		},
		{
			description: "overlong record",
			max:         4,
			chunks:      []string{"abcdef", "gh\n"},
			expected:    []string{"abcd", "efgh"},
		},
		{
			description: "overlong record completed by a newline",
			max:         8,
			chunks:      []string{"1234567", "abcdefghij\n"},
			expected:    []string{"1234567a", "bcdefghi", "j"},
		},
		{
			description: "overlong record within one chunk",
			max:         8,
			chunks:      []string{"abcdefghijkl\nok\n"},
			expected:    []string{"abcdefgh", "ijkl", "ok"},
		},
		{
			description: "record exactly max long",
			max:         4,
			chunks:      []string{"abcd", "\nefghijkl\n"},
			expected:    []string{"abcd", "efgh", "ijkl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			var got []string
			emit := func(b []byte) { got = append(got, string(b)) }
			f := newLineFramer(tt.max)
			for _, c := range tt.chunks {
				f.frame([]byte(c), emit)
			}
			f.flush(emit)
			assert.Equal(t, tt.expected, got)
			for _, r := range got {
				assert.LessOrEqual(t, len(r), tt.max)
			}
		})
	}
}

func TestPumpConfigDefaults(t *testing.T) {
	var c PumpConfig
	assert.NoError(t, c.defaults("stdin"))
	assert.Equal(t, "stdin", c.Name)
	assert.Equal(t, SplitRaw, c.Split)
	assert.Equal(t, defaultMaxLine, c.MaxLine)
	assert.Equal(t, defaultBuffer, c.Buffer)

	c = PumpConfig{Split: "words"}
	assert.Error(t, c.defaults("stdin"))
}
