package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Mask(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"badger", "snake", "mushroom"}, '*')
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean content is untouched",
			input:    "hello everyone, how are you?",
			expected: "hello everyone, how are you?",
		},
		{
			name:     "single word is masked",
			input:    "you are a badger",
			expected: "you are a ******",
		},
		{
			name:     "matching is case insensitive",
			input:    "BADGER alert",
			expected: "****** alert",
		},
		{
			name:     "leet speak does not evade the mask",
			input:    "b4dger and 5nak3",
			expected: "****** and *****",
		},
		{
			name:     "punctuation inside the word does not evade the mask",
			input:    "bad-ger!",
			expected: "*******!",
		},
		{
			name:     "spacing inside the word is masked with it",
			input:    "b a d g e r",
			expected: "***********",
		},
		{
			name:     "multiple words in one message",
			input:    "badger badger mushroom",
			expected: "****** ****** ********",
		},
		{
			name:     "empty content",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, moderator.Mask(tt.input))
		})
	}
}
