// Package moderation masks disallowed words in chat content before the
// message reaches persistence, using an Aho-Corasick automaton so the cost
// per message stays linear in the content length.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher  *goahocorasick.Machine
	maskChar rune
}

// textMapping links the normalized search text back to rune positions in the
// original content so the mask lands on the right characters.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton from a normalized copy of the word list.
func NewModerator(words []string, maskChar rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalizeRunes([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, maskChar: maskChar}, nil
}

// Mask replaces every character of a matched word with the mask rune,
// preserving the surrounding spacing and punctuation.
func (m *Moderator) Mask(original string) string {
	mapping := m.normalize(original)
	if len(mapping.normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original
	}

	origRunes := []rune(original)
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.maskChar
		}
	}

	return string(origRunes)
}

// normalize lowers, de-leets, and strips noise while tracking where each
// kept rune came from in the original string.
func (m *Moderator) normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak substitutions back to their alphabet
// counterparts so "b4d" matches "bad".
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
