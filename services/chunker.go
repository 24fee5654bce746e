package services

import (
	"strings"
	"unicode/utf8"
)

// chunkSeparators is the boundary priority for recursive splitting, most
// semantic first. The empty string means rune-level splitting and must stay
// last.
var chunkSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits extracted text into overlapping chunks, preferring to break
// on paragraph and sentence boundaries before falling back to words and
// finally single runes.
type Chunker struct {
	chunkSize int
	overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split chunks the text. Empty or whitespace-only input yields no chunks and
// no error.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.split(text, chunkSeparators)
	return c.merge(pieces)
}

// split recursively breaks text into pieces no longer than chunkSize, trying
// each separator in priority order.
func (c *Chunker) split(text string, separators []string) []string {
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	sep := separators[len(separators)-1]
	rest := separators
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return c.splitRunes(text)
	}

	var pieces []string
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if len(part) <= c.chunkSize {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, c.split(part, rest)...)
	}
	return pieces
}

// splitRunes is the last resort for an unbroken run longer than chunkSize.
func (c *Chunker) splitRunes(text string) []string {
	var pieces []string
	var sb strings.Builder
	for _, r := range text {
		if sb.Len()+utf8.RuneLen(r) > c.chunkSize && sb.Len() > 0 {
			pieces = append(pieces, sb.String())
			sb.Reset()
		}
		sb.WriteRune(r)
	}
	if sb.Len() > 0 {
		pieces = append(pieces, sb.String())
	}
	return pieces
}

// merge greedily packs pieces into chunks up to chunkSize, seeding each new
// chunk with the tail of the previous one so context carries across the
// boundary.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var sb strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(sb.String())
		sb.Reset()
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if sb.Len()+len(piece) > c.chunkSize && sb.Len() > 0 {
			prev := sb.String()
			flush()
			if c.overlap > 0 {
				sb.WriteString(tailRunes(prev, c.overlap))
			}
			if sb.Len()+len(piece) > c.chunkSize && sb.Len() > 0 {
				sb.Reset()
			}
		}
		sb.WriteString(piece)
	}
	flush()
	return chunks
}

// tailRunes returns the last n bytes of s, moved forward to a rune boundary.
func tailRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
