package chunker

import (
	"errors"
	"strings"
)

// Separators tried in order, coarse to fine. Only when a piece still exceeds
// the chunk size does splitting descend to the next separator; past the last
// one the text is cut into raw rune windows.
var separators = []string{"\n\n", "\n", ". ", " "}

var ErrBadOverlap = errors.New("chunk overlap must be smaller than chunk size")

// Splitter cuts text into overlapping chunks of at most ChunkSize runes.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		return nil, ErrBadOverlap
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split returns ordered, non-empty chunks. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	if runeLen(text) <= s.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{strings.TrimSpace(text)}
	}
	if len(seps) == 0 {
		return s.windows(text)
	}

	parts := strings.SplitAfter(text, seps[0])
	pieces := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if runeLen(part) > s.chunkSize {
			pieces = append(pieces, s.split(part, seps[1:])...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return s.merge(pieces)
}

// merge joins adjacent pieces up to the chunk size, carrying the tail of each
// finished chunk into the next one so neighbouring chunks share context. The
// carried tail shrinks when needed so no chunk ever exceeds the chunk size;
// every incoming piece is itself at most chunkSize runes.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []rune
	for _, piece := range pieces {
		runes := []rune(piece)
		if len(current) > 0 && len(current)+len(runes) > s.chunkSize {
			chunks = appendChunk(chunks, current)
			current = s.overlapTail(current)
			if overflow := len(current) + len(runes) - s.chunkSize; overflow > 0 {
				if overflow >= len(current) {
					current = nil
				} else {
					current = current[overflow:]
				}
			}
		}
		current = append(current, runes...)
	}
	return appendChunk(chunks, current)
}

// windows is the last resort for text with no usable separators: fixed rune
// windows advancing by chunkSize-chunkOverlap.
func (s *Splitter) windows(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = appendChunk(chunks, runes[i:end])
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func (s *Splitter) overlapTail(current []rune) []rune {
	if s.chunkOverlap == 0 {
		return nil
	}
	tail := current
	if len(tail) > s.chunkOverlap {
		tail = tail[len(tail)-s.chunkOverlap:]
	}
	return append([]rune(nil), tail...)
}

func appendChunk(chunks []string, runes []rune) []string {
	text := strings.TrimSpace(string(runes))
	if text == "" {
		return chunks
	}
	return append(chunks, text)
}

func runeLen(s string) int {
	return len([]rune(s))
}
