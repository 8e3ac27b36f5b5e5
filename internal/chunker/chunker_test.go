package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		chunkSize    int
		chunkOverlap int
		wantErr      error
	}{
		{name: "valid", chunkSize: 1000, chunkOverlap: 200},
		{name: "zero size falls back to default", chunkSize: 0, chunkOverlap: 200},
		{name: "negative overlap falls back to zero", chunkSize: 100, chunkOverlap: -5},
		{name: "overlap equals size", chunkSize: 100, chunkOverlap: 100, wantErr: ErrBadOverlap},
		{name: "overlap exceeds size", chunkSize: 100, chunkOverlap: 150, wantErr: ErrBadOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.chunkSize, tt.chunkOverlap)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	chunks := s.Split("  hello world  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("some words in a sentence. ")
	}

	chunks := s.Split(b.String())
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 50)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitParagraphsPreserveOrder(t *testing.T) {
	s, err := New(40, 0)
	require.NoError(t, err)

	text := "first paragraph with enough text to matter.\n\n" +
		"second paragraph also has several words.\n\n" +
		"third."

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	firstIdx := strings.Index(joined, "first")
	secondIdx := strings.Index(joined, "second")
	thirdIdx := strings.Index(joined, "third")
	assert.True(t, firstIdx >= 0 && secondIdx > firstIdx && thirdIdx > secondIdx,
		"chunks must preserve input order: %v", chunks)
}

func TestSplitOverlapSharedContext(t *testing.T) {
	s, err := New(30, 10)
	require.NoError(t, err)

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi"
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share words from the overlap tail.
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		lastWord := prevWords[len(prevWords)-1]
		assert.Contains(t, chunks[i], lastWord,
			"chunk %d should carry overlap from chunk %d", i, i-1)
	}
}

func TestSplitWindowsFallback(t *testing.T) {
	s, err := New(10, 4)
	require.NoError(t, err)

	// No separators at all: raw rune windows stepping size-overlap.
	chunks := s.Split(strings.Repeat("a", 25))
	require.Len(t, chunks, 4)
	assert.Equal(t, strings.Repeat("a", 10), chunks[0])
	assert.Equal(t, strings.Repeat("a", 7), chunks[3])
}

func TestSplitNeverExceedsChunkSize(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	// Sentence pieces close to the chunk size force the merge step to carry
	// an overlap tail between nearly full chunks.
	var sentences strings.Builder
	for i := 0; i < 8; i++ {
		sentences.WriteString(strings.Repeat("x", 43) + ". ")
	}

	// Long separator-free runs go through the rune-window fallback and back
	// up through the merge step.
	mixed := sentences.String() + strings.Repeat("y", 200) + " tail words here"

	for _, text := range []string{sentences.String(), strings.Repeat("y", 200), mixed} {
		for i, c := range s.Split(text) {
			assert.LessOrEqual(t, len([]rune(c)), 50,
				"chunk %d has %d runes, exceeds chunk size", i, len([]rune(c)))
		}
	}
}

func TestSplitWindowChunksNotDuplicated(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	// 200 identical runes, window step 40: the final chunk is the 40-rune
	// remainder, not a re-overlapped blob.
	chunks := s.Split(strings.Repeat("z", 200))
	require.Len(t, chunks, 5)
	for _, c := range chunks[:4] {
		assert.Len(t, []rune(c), 50)
	}
	assert.Len(t, []rune(chunks[4]), 40)
}

func TestSplitMultiByteRunes(t *testing.T) {
	s, err := New(10, 0)
	require.NoError(t, err)

	chunks := s.Split(strings.Repeat("界", 25))
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 10)
	}
}
