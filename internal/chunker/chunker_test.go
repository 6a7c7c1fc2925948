package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// words builds n space-separated words of width chars each.
func words(n, width int) string {
	w := strings.Repeat("x", width)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = w
	}
	return strings.Join(parts, " ")
}

func pagesFromText(texts ...string) []domain.Page {
	pages := make([]domain.Page, len(texts))
	for i, t := range texts {
		pages[i] = domain.Page{Number: i + 1, Text: t}
	}
	return pages
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)

	c = New(Options{ChunkSize: 100, ChunkOverlap: 150})
	assert.Less(t, c.overlap, c.chunkSize, "overlap must be clamped below chunk size")
}

func TestChunk_Empty(t *testing.T) {
	c := New(Options{ChunkSize: 100, ChunkOverlap: 10})
	assert.Empty(t, c.Chunk(nil))
	assert.Empty(t, c.Chunk(pagesFromText("", "   \n\t ", "")))
}

func TestChunk_SingleSmallPage(t *testing.T) {
	c := New(Options{ChunkSize: 100, ChunkOverlap: 10})
	chunks := c.Chunk(pagesFromText("hello world"))
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunk_OverlapSeedsNextChunk(t *testing.T) {
	const size, overlap = 512, 50
	c := New(Options{ChunkSize: size, ChunkOverlap: overlap})

	// Three pages of ~500 characters each.
	chunks := c.Chunk(pagesFromText(words(50, 9), words(50, 9), words(50, 9)))
	require.GreaterOrEqual(t, len(chunks), 3)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), size+overlap, "chunk %d exceeds size plus one overlap window", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		require.Greater(t, len(prev), overlap)
		assert.Equal(t, prev[len(prev)-overlap:], chunks[i][:overlap],
			"chunk %d must start with the previous chunk's trailing overlap", i)
	}
}

func TestChunk_Reconstruction(t *testing.T) {
	const overlap = 50
	c := New(Options{ChunkSize: 512, ChunkOverlap: overlap})

	original := words(80, 7) + " " + words(70, 11)
	chunks := c.Chunk(pagesFromText(original))
	require.NotEmpty(t, chunks)

	// Stripping each chunk's leading overlap (plus joining space) and
	// concatenating must reconstruct the whitespace-normalised input.
	parts := []string{chunks[0]}
	for _, chunk := range chunks[1:] {
		parts = append(parts, chunk[overlap+1:])
	}
	reconstructed := strings.Join(parts, " ")
	assert.Equal(t, strings.Join(strings.Fields(original), " "), reconstructed)
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(Options{ChunkSize: 300, ChunkOverlap: 40})
	pages := pagesFromText(words(120, 6), words(33, 14))

	first := c.Chunk(pages)
	second := c.Chunk(pages)
	assert.Equal(t, first, second)
}

func TestChunk_OversizedWordEmittedWhole(t *testing.T) {
	c := New(Options{ChunkSize: 50, ChunkOverlap: 10})
	giant := strings.Repeat("y", 200)

	chunks := c.Chunk(pagesFromText("small start " + giant + " small end"))
	found := false
	for _, chunk := range chunks {
		if strings.Contains(chunk, giant) {
			found = true
		}
	}
	assert.True(t, found, "oversized word must not be truncated")
}

func TestChunk_NoOverlap(t *testing.T) {
	c := New(Options{ChunkSize: 100, ChunkOverlap: 0})
	chunks := c.Chunk(pagesFromText(words(40, 9)))
	require.Greater(t, len(chunks), 1)

	reconstructed := strings.Join(chunks, " ")
	assert.Equal(t, words(40, 9), reconstructed)
}

func TestChunk_MultiByteOverlapStaysOnRuneBoundaries(t *testing.T) {
	const size, overlap = 120, 49
	c := New(Options{ChunkSize: size, ChunkOverlap: overlap})

	// 7-rune CJK words, 3 bytes per rune: every byte offset that is not
	// a multiple of 3 sits inside a character.
	word := strings.Repeat("日", 7)
	text := strings.TrimSpace(strings.Repeat(word+" ", 140))

	chunks := c.Chunk(pagesFromText(text))
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d contains invalid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), size, "chunk %d exceeds the rune ceiling", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		require.Greater(t, len(prev), overlap)
		assert.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]),
			"chunk %d must start with the previous chunk's trailing overlap, in runes", i)
	}
}

func TestChunk_CyrillicSizeCountsRunes(t *testing.T) {
	c := New(Options{ChunkSize: 40, ChunkOverlap: 0})

	// 2-byte runes: a byte-counting chunker would emit at half the size.
	chunks := c.Chunk(pagesFromText(words(2, 5) + " " + strings.Repeat("привет ", 8)))
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 40, "chunk %d", i)
	}
	joined := strings.Join(chunks, " ")
	assert.Equal(t, 10, strings.Count(joined, "x"), "no content lost around mixed-width words")
	assert.Equal(t, 8, strings.Count(joined, "привет"))
}

func TestAttributePage(t *testing.T) {
	pages := pagesFromText(
		"alpha bravo charlie delta echo foxtrot golf hotel india juliet",
		"kilo lima mike november oscar papa quebec romeo sierra tango",
	)

	assert.Equal(t, 1, AttributePage("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo", pages))
	assert.Equal(t, 2, AttributePage("kilo lima mike november oscar papa quebec romeo sierra tango", pages))
	assert.Equal(t, 0, AttributePage("nothing from any page", pages))
}

func TestAttributePage_EmptyPage(t *testing.T) {
	pages := pagesFromText("", "kilo lima mike november oscar papa quebec romeo sierra tango")
	assert.Equal(t, 2, AttributePage("kilo lima mike november oscar papa quebec romeo sierra tango extra", pages))
}
