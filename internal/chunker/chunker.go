// Package chunker splits page-structured text into overlapping chunks
// sized for embedding.
package chunker

import (
	"strings"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Options configures a chunking run.
type Options struct {
	// ChunkSize is the soft ceiling on chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of trailing characters carried into
	// the next chunk.
	ChunkOverlap int
}

// Chunker splits pages into overlapping chunks. The algorithm is
// deterministic: identical pages and options produce identical chunk
// boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a chunker, applying defaults and clamping the overlap to a
// quarter of the chunk size when it would otherwise reach it.
func New(opts Options) *Chunker {
	c := &Chunker{
		chunkSize: opts.ChunkSize,
		overlap:   opts.ChunkOverlap,
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	if c.overlap < 0 {
		c.overlap = DefaultChunkOverlap
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Chunk concatenates page text word by word into a running buffer.
// Whenever adding the next word would push the buffer over the chunk
// size, the buffer is emitted and the next one is seeded with the
// trailing overlap characters plus the word that triggered the overflow.
// A single word longer than the chunk size is emitted as its own chunk;
// the ceiling is soft, words are never truncated. Empty pages contribute
// nothing. The final partial buffer is flushed if non-empty.
//
// Sizes and the overlap window are measured in runes, matching the
// readers' character counts; a window boundary never lands inside a
// multi-byte character.
//
// No page-break markers are inserted into chunk content; page
// attribution happens afterwards, see AttributePage.
func (c *Chunker) Chunk(pages []domain.Page) []string {
	var chunks []string
	var buf []rune

	for _, page := range pages {
		for _, word := range strings.Fields(page.Text) {
			w := []rune(word)
			add := len(w)
			if len(buf) > 0 {
				add++ // joining space
			}
			if len(buf)+add > c.chunkSize && len(buf) > 0 {
				chunks = append(chunks, string(buf))
				if c.overlap > 0 && len(buf) > c.overlap {
					seed := make([]rune, 0, c.chunkSize)
					seed = append(seed, buf[len(buf)-c.overlap:]...)
					buf = append(seed, ' ')
				} else {
					buf = buf[:0]
				}
			}
			if len(buf) > 0 && buf[len(buf)-1] != ' ' {
				buf = append(buf, ' ')
			}
			buf = append(buf, w...)
		}
	}

	if len(buf) > 0 {
		chunks = append(chunks, string(buf))
	}
	return chunks
}

// attributionWindow is the number of leading page characters used to
// attribute a chunk to a page.
const attributionWindow = 50

// AttributePage returns the 1-based number of the page whose leading
// text appears inside the chunk, or 0 when no page matches. A chunk that
// spans a page boundary can be attributed to either side; this
// imprecision is accepted.
func AttributePage(chunk string, pages []domain.Page) int {
	for _, page := range pages {
		lead := strings.TrimSpace(page.Text)
		if lead == "" {
			continue
		}
		if runes := []rune(lead); len(runes) > attributionWindow {
			lead = string(runes[:attributionWindow])
		}
		// Chunking collapses whitespace to single spaces.
		lead = strings.Join(strings.Fields(lead), " ")
		if lead != "" && strings.Contains(chunk, lead) {
			return page.Number
		}
	}
	return 0
}
