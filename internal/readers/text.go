package readers

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/textutil"
)

// Ensure TextReader implements the interface.
var _ driven.DocumentReader = (*TextReader)(nil)

// DefaultPageSize is the synthetic page length, in characters, for plain
// text documents. The pages exist purely so the text pipeline has the
// same shape as the PDF pipeline; they do not correspond to real page
// breaks.
const DefaultPageSize = 3000

// maxKeywords caps the keywords extracted into document metadata.
const maxKeywords = 10

// TextReader handles plain text and Markdown documents.
type TextReader struct {
	pageSize int
}

// NewTextReader creates a text reader with the default page size.
func NewTextReader() *TextReader {
	return &TextReader{pageSize: DefaultPageSize}
}

// Extensions returns the extensions this reader handles.
func (r *TextReader) Extensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// Read decodes buf using the configured encoding priority list and
// splits the text into synthetic fixed-size pages. Decoding tries each
// encoding in order and accepts the first that produces no replacement
// characters; when none does, UTF-8 is used anyway. Encoding ambiguity
// is never a hard failure.
func (r *TextReader) Read(ctx context.Context, name string, buf []byte, opts driven.ReadOptions) (*domain.ReadResult, error) {
	start := time.Now()

	if err := validateBuffer(buf, opts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, _ := textutil.DetectDecode(buf, opts.Encodings)
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyFile
	}

	pages := r.paginate(text)
	for i := range pages {
		reportProgress(opts, domain.ReadProgress{
			Stage:       domain.StageParsing,
			Percent:     float64(i+1) / float64(len(pages)) * 100,
			CurrentPage: i + 1,
			TotalPages:  len(pages),
		})
	}

	totalChars, totalWords := 0, 0
	for _, p := range pages {
		totalChars += p.CharacterCount
		totalWords += p.WordCount
	}

	result := &domain.ReadResult{
		Metadata: domain.DocumentMetadata{
			Title:      titleFromName(name),
			Keywords:   textutil.ExtractKeywords(text, maxKeywords),
			PageCount:  len(pages),
			FileSize:   int64(len(buf)),
			CreatedAt:  time.Now(),
			ModifiedAt: time.Now(),
		},
		Pages:               pages,
		TotalCharacterCount: totalChars,
		TotalWordCount:      totalWords,
		ProcessingTime:      time.Since(start),
	}
	return result, nil
}

// paginate splits text into fixed-size pages by rune count.
func (r *TextReader) paginate(text string) []domain.Page {
	runes := []rune(text)
	size := r.pageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	var pages []domain.Page
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pageText := string(runes[start:end])
		pages = append(pages, domain.Page{
			Number:         len(pages) + 1,
			Text:           pageText,
			CharacterCount: end - start,
			WordCount:      textutil.CountWords(pageText),
		})
	}
	return pages
}

// titleFromName derives a human-readable title from a file name.
func titleFromName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
