package readers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/textutil"
)

// Ensure PDFReader implements the interface.
var _ driven.DocumentReader = (*PDFReader)(nil)

// pdfMagic is the required 4-byte signature at the start of a PDF file.
var pdfMagic = []byte("%PDF")

// PDFReader parses PDF documents page by page.
type PDFReader struct{}

// NewPDFReader creates a PDF reader.
func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

// Extensions returns the extensions this reader handles.
func (r *PDFReader) Extensions() []string {
	return []string{".pdf"}
}

// Read validates and parses buf. Per-page text is used when the parser
// yields it; when page extraction fails, the whole-document text is
// split proportionally by character count across the reported page
// count. That fallback is an accepted approximation, not an error.
func (r *PDFReader) Read(ctx context.Context, name string, buf []byte, opts driven.ReadOptions) (*domain.ReadResult, error) {
	start := time.Now()

	if err := validateBuffer(buf, opts); err != nil {
		return nil, err
	}
	if len(buf) < len(pdfMagic) || !bytes.HasPrefix(buf, pdfMagic) {
		return nil, fmt.Errorf("%w: missing %%PDF signature", domain.ErrUnsupportedFormat)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reportProgress(opts, domain.ReadProgress{Stage: domain.StageValidating, Percent: 100})

	result, err := r.parse(ctx, name, buf, opts)
	if err != nil {
		return nil, err
	}
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// parse does the actual parsing. The underlying parser panics on some
// malformed inputs, so the whole walk runs under a recover that maps
// panics to ErrCorruptFile.
func (r *PDFReader) parse(ctx context.Context, name string, buf []byte, opts driven.ReadOptions) (result *domain.ReadResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("%w: %v", domain.ErrCorruptFile, rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	totalPages := doc.NumPage()
	if totalPages <= 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrCorruptFile)
	}

	pages := make([]domain.Page, 0, totalPages)
	perPageFailed := false

	for num := 1; num <= totalPages; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := doc.Page(num)
		if page.V.IsNull() {
			perPageFailed = true
			break
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			perPageFailed = true
			break
		}

		width, height := pageDimensions(page)
		pages = append(pages, domain.Page{
			Number:         num,
			Text:           text,
			Width:          width,
			Height:         height,
			Blocks:         pageBlocks(page),
			CharacterCount: len([]rune(text)),
			WordCount:      textutil.CountWords(text),
		})

		reportProgress(opts, domain.ReadProgress{
			Stage:       domain.StageParsing,
			Percent:     float64(num) / float64(totalPages) * 100,
			CurrentPage: num,
			TotalPages:  totalPages,
		})
	}

	if perPageFailed {
		pages, err = r.fallbackPages(doc, totalPages)
		if err != nil {
			return nil, err
		}
	}

	totalChars, totalWords := 0, 0
	hasText := false
	for _, p := range pages {
		totalChars += p.CharacterCount
		totalWords += p.WordCount
		if strings.TrimSpace(p.Text) != "" {
			hasText = true
		}
	}
	if !hasText {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrCorruptFile)
	}

	meta := extractMetadata(doc, name, buf)
	meta.PageCount = totalPages
	meta.FileSize = int64(len(buf))

	return &domain.ReadResult{
		Metadata:            meta,
		Pages:               pages,
		TotalCharacterCount: totalChars,
		TotalWordCount:      totalWords,
	}, nil
}

// fallbackPages splits the whole-document text evenly by character count
// across the reported page count.
func (r *PDFReader) fallbackPages(doc *pdf.Reader, totalPages int) ([]domain.Page, error) {
	reader, err := doc.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	runes := []rune(string(raw))
	perPage := len(runes) / totalPages
	if perPage == 0 {
		perPage = len(runes)
	}

	pages := make([]domain.Page, 0, totalPages)
	for num := 1; num <= totalPages; num++ {
		start := (num - 1) * perPage
		if start >= len(runes) {
			pages = append(pages, domain.Page{Number: num})
			continue
		}
		end := start + perPage
		if num == totalPages || end > len(runes) {
			end = len(runes)
		}
		text := string(runes[start:end])
		pages = append(pages, domain.Page{
			Number:         num,
			Text:           text,
			CharacterCount: end - start,
			WordCount:      textutil.CountWords(text),
		})
	}
	return pages, nil
}

// pageDimensions reads the MediaBox, returning zeros when absent.
func pageDimensions(page pdf.Page) (width, height float64) {
	box := page.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() < 4 {
		return 0, 0
	}
	x0 := box.Index(0).Float64()
	y0 := box.Index(1).Float64()
	x1 := box.Index(2).Float64()
	y1 := box.Index(3).Float64()
	return x1 - x0, y1 - y0
}

// pageBlocks merges the page's text runs into per-line blocks keyed by
// vertical position. Layout information is advisory; failure to build it
// leaves Blocks empty.
func pageBlocks(page pdf.Page) []domain.TextBlock {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil
	}

	var blocks []domain.TextBlock
	var cur *domain.TextBlock
	var curY float64

	for _, t := range content.Text {
		if cur != nil && t.Y == curY {
			cur.Content += t.S
			cur.Width = t.X + t.W - cur.X
			continue
		}
		blocks = append(blocks, domain.TextBlock{
			Content:  t.S,
			X:        t.X,
			Y:        t.Y,
			Width:    t.W,
			Height:   t.FontSize,
			FontSize: t.FontSize,
		})
		cur = &blocks[len(blocks)-1]
		curY = t.Y
	}
	return blocks
}

// extractMetadata reads the PDF info dictionary. Missing entries are
// left zero; metadata extraction never fails the read.
func extractMetadata(doc *pdf.Reader, name string, buf []byte) domain.DocumentMetadata {
	meta := domain.DocumentMetadata{
		Title:         titleFromName(name),
		FormatVersion: versionFromHeader(buf),
	}

	info := doc.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}

	if v := infoString(info, "Title"); v != "" {
		meta.Title = v
	}
	meta.Author = infoString(info, "Author")
	meta.Subject = infoString(info, "Subject")
	meta.Creator = infoString(info, "Creator")
	meta.Producer = infoString(info, "Producer")
	if v := infoString(info, "Keywords"); v != "" {
		meta.Keywords = splitKeywords(v)
	}
	if t, ok := parsePDFDate(infoString(info, "CreationDate")); ok {
		meta.CreatedAt = t
	}
	if t, ok := parsePDFDate(infoString(info, "ModDate")); ok {
		meta.ModifiedAt = t
	}
	return meta
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}

// versionFromHeader extracts "1.7" from a "%PDF-1.7" header line.
func versionFromHeader(buf []byte) string {
	line := buf
	if len(line) > 16 {
		line = line[:16]
	}
	s := string(line)
	if !strings.HasPrefix(s, "%PDF-") {
		return ""
	}
	s = s[len("%PDF-"):]
	if i := strings.IndexAny(s, "\r\n "); i >= 0 {
		s = s[:i]
	}
	return s
}

// splitKeywords splits a declared keyword string on commas or semicolons.
func splitKeywords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parsePDFDate parses PDF date strings of the form D:YYYYMMDDHHmmSS.
// Timezone suffixes are ignored; only the local components are kept.
func parsePDFDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 4 {
		return time.Time{}, false
	}
	// Pad missing components down to seconds.
	const full = "20060102150405"
	digits := s
	for i, r := range digits {
		if r < '0' || r > '9' {
			digits = digits[:i]
			break
		}
	}
	if len(digits) < 4 {
		return time.Time{}, false
	}
	if len(digits) > len(full) {
		digits = digits[:len(full)]
	}
	t, err := time.Parse(full[:len(digits)], digits)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
