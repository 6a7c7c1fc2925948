// Package domain contains the core data model for document ingestion
// and retrieval. It has no dependencies on adapters or services.
package domain

import "time"

// DocumentMetadata describes a source document.
// It is populated once by a reader and immutable after extraction.
type DocumentMetadata struct {
	// Title is the document title, or the file name when absent.
	Title string

	// Author is the document author, if the format records one.
	Author string

	// Subject is the document subject line (PDF info dictionary).
	Subject string

	// Keywords are extracted or declared keywords.
	Keywords []string

	// Creator is the application that created the original document.
	Creator string

	// Producer is the application that produced the file (PDF).
	Producer string

	// FormatVersion is the file format version (e.g. "1.7" for PDF).
	FormatVersion string

	// PageCount is the number of pages in the document.
	PageCount int

	// FileSize is the size of the source file in bytes.
	FileSize int64

	// CreatedAt is the document creation timestamp, if recorded.
	CreatedAt time.Time

	// ModifiedAt is the document modification timestamp, if recorded.
	ModifiedAt time.Time
}

// TextBlock is a positioned run of text within a page.
// Readers that have no layout information leave Blocks empty.
type TextBlock struct {
	Content string

	// Bounding box in page coordinates.
	X, Y, Width, Height float64

	// FontSize is a hint only; zero when unknown.
	FontSize float64
}

// Page is one physical or logical page of a source document.
// Plain text readers produce synthetic fixed-size pages purely so the
// chunking pipeline sees a uniform shape.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw page text.
	Text string

	// Width and Height are the page dimensions, zero when unknown.
	Width  float64
	Height float64

	// Blocks are optional positioned text runs.
	Blocks []TextBlock

	// CharacterCount is len(Text) in runes.
	CharacterCount int

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int
}

// ReadResult is the output of a document reader.
type ReadResult struct {
	Metadata            DocumentMetadata
	Pages               []Page
	TotalCharacterCount int
	TotalWordCount      int
	ProcessingTime      time.Duration
}

// ReadStage identifies a phase of document reading for progress events.
type ReadStage string

const (
	StageValidating ReadStage = "validating"
	StageParsing    ReadStage = "parsing"
)

// ReadProgress is an advisory progress event emitted while reading.
// Consumers may ignore it; it has no effect on correctness.
type ReadProgress struct {
	Stage       ReadStage
	Percent     float64
	CurrentPage int
	TotalPages  int
}
