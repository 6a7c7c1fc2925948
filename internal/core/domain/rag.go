package domain

// RAGQuery is a retrieval request scoped to one conversation.
type RAGQuery struct {
	// Query is the natural-language question.
	Query string

	// ConversationID scopes retrieval to one conversation's collection.
	ConversationID string

	// TopK is the maximum number of sources to return.
	TopK int

	// SimilarityThreshold filters out sources scoring below it.
	SimilarityThreshold float64

	// Source optionally restricts results to one source document.
	Source string

	// PageNumber optionally restricts results to one page. Zero means
	// no page filter.
	PageNumber int
}

// RAGSource is one retrieved chunk with its similarity score.
type RAGSource struct {
	Content    string
	Score      float64
	Source     string
	PageNumber int
	ChunkIndex int
}

// RAGResponse is the result of a retrieval query.
type RAGResponse struct {
	Sources      []RAGSource
	Count        int
	AverageScore float64
}

// IngestStage identifies a phase of the ingestion state machine.
type IngestStage string

const (
	IngestValidating IngestStage = "validating"
	IngestReading    IngestStage = "reading"
	IngestParsing    IngestStage = "parsing"
	IngestChunking   IngestStage = "chunking"
	IngestEmbedding  IngestStage = "embedding"
	IngestUpserting  IngestStage = "upserting"
	IngestCompleted  IngestStage = "completed"
)

// IngestProgress is an advisory event emitted as ingestion advances.
type IngestProgress struct {
	Stage   IngestStage
	Percent float64
	Detail  string
}

// IngestResult is the structured outcome of one ingestion call.
// Err is set only when Success is false.
type IngestResult struct {
	Success bool

	// Chunks are the ingested chunks, including any that lack an
	// embedding (partial failure).
	Chunks []Chunk

	TotalChunks int

	// FailedEmbeddings counts chunks stored without a vector.
	FailedEmbeddings int

	// Stage is the stage the run finished in: IngestCompleted, or the
	// stage that failed.
	Stage IngestStage

	Err error
}

// DeleteResult is the structured outcome of a collection deletion.
type DeleteResult struct {
	Success   bool
	DeletedID string
	Err       error
}
