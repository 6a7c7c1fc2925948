package domain

import "time"

// Distance metrics supported by the vector database.
const (
	DistanceCosine    = "Cosine"
	DistanceEuclidean = "Euclid"
	DistanceDot       = "Dot"
)

// HNSWParams configures the approximate-nearest-neighbour index.
type HNSWParams struct {
	// M is the number of bi-directional links per node.
	M int

	// EfConstruct is the construction-time beam width.
	EfConstruct int

	// FullScanThreshold is the point count below which the index is
	// bypassed in favour of exact scan.
	FullScanThreshold int
}

// DefaultHNSWParams returns the index parameters used for new collections.
func DefaultHNSWParams() HNSWParams {
	return HNSWParams{M: 16, EfConstruct: 100, FullScanThreshold: 10000}
}

// CollectionStats reports size and indexing state of a collection.
type CollectionStats struct {
	PointsCount    int64
	SizeBytes      int64
	IndexingStatus string
}

// VectorCollection is a named, dimensionally-fixed set of embedded
// points, one per conversation. VectorSize is fixed at creation and must
// equal the embedding model's output dimensionality for every point ever
// inserted.
type VectorCollection struct {
	// Name is a deterministic function of ConversationID.
	Name string

	// ConversationID is the conversation this collection belongs to.
	// Empty when the collection was listed from the store, since the
	// mapping is one-way.
	ConversationID string

	VectorSize int
	Distance   string
	Index      HNSWParams
	Stats      CollectionStats

	CreatedAt time.Time
	UpdatedAt time.Time
}
