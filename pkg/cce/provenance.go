package cce

// MetadataOriginalKey is the reserved Metadata key under which provenance is
// attached to any message this package rewrites.
const MetadataOriginalKey = "_cce_original"

// CCEOriginal is the provenance record attached to a rewritten message's
// Metadata under MetadataOriginalKey.
type CCEOriginal struct {
	// IDs is the ordered, non-empty list of original message IDs covered by
	// this rewrite. Length > 1 only for merged same-role groups; dedup
	// references always have length 1.
	IDs []string `yaml:"ids" json:"ids"`

	// SummaryID is "cce_sum_<base36 digest>", a deterministic pure function
	// of the sorted IDs.
	SummaryID string `yaml:"summary_id" json:"summary_id"`

	// ParentIDs lists the summary_ids of rewrites that were already present
	// in the input to this compression round, found within IDs' messages.
	ParentIDs []string `yaml:"parent_ids,omitempty" json:"parent_ids,omitempty"`

	// Version mirrors the caller-supplied sourceVersion (default 0).
	Version int `yaml:"version" json:"version"`
}

// CompressionStats summarizes one Compress call.
type CompressionStats struct {
	Ratio              float64
	TokenRatio         float64
	MessagesCompressed int
	MessagesPreserved  int
	MessagesDeduped    int
	MessagesFuzzyDeduped int
	OriginalVersion    int
}

// CompressResult is the full output of Compress.
type CompressResult struct {
	Messages    []Message
	Verbatim    VerbatimMap
	Compression CompressionStats

	// Populated only when options.TokenBudget > 0 (budget search ran).
	BudgetSearched bool
	Fits           bool
	TokenCount     int
	RecencyWindow  int
}

// UncompressResult is the full output of Uncompress.
type UncompressResult struct {
	Messages            []Message
	MessagesExpanded     int
	MessagesPassthrough int
	MissingIDs          []string
}
