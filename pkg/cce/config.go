package cce

// ScoringConfig holds the deterministic sentence scorer's weights and the
// structured-output path's thresholds. DefaultScoringConfig reproduces
// spec.md's literal values; pkg/cceconfig loads overrides from YAML on top
// of these defaults.
type ScoringConfig struct {
	// Additive per-sentence scoring weights.
	CamelCaseWeight    int `yaml:"camel_case_weight"`
	PascalCaseWeight   int `yaml:"pascal_case_weight"`
	SnakeCaseWeight    int `yaml:"snake_case_weight"`
	KeywordWeight      int `yaml:"keyword_weight"`
	UnitNumberWeight   int `yaml:"unit_number_weight"`
	AbbreviationWeight int `yaml:"abbreviation_weight"`
	StatusWordWeight   int `yaml:"status_word_weight"`
	GrepRefWeight      int `yaml:"grep_ref_weight"`
	LengthBandWeight   int `yaml:"length_band_weight"`
	FillerOpenerPenalty int `yaml:"filler_opener_penalty"`

	// Sentence length band (inclusive) that earns LengthBandWeight.
	LengthBandMin int `yaml:"length_band_min"`
	LengthBandMax int `yaml:"length_band_max"`

	// Budget selection thresholds.
	ShortInputThreshold int `yaml:"short_input_threshold"` // input < this -> ShortBudget
	ShortBudget         int `yaml:"short_budget"`
	LongBudget          int `yaml:"long_budget"`

	// Entity extraction cap.
	MaxEntities int `yaml:"max_entities"`

	// Structured-output path thresholds.
	StructuredMinLines            int     `yaml:"structured_min_lines"`
	StructuredNewlineDensity      float64 `yaml:"structured_newline_density"`
	StructuredLineFraction        float64 `yaml:"structured_line_fraction"`
	StructuredMaxExtractedLines   int     `yaml:"structured_max_extracted_lines"`

	// Default fuzzy-dedup Jaccard threshold, mirrored here so a single
	// config document can travel with a CompressOptions override.
	FuzzyDedupThreshold float64 `yaml:"fuzzy_dedup_threshold"`
}

// DefaultScoringConfig returns the literal constants from spec.md §4.3/§4.2.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CamelCaseWeight:     3,
		PascalCaseWeight:    3,
		SnakeCaseWeight:     3,
		KeywordWeight:       4,
		UnitNumberWeight:    2,
		AbbreviationWeight:  2,
		StatusWordWeight:    3,
		GrepRefWeight:       2,
		LengthBandWeight:    2,
		FillerOpenerPenalty: -10,

		LengthBandMin: 40,
		LengthBandMax: 120,

		ShortInputThreshold: 600,
		ShortBudget:         200,
		LongBudget:          400,

		MaxEntities: 10,

		StructuredMinLines:          6,
		StructuredNewlineDensity:    1.0 / 80.0,
		StructuredLineFraction:      0.5,
		StructuredMaxExtractedLines: 20,

		FuzzyDedupThreshold: 0.85,
	}
}
