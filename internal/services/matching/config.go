package matching

// Weights is the per-rule influence on aggregated confidence. Weights are
// configuration, not code, so a rule set can be tuned per entity without
// touching the engine.
type Weights struct {
	ExactAmount    float64 `yaml:"exact_amount"`
	ExactDate      float64 `yaml:"exact_date"`
	FuzzyDate      float64 `yaml:"fuzzy_date"`
	VirtualAccount float64 `yaml:"virtual_account"`
	NameSimilarity float64 `yaml:"name_similarity"`
}

// Config holds every externally tunable threshold of the matching pipeline.
type Config struct {
	Weights Weights `yaml:"weights"`

	// Confidence floors and margins.
	ValidMatchFloor   float64 `yaml:"valid_match_floor"`
	AutoConfirmFloor  float64 `yaml:"auto_confirm_floor"`
	AutoConfirmMargin float64 `yaml:"auto_confirm_margin"`
	AmbiguityGap      float64 `yaml:"ambiguity_gap"`

	// Name-similarity acceptance floor for the fuzzy name rule.
	NameSimilarityFloor float64 `yaml:"name_similarity_floor"`

	// Date windows, in calendar days.
	FuzzyDateDays       int `yaml:"fuzzy_date_days"`
	CandidateWindowDays int `yaml:"candidate_window_days"`

	// How many next-best valid candidates a suggested match retains.
	MaxAlternates int `yaml:"max_alternates"`
}

// DefaultConfig returns the baseline rule set and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			ExactAmount:    0.4,
			ExactDate:      0.3,
			FuzzyDate:      0.2,
			VirtualAccount: 0.5,
			NameSimilarity: 0.15,
		},
		ValidMatchFloor:     0.70,
		AutoConfirmFloor:    0.95,
		AutoConfirmMargin:   0.10,
		AmbiguityGap:        0.02,
		NameSimilarityFloor: 0.70,
		FuzzyDateDays:       3,
		CandidateWindowDays: 7,
		MaxAlternates:       3,
	}
}
