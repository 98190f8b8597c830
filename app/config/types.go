package config

// SourceConfig represents a complete news source configuration
type SourceConfig struct {
	Name     string         // Derived from filename (without .yml extension)
	Source   SourceInfo     `yaml:"source"`
	Settings SourceSettings `yaml:"settings"`
}

// SourceInfo contains basic source information
type SourceInfo struct {
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"` // "rss" or "html"
	// LinkSelector is the CSS selector for article links on "html"
	// index pages; unused for "rss" sources.
	LinkSelector string `yaml:"link_selector"`
}

// SourceSettings contains source polling settings
type SourceSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"` // seconds
}

// Thesis holds the investment criteria candidate deals are filtered
// against, plus the dedup tolerance applied by the store.
type Thesis struct {
	TargetSubsectors []string `yaml:"target_subsectors"`
	TargetStages     []string `yaml:"target_stages"`
	MinAmount        float64  `yaml:"min_amount"` // millions USD
	MaxAmount        float64  `yaml:"max_amount"` // millions USD
	MinConfidence    float64  `yaml:"min_confidence"`
	FlagConfidence   float64  `yaml:"flag_confidence"`
	// RejectUndisclosed drops deals whose amount the source did not
	// disclose; by default they pass the amount range check.
	RejectUndisclosed bool `yaml:"reject_undisclosed"`
	// DedupAmountTolerance is the maximum difference, in millions USD,
	// for two amounts to be considered the same deal.
	DedupAmountTolerance float64 `yaml:"dedup_amount_tolerance"`
}
