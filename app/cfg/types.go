package cfg

type Cfg struct {
	// Data storage configuration
	DataDir string

	// Source and thesis configuration
	SourcesDir string
	ThesisFile string

	// Extraction service configuration
	GeminiAPIKey string
	GeminiModel  string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	ArticleDelay      int
	RequestTimeout    int
	RetryAttempts     int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
