package constants

// Default Logseq HTTP API settings
const (
	DefaultAPIURL         = "http://127.0.0.1:12315"
	DefaultTimeoutSeconds = 10
)

// Display limits
const (
	DefaultQueryLimit  = 100
	DefaultSearchLimit = 20

	// Text truncation lengths
	BlockPreviewLength   = 100
	SnippetPreviewLength = 150
)

// QueryDocsURL points at the Logseq query language reference. Remote
// query failures include it because malformed DSL syntax is the most
// common real-world cause and is indistinguishable from other remote
// failures at this layer.
const QueryDocsURL = "https://docs.logseq.com/#/page/queries"

// File permissions
const (
	ConfigFileMode = 0600 // Secure file permissions for config
)

// Boolean string values accepted by config set
const (
	BoolTrue  = "true"
	BoolFalse = "false"
	BoolOne   = "1"
	BoolZero  = "0"
	BoolYes   = "yes"
	BoolNo    = "no"
)
