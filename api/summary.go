package api

// Sentinel display values substituted when no metadata source supplied a
// field. Consumers render summaries directly and never see absence.
const (
	SentinelNone        = "None"
	SentinelNotEmbedded = "Not embedded"
)

// Summary is the canonical generation-metadata record: the single surface
// exposed to display code. Every field is a fully formatted display string;
// fields with no embedded data carry a sentinel, never an empty value.
type Summary struct {
	PositivePrompt  string `json:"positive_prompt"`
	NegativePrompt  string `json:"negative_prompt"`
	Model           string `json:"model"`
	Loras           string `json:"loras"`
	CFGScale        string `json:"cfg_scale"`
	Steps           string `json:"steps"`
	Sampler         string `json:"sampler"`
	Seed            string `json:"seed"`
	ClipSkip        string `json:"clip_skip"`
	WorkflowSummary string `json:"workflow_summary"`
}
