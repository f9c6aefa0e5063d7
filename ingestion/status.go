package ingestion

// Step names one stage of the ingestion pipeline. Transitions are
// strictly sequential; complete and error are terminal.
type Step string

const (
	StepParsing   Step = "parsing"
	StepAnalyzing Step = "analyzing"
	StepEmbedding Step = "embedding"
	StepSaving    Step = "saving"
	StepComplete  Step = "complete"
	StepError     Step = "error"
)

// ProcessingStatus is pushed to the caller's observer at every pipeline
// transition. It lives only for the duration of one ingestion; nothing is
// persisted and there is no polling endpoint.
type ProcessingStatus struct {
	Step     Step   `json:"step"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// StatusFunc observes pipeline progress. A nil StatusFunc is valid and
// disables reporting.
type StatusFunc func(status ProcessingStatus)

// Progress checkpoints per step.
const (
	progressParsing   = 10
	progressAnalyzing = 30
	progressEmbedding = 50
	progressSaving    = 80
	progressComplete  = 100
)
