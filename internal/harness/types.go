package harness

// OutcomeOK marks a key that was persisted.
const OutcomeOK = "ok"

// TraceEvent records one processed key.
type TraceEvent struct {
	Index   int    `json:"index"`
	Key     string `json:"key"`
	Outcome string `json:"outcome"` // OutcomeOK or an item error code
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if the expect block and all assertions match.
	Pass bool `json:"pass"`

	RunID     string `json:"run_id"`
	Aborted   bool   `json:"aborted"`
	AbortCode string `json:"abort_code,omitempty"`
	Success   int    `json:"success"`
	Errors    int    `json:"errors"`
	Filtered  int    `json:"filtered"`

	// Trace contains one event per processed key, in input order.
	Trace []TraceEvent `json:"trace"`

	// Artifacts maps access keys to persisted document content.
	Artifacts map[string]string `json:"-"`

	// Failures contains assertion messages. Empty if Pass is true.
	Failures []string `json:"failures,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Artifacts: make(map[string]string),
		Failures:  []string{},
	}
}

// AddFailure records a failed check and marks the result as failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}
