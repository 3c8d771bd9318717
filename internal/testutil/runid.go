package testutil

// FixedRunIDGenerator returns the same run ID every time.
//
// Batch summaries recorded with a fixed ID are byte-identical across test
// runs, which keeps golden output and database assertions stable.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator that always returns id.
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements batch.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
