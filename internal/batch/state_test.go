package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "NotStarted", StateNotStarted.String())
	assert.Equal(t, "CredentialPending", StateCredentialPending.String())
	assert.Equal(t, "Aborted", StateAborted.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Finished", StateFinished.String())
	assert.Equal(t, "Unknown", State(99).String())
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateNotStarted, StateCredentialPending, StateRunning} {
		assert.False(t, s.Terminal(), s.String())
	}
	for _, s := range []State{StateAborted, StateFinished} {
		assert.True(t, s.Terminal(), s.String())
	}
}
