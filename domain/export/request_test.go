package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, NewRequest("Docs", "v1").Validate())
	assert.ErrorIs(t, NewRequest("", "v1").Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, NewRequest("Docs", " ").Validate(), ErrInvalidRequest)
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRendering.Terminal())
	assert.Equal(t, "fetching_toc", StateFetchingToc.String())
}
