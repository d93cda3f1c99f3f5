package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogComplete(t *testing.T) {
	keys := All()
	require.Len(t, keys, 12)
	for _, k := range keys {
		assert.True(t, Valid(k), "key %q should be valid", k)
		assert.NotEmpty(t, Prompt(k))
		assert.NotEmpty(t, VisionFallback(k))
	}
}

func TestDefaultIsSpiderman(t *testing.T) {
	assert.Equal(t, Spiderman, Default)
	assert.True(t, Valid(Default))
}

func TestUnknownKey(t *testing.T) {
	assert.False(t, Valid("wolverine"))
	assert.Equal(t, "You are wolverine. Respond in character.", Prompt("wolverine"))
	assert.Equal(t, "This model doesn't support image analysis.", VisionFallback("wolverine"))
}
