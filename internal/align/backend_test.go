package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/scoring"
)

func TestNewBackendSelection(t *testing.T) {
	dp, err := New(BackendDP, scoring.DefaultAffine(), 100)
	require.NoError(t, err)
	assert.IsType(t, &DPAligner{}, dp)

	wf, err := New(BackendWavefront, scoring.DefaultAffine(), 100)
	require.NoError(t, err)
	assert.IsType(t, &WavefrontAligner{}, wf)

	_, err = New("bogus", scoring.DefaultAffine(), 100)
	assert.Error(t, err)
}
