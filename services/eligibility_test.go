package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiesForTIP(t *testing.T) {
	assert.True(t, QualifiesForTIP(true, "MD-TNVR"))
	assert.False(t, QualifiesForTIP(false, "MD-TNVR"))
	assert.False(t, QualifiesForTIP(true, "Private"))
	assert.False(t, QualifiesForTIP(true, "md-tnvr")) // service match is exact
	assert.False(t, QualifiesForTIP(false, ""))
}

func TestEvaluateTIP(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	t.Run("No Override", func(t *testing.T) {
		eval := EvaluateTIP(true, TIPQualifyingService, nil)
		assert.True(t, eval.Computed)
		assert.True(t, eval.Effective)
		assert.False(t, eval.Overridden)
	})

	t.Run("Override Flips Computed", func(t *testing.T) {
		eval := EvaluateTIP(true, TIPQualifyingService, boolPtr(false))
		assert.True(t, eval.Computed)
		assert.False(t, eval.Effective)
		assert.True(t, eval.Overridden)

		eval = EvaluateTIP(false, "Private", boolPtr(true))
		assert.False(t, eval.Computed)
		assert.True(t, eval.Effective)
		assert.True(t, eval.Overridden)
	})

	t.Run("Override Matching Computed Is Not An Override", func(t *testing.T) {
		eval := EvaluateTIP(true, TIPQualifyingService, boolPtr(true))
		assert.True(t, eval.Effective)
		assert.False(t, eval.Overridden)
	})
}
