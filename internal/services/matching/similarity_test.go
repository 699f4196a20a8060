package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameSimilarity(t *testing.T) {
	t.Run("identical names score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, NameSimilarity("Acme Trading", "Acme Trading"))
	})

	t.Run("case and punctuation are ignored", func(t *testing.T) {
		assert.Equal(t, 1.0, NameSimilarity("acme-trading", "ACME, TRADING"))
	})

	t.Run("corporate suffixes are stripped", func(t *testing.T) {
		assert.Equal(t, 1.0, NameSimilarity("Acme Trading Ltd", "ACME TRADING"))
		assert.Equal(t, 1.0, NameSimilarity("Acme GmbH", "Acme Inc."))
	})

	t.Run("near-identical tokens score high", func(t *testing.T) {
		sim := NameSimilarity("Muller Logistics", "Mueller Logistics")
		assert.Greater(t, sim, 0.85)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		sim := NameSimilarity("Acme Trading", "Zenith Foods")
		assert.Less(t, sim, 0.5)
	})

	t.Run("empty names score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, NameSimilarity("", "Acme"))
		assert.Equal(t, 0.0, NameSimilarity("Acme", ""))
		assert.Equal(t, 0.0, NameSimilarity("Ltd", "Acme"))
	})
}

func TestTokenSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, tokenSimilarity("ACME", "ACME"))
	assert.InDelta(t, 0.75, tokenSimilarity("ACME", "ACMA"), 1e-9)
	assert.Equal(t, 0.0, tokenSimilarity("AB", "XY"))
}
