package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectParentPrefersClosestOlder(t *testing.T) {
	// Scenario B from spec §8: src has {alpha, bravo, charlie}, dst has
	// {alpha, bravo}; sending charlie should pick bravo.
	got := SelectParent("charlie", []string{"alpha", "bravo"})
	assert.Equal(t, "bravo", got)
}

func TestSelectParentFallsBackToYoungerWhenNoOlder(t *testing.T) {
	got := SelectParent("2024-01-01-00-00-00", []string{"2024-06-01-00-00-00", "2024-12-01-00-00-00"})
	assert.Equal(t, "2024-06-01-00-00-00", got)
}

func TestSelectParentNoCandidatesIsFullSend(t *testing.T) {
	got := SelectParent("2024-01-01-00-00-00", nil)
	assert.Empty(t, got)
}

func TestSelectParentIgnoresExactSelf(t *testing.T) {
	got := SelectParent("bravo", []string{"alpha", "bravo"})
	assert.Equal(t, "alpha", got)
}
