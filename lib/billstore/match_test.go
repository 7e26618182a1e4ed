package billstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchOperationsExact(t *testing.T) {
	matches := MatchOperations(
		[]string{"dauchez"},
		[]string{"PRLV SEPA DAUCHEZ SA", "EDF ENERGIE"},
	)

	require.Len(t, matches, 1)
	require.Equal(t, "PRLV SEPA DAUCHEZ SA", matches[0].Label)
	require.Equal(t, "dauchez", matches[0].Identifier)
	require.Equal(t, float64(1), matches[0].Correlation)
}

func TestMatchOperationsFuzzy(t *testing.T) {
	// bank labels regularly mangle the vendor name
	matches := MatchOperations(
		[]string{"dauchez"},
		[]string{"PRLV DAUCHZ 03/2021"},
	)

	require.Len(t, matches, 1)
	require.Equal(t, "dauchez", matches[0].Identifier)
	require.Greater(t, matches[0].Correlation, 0.85)
	require.Less(t, matches[0].Correlation, float64(1))
}

func TestMatchOperationsNoMatch(t *testing.T) {
	matches := MatchOperations(
		[]string{"dauchez"},
		[]string{"CARTE 12/03 SUPERMARCHE"},
	)
	require.Empty(t, matches)
}
