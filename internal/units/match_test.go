package units

import (
	"testing"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitList(names ...string) []domain.Unit {
	list := make([]domain.Unit, len(names))
	for i, name := range names {
		list[i] = domain.Unit{ID: int64(i + 1), Name: name}
	}
	return list
}

// =============================================================================
// Normalize Tests
// =============================================================================

func TestNormalize(t *testing.T) {
	assert.Equal(t, "m2", Normalize("M²"))
	assert.Equal(t, "m3", Normalize(" m³ "))
	assert.Equal(t, "co2", Normalize("CO₂"))
	assert.Equal(t, "square meter", Normalize("  Square\t Meter "))
	assert.Equal(t, "", Normalize("   "))
}

// =============================================================================
// FindBestMatch Tests
// =============================================================================

func TestFindBestMatch_ExactCaseAndUnicodeInsensitive(t *testing.T) {
	candidates := unitList("m²", "kg", "pcs")

	match := FindBestMatch("M²", candidates)

	require.NotNil(t, match)
	assert.Equal(t, "m²", match.Name)
}

func TestFindBestMatch_ExactBeatsSynonym(t *testing.T) {
	// "m2" is an exact hit on the second candidate even though the first
	// candidate is also an m2 synonym.
	candidates := unitList("square meter", "m2")

	match := FindBestMatch("M2", candidates)

	require.NotNil(t, match)
	assert.Equal(t, "m2", match.Name)
}

func TestFindBestMatch_SynonymTableEnglish(t *testing.T) {
	candidates := unitList("m²", "kg")

	match := FindBestMatch("square meter", candidates)

	require.NotNil(t, match)
	assert.Equal(t, "m²", match.Name)
}

func TestFindBestMatch_SynonymTableFrench(t *testing.T) {
	candidates := unitList("m³", "m²")

	match := FindBestMatch("mètres cubes", candidates)

	require.NotNil(t, match)
	assert.Equal(t, "m³", match.Name)
}

func TestFindBestMatch_SynonymKilo(t *testing.T) {
	candidates := unitList("kg")

	match := FindBestMatch("kilo", candidates)

	require.NotNil(t, match)
	assert.Equal(t, "kg", match.Name)
}

func TestFindBestMatch_SubstringFallback(t *testing.T) {
	candidates := unitList("sack 25kg")

	match := FindBestMatch("sack", candidates)

	require.NotNil(t, match)
	assert.Equal(t, "sack 25kg", match.Name)

	// Reverse direction: candidate name contained in the input.
	match = FindBestMatch("sack 25kg approx", candidates)
	require.NotNil(t, match)
}

func TestFindBestMatch_SynonymHitWithoutCanonicalCandidateIsMiss(t *testing.T) {
	// "kilo" resolves to kg in the synonym table; with no kg candidate
	// the lookup misses outright instead of falling back to substrings,
	// which would otherwise pick up "kilowatt".
	candidates := unitList("kilowatt")

	assert.Nil(t, FindBestMatch("kilo", candidates))
}

func TestFindBestMatch_CandidateOrderBreaksTies(t *testing.T) {
	candidates := unitList("pièces", "pcs")

	match := FindBestMatch("piece", candidates)

	require.NotNil(t, match)
	assert.Equal(t, int64(1), match.ID)
}

func TestFindBestMatch_NoMatchReturnsNil(t *testing.T) {
	candidates := unitList("kg", "m³")

	assert.Nil(t, FindBestMatch("xyz-unknown-unit", candidates))
	assert.Nil(t, FindBestMatch("", candidates))
	assert.Nil(t, FindBestMatch("kg", nil))
}

// =============================================================================
// IsLikelyUnit Tests
// =============================================================================

func TestIsLikelyUnit(t *testing.T) {
	likely := []string{"m", "M²", "kg", "pcs", "heures", "kg/m³", "ens", "lump sum"}
	for _, s := range likely {
		assert.True(t, IsLikelyUnit(s), s)
	}

	unlikely := []string{"", "   ", "a very long description of work", "12345", "kg/m³/h"}
	for _, s := range unlikely {
		assert.False(t, IsLikelyUnit(s), s)
	}
}
