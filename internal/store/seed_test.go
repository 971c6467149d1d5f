package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
)

func loadFixture(t *testing.T) *SeedFile {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "knowledgebase.yaml"))
	require.NoError(t, err)
	defer f.Close()

	seed, err := ParseSeed(f)
	require.NoError(t, err)
	return seed
}

func TestSeed_Stats(t *testing.T) {
	s := createTestStore(t)

	stats, err := s.Seed(context.Background(), loadFixture(t))
	require.NoError(t, err)
	assert.Equal(t, SeedStats{
		FeatureDefinitions:   3,
		AttributeDefinitions: 10,
		Sources:              2,
		Assertions:           4,
		Features:             5,
		Attributes:           13,
	}, stats)
}

func TestSeed_ReusesDefinitionsAndSources(t *testing.T) {
	s := seededStore(t)

	stats, err := s.Seed(context.Background(), loadFixture(t))
	require.NoError(t, err)
	assert.Zero(t, stats.FeatureDefinitions)
	assert.Zero(t, stats.AttributeDefinitions)
	assert.Zero(t, stats.Sources)
	assert.Equal(t, 4, stats.Assertions)

	var defs int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM feature_definitions`).Scan(&defs))
	assert.Equal(t, 3, defs)
}

func TestSeed_UnknownFeatureRollsBack(t *testing.T) {
	s := createTestStore(t)

	seed, err := ParseSeed(strings.NewReader(`
assertions:
  - disease: Melanoma
    validated: true
    features:
      - feature: fusion
`))
	require.NoError(t, err)

	_, err = s.Seed(context.Background(), seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown feature "fusion"`)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM assertions`).Scan(&count))
	assert.Zero(t, count, "failed seed must not leave rows behind")
}

func TestSeed_UnknownAttributes(t *testing.T) {
	s := createTestStore(t)

	seed, err := ParseSeed(strings.NewReader(`
features:
  - name: copy_number
    attributes:
      - {name: gene, type: gene}
assertions:
  - disease: Glioma
    features:
      - feature: copy_number
        attributes: {gene: EGFR, zygosity: het, arm: 7p}
`))
	require.NoError(t, err)

	_, err = s.Seed(context.Background(), seed)
	assert.ErrorContains(t, err, "unknown attributes arm, zygosity")
}

func TestParseSeed(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		seed, err := ParseSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, seed.Assertions)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("assertions:\n  - disease: Melanoma\n    gene: BRAF\n"))
		assert.ErrorContains(t, err, "parse seed")
	})

	t.Run("readable names default to names", func(t *testing.T) {
		s := createTestStore(t)
		seed, err := ParseSeed(strings.NewReader("features:\n  - name: aneuploidy\n    attributes:\n      - {name: effect}\n"))
		require.NoError(t, err)
		_, err = s.Seed(context.Background(), seed)
		require.NoError(t, err)

		ok, err := s.Exists(context.Background(), category.Feature, "aneuploidy")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
