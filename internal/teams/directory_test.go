package teams

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/campo-8bit/internal/types"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()

	dir, err := Open(filepath.Join(t.TempDir(), "teams.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { dir.Close() })
	return dir
}

func TestSeed(t *testing.T) {
	dir := newTestDirectory(t)

	teams := []types.Team{
		{Name: "Flamengo", Division: "Série A", Country: "BR", Tier: TierElite},
		{Name: "Fortaleza", Division: "Série A", Country: "BR", Tier: TierMid},
	}
	require.NoError(t, dir.Seed(teams))

	// Seeding twice is harmless
	require.NoError(t, dir.Seed(teams))

	var count int
	require.NoError(t, dir.db.Get(&count, `SELECT COUNT(*) FROM teams`))
	assert.Equal(t, 2, count)
}

func TestSeedFromFileMissing(t *testing.T) {
	dir := newTestDirectory(t)

	// A missing seed file is tolerated; the synthetic fallback covers it
	assert.NoError(t, dir.SeedFromFile(filepath.Join(t.TempDir(), "nao-existe.json")))
}

func TestRandomTeam(t *testing.T) {
	// Setup: BR has clubs on every tier, AR has a single mid club
	dir := newTestDirectory(t)
	require.NoError(t, dir.Seed([]types.Team{
		{Name: "Flamengo", Country: "BR", Tier: TierElite},
		{Name: "Athletico-PR", Country: "BR", Tier: TierGood},
		{Name: "Fortaleza", Country: "BR", Tier: TierMid},
		{Name: "CRB", Country: "BR", Tier: TierSmall},
		{Name: "Lanús", Country: "AR", Tier: TierMid},
	}))

	// Test case 1: a seeded country always yields a seeded club
	for i := 0; i < 50; i++ {
		team, err := dir.RandomTeam("BR")
		require.NoError(t, err)
		assert.Equal(t, "BR", team.Country)
		assert.NotEmpty(t, team.Name)
	}

	// Test case 2: a country without the drawn tier falls back to any of its
	// clubs rather than leaving it
	for i := 0; i < 50; i++ {
		team, err := dir.RandomTeam("AR")
		require.NoError(t, err)
		assert.Equal(t, "Lanús", team.Name)
	}
}

func TestRandomTeamSyntheticFallback(t *testing.T) {
	dir := newTestDirectory(t)

	// An empty directory still assigns a club
	team, err := dir.RandomTeam("UY")
	require.NoError(t, err)
	assert.Equal(t, "FC UY", team.Name)
	assert.Equal(t, "UY", team.Country)
	assert.Equal(t, TierSmall, team.Tier)
	assert.Equal(t, "2ª divisão", team.Division)
}

func TestDrawTierCoversAllTiers(t *testing.T) {
	dir := newTestDirectory(t)

	seen := make(map[string]int)
	for i := 0; i < 5000; i++ {
		seen[dir.drawTier()]++
	}

	// All four tiers show up, with mid clearly the most common
	for _, tier := range []string{TierElite, TierGood, TierMid, TierSmall} {
		assert.Greater(t, seen[tier], 0, tier)
	}
	assert.Greater(t, seen[TierMid], seen[TierElite])
	assert.Greater(t, seen[TierMid], seen[TierSmall])
}
