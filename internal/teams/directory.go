package teams

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/user/campo-8bit/internal/interfaces"
	"github.com/user/campo-8bit/internal/types"
	"go.uber.org/zap"
)

// Tier labels in the directory, from strongest to weakest
const (
	TierElite = "elite"
	TierGood  = "good"
	TierMid   = "mid"
	TierSmall = "small"
)

// tierWeight is one band of the cumulative-probability draw
type tierWeight struct {
	tier   string
	weight float64
}

// tierWeights: 5% elite, 10% good, 60% mid, 25% small
var tierWeights = []tierWeight{
	{TierElite, 0.05},
	{TierGood, 0.10},
	{TierMid, 0.60},
	{TierSmall, 0.25},
}

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	name     TEXT NOT NULL,
	division TEXT NOT NULL DEFAULT '',
	country  TEXT NOT NULL,
	tier     TEXT NOT NULL,
	UNIQUE(name, country)
);
CREATE INDEX IF NOT EXISTS idx_teams_country ON teams(country);
`

// Directory is the club lookup used during player creation
type Directory struct {
	db     *sqlx.DB
	rng    *rand.Rand
	logger *zap.Logger
}

// Ensure Directory satisfies the interfaces.TeamDirectory interface
var _ interfaces.TeamDirectory = (*Directory)(nil)

// Open connects to the sqlite team database and ensures the schema exists
func Open(dsn string, logger *zap.Logger) (*Directory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open team database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create team schema: %w", err)
	}

	return &Directory{
		db:     db,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}, nil
}

// Close releases the database handle
func (d *Directory) Close() error {
	return d.db.Close()
}

// Seed inserts teams, ignoring duplicates
func (d *Directory) Seed(teams []types.Team) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}

	for _, team := range teams {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO teams (name, division, country, tier) VALUES (?, ?, ?, ?)`,
			team.Name, team.Division, team.Country, team.Tier,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to seed team %q: %w", team.Name, err)
		}
	}

	return tx.Commit()
}

// SeedFromFile loads team definitions from a JSON file and seeds the
// directory. A missing file is not an error; the synthetic fallback still
// guarantees a club.
func (d *Directory) SeedFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Warn("Team seed file not found, relying on fallback clubs", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to read teams file: %w", err)
	}

	var teams []types.Team
	if err := json.Unmarshal(data, &teams); err != nil {
		return fmt.Errorf("failed to parse teams data: %w", err)
	}

	if err := d.Seed(teams); err != nil {
		return err
	}

	d.logger.Info("Seeded team directory", zap.Int("count", len(teams)))
	return nil
}

// drawTier picks a tier via a cumulative-probability draw
func (d *Directory) drawTier() string {
	draw := d.rng.Float64()
	cumulative := 0.0
	for _, tw := range tierWeights {
		cumulative += tw.weight
		if draw < cumulative {
			return tw.tier
		}
	}
	return TierSmall
}

// RandomTeam assigns a starting club for a country with a weighted tier draw.
// Fallback chain: tier match in country, then any team in country, then a
// synthetic "FC <country>" club. The final fallback never fails.
func (d *Directory) RandomTeam(countryCode string) (*types.Team, error) {
	tier := d.drawTier()

	var team types.Team
	err := d.db.Get(&team,
		`SELECT name, division, country, tier FROM teams WHERE country = ? AND tier = ? ORDER BY RANDOM() LIMIT 1`,
		countryCode, tier)
	if err == nil {
		return &team, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}

	err = d.db.Get(&team,
		`SELECT name, division, country, tier FROM teams WHERE country = ? ORDER BY RANDOM() LIMIT 1`,
		countryCode)
	if err == nil {
		return &team, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}

	d.logger.Info("No teams for country, using synthetic club", zap.String("country", countryCode))
	return &types.Team{
		Name:     "FC " + countryCode,
		Division: "2ª divisão",
		Country:  countryCode,
		Tier:     TierSmall,
	}, nil
}
