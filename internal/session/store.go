package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/campo-8bit/internal/interfaces"
	"github.com/user/campo-8bit/internal/types"
	"go.uber.org/zap"
)

// ErrPlayerNotFound is returned for any unknown player id
var ErrPlayerNotFound = errors.New("player not found")

// PlayerSession holds all per-player state the engine does not own
type PlayerSession struct {
	Profile        *types.PlayerProfile `json:"profile"`
	ChoiceLog      []types.Choice       `json:"choice_log"`
	Timeline       []types.TimelineSlot `json:"timeline"`
	SeasonTimeline []types.TimelineSlot `json:"season_timeline"`
	CareerStats    types.CareerStats    `json:"career_stats"`
	SeasonStats    types.SeasonStats    `json:"season_stats"`
	XPPool         int                  `json:"xp_pool"`
	AttributeFocus types.AttributeKey   `json:"attribute_focus"`
	WeekCount      int                  `json:"week_count"`
}

// State is the full persisted session state
type State struct {
	Sessions map[string]*PlayerSession `json:"sessions"`
}

// Store persists player sessions to a JSON file
type Store struct {
	savePath string
	mu       sync.RWMutex
	state    *State
	logger   *zap.Logger

	startingFollowers int
}

// Ensure Store satisfies the interfaces.SessionStore interface
var _ interfaces.SessionStore = (*Store)(nil)

// NewStore creates a session store backed by the given file, loading any
// existing state
func NewStore(savePath string, startingFollowers int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		savePath:          savePath,
		logger:            logger,
		startingFollowers: startingFollowers,
	}

	state, err := s.load()
	if err != nil {
		logger.Warn("Failed to load session state, starting fresh", zap.Error(err))
		state = &State{Sessions: make(map[string]*PlayerSession)}
	}
	s.state = state

	return s
}

func (s *Store) load() (*State, error) {
	if _, err := os.Stat(s.savePath); os.IsNotExist(err) {
		return &State{Sessions: make(map[string]*PlayerSession)}, nil
	}

	data, err := os.ReadFile(s.savePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}
	if state.Sessions == nil {
		state.Sessions = make(map[string]*PlayerSession)
	}

	return &state, nil
}

// save persists the current state. Callers must hold the write lock.
func (s *Store) save() error {
	dir := filepath.Dir(s.savePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	if err := os.WriteFile(s.savePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}

	return nil
}

func (s *Store) session(playerID string) (*PlayerSession, error) {
	sess, exists := s.state.Sessions[playerID]
	if !exists {
		return nil, ErrPlayerNotFound
	}
	return sess, nil
}

// CreatePlayer registers a new player profile and returns it with its
// generated id
func (s *Store) CreatePlayer(profile types.PlayerProfile) (*types.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.ID = uuid.New().String()
	profile.CreatedAt = time.Now()

	s.state.Sessions[profile.ID] = &PlayerSession{
		Profile:   &profile,
		ChoiceLog: make([]types.Choice, 0),
		CareerStats: types.CareerStats{
			Age:       profile.Age,
			Followers: s.startingFollowers,
		},
	}

	if err := s.save(); err != nil {
		return nil, fmt.Errorf("failed to save session state: %w", err)
	}

	return &profile, nil
}

// Profile retrieves a player profile by id
func (s *Store) Profile(playerID string) (*types.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return nil, err
	}

	profile := *sess.Profile
	return &profile, nil
}

// UpdateAttribute sets one attribute of a player's profile
func (s *Store) UpdateAttribute(playerID string, attr types.AttributeKey, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.Profile.Attributes.Set(attr, value)
	return s.save()
}

// ChoiceLog returns the player's append-only choice history
func (s *Store) ChoiceLog(playerID string) ([]types.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return nil, err
	}

	log := make([]types.Choice, len(sess.ChoiceLog))
	copy(log, sess.ChoiceLog)
	return log, nil
}

// AppendChoice appends an entry to the choice log
func (s *Store) AppendChoice(playerID string, entry types.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.ChoiceLog = append(sess.ChoiceLog, entry)
	return s.save()
}

// Timeline returns the player's current day timeline
func (s *Store) Timeline(playerID string) ([]types.TimelineSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return nil, err
	}

	slots := make([]types.TimelineSlot, len(sess.Timeline))
	copy(slots, sess.Timeline)
	return slots, nil
}

// SaveTimeline replaces the player's day timeline
func (s *Store) SaveTimeline(playerID string, slots []types.TimelineSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.Timeline = slots
	return s.save()
}

// SeasonTimeline returns the player's 52-slot season timeline
func (s *Store) SeasonTimeline(playerID string) ([]types.TimelineSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return nil, err
	}

	slots := make([]types.TimelineSlot, len(sess.SeasonTimeline))
	copy(slots, sess.SeasonTimeline)
	return slots, nil
}

// SaveSeasonTimeline replaces the player's season timeline
func (s *Store) SaveSeasonTimeline(playerID string, slots []types.TimelineSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.SeasonTimeline = slots
	return s.save()
}

// CareerStats returns the player's running career aggregate
func (s *Store) CareerStats(playerID string) (types.CareerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return types.CareerStats{}, err
	}

	return sess.CareerStats, nil
}

// UpdateCareerStats applies an additive delta and returns the updated stats.
// Followers never drop below zero.
func (s *Store) UpdateCareerStats(playerID string, delta types.CareerStatsDelta) (types.CareerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return types.CareerStats{}, err
	}

	sess.CareerStats.Matches += delta.Matches
	sess.CareerStats.Goals += delta.Goals
	sess.CareerStats.Assists += delta.Assists
	sess.CareerStats.KeyDefenses += delta.KeyDefenses
	sess.CareerStats.Followers += delta.Followers
	if sess.CareerStats.Followers < 0 {
		sess.CareerStats.Followers = 0
	}

	if err := s.save(); err != nil {
		return types.CareerStats{}, err
	}
	return sess.CareerStats, nil
}

// AddSeasonStats folds one match performance into the season totals.
// Appearances only count when a rating was recorded.
func (s *Store) AddSeasonStats(playerID string, stats types.MatchStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.SeasonStats.Goals += stats.Goals
	sess.SeasonStats.Assists += stats.Assists
	if stats.Rating > 0 {
		sess.SeasonStats.Appearances++
		sess.SeasonStats.TotalRating += stats.Rating
		sess.SeasonStats.AverageRating = sess.SeasonStats.TotalRating / float64(sess.SeasonStats.Appearances)
	}

	return s.save()
}

// ResetSeasonStats clears the season totals when a new season begins
func (s *Store) ResetSeasonStats(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.SeasonStats = types.SeasonStats{}
	return s.save()
}

// SeasonStats returns the player's current season totals
func (s *Store) SeasonStats(playerID string) (types.SeasonStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return types.SeasonStats{}, err
	}
	return sess.SeasonStats, nil
}

// IncrementAge bumps the player's career age by one year
func (s *Store) IncrementAge(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.CareerStats.Age++
	sess.Profile.Age++
	return s.save()
}

// XPPool returns the player's banked XP
func (s *Store) XPPool(playerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return 0, err
	}
	return sess.XPPool, nil
}

// AddXP credits XP and returns the new pool
func (s *Store) AddXP(playerID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return 0, err
	}

	sess.XPPool += amount
	if err := s.save(); err != nil {
		return 0, err
	}
	return sess.XPPool, nil
}

// SetXPPool overwrites the pool, used after leveling spends from it
func (s *Store) SetXPPool(playerID string, pool int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.XPPool = pool
	return s.save()
}

// AttributeFocus returns the attribute currently receiving XP
func (s *Store) AttributeFocus(playerID string) (types.AttributeKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return "", err
	}
	return sess.AttributeFocus, nil
}

// SetAttributeFocus changes the focused attribute
func (s *Store) SetAttributeFocus(playerID string, attr types.AttributeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.AttributeFocus = attr
	return s.save()
}

// WeekCount returns how many weeks have been advanced
func (s *Store) WeekCount(playerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(playerID)
	if err != nil {
		return 0, err
	}
	return sess.WeekCount, nil
}

// IncrementWeek bumps the week counter and returns the new value
func (s *Store) IncrementWeek(playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return 0, err
	}

	sess.WeekCount++
	if err := s.save(); err != nil {
		return 0, err
	}
	return sess.WeekCount, nil
}

// ResetCareer wipes a player's progress while keeping the profile identity.
// Attributes are left as-is; a full reset deletes the session instead.
func (s *Store) ResetCareer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	sess.ChoiceLog = make([]types.Choice, 0)
	sess.Timeline = nil
	sess.SeasonTimeline = nil
	sess.SeasonStats = types.SeasonStats{}
	sess.CareerStats = types.CareerStats{
		Age:       sess.Profile.Age,
		Followers: s.startingFollowers,
	}
	sess.XPPool = 0
	sess.AttributeFocus = ""
	sess.WeekCount = 0

	return s.save()
}
