package interfaces

import (
	"context"

	"github.com/user/campo-8bit/internal/types"
)

// CompletionService defines the interface for the text completion backend
type CompletionService interface {
	Complete(ctx context.Context, messages []types.ChatMessage, opts types.CompletionOptions) (*types.Completion, error)
}

// SessionStore defines the interface for the state the engine does not own.
// The engine reads and writes through it but never holds persistence itself.
type SessionStore interface {
	Profile(playerID string) (*types.PlayerProfile, error)
	UpdateAttribute(playerID string, attr types.AttributeKey, value int) error

	ChoiceLog(playerID string) ([]types.Choice, error)
	AppendChoice(playerID string, entry types.Choice) error

	Timeline(playerID string) ([]types.TimelineSlot, error)
	SaveTimeline(playerID string, slots []types.TimelineSlot) error
	SeasonTimeline(playerID string) ([]types.TimelineSlot, error)
	SaveSeasonTimeline(playerID string, slots []types.TimelineSlot) error

	CareerStats(playerID string) (types.CareerStats, error)
	UpdateCareerStats(playerID string, delta types.CareerStatsDelta) (types.CareerStats, error)
	AddSeasonStats(playerID string, stats types.MatchStats) error
	ResetSeasonStats(playerID string) error
	IncrementAge(playerID string) error

	XPPool(playerID string) (int, error)
	AddXP(playerID string, amount int) (int, error)
	SetXPPool(playerID string, pool int) error

	AttributeFocus(playerID string) (types.AttributeKey, error)
	SetAttributeFocus(playerID string, attr types.AttributeKey) error

	WeekCount(playerID string) (int, error)
	IncrementWeek(playerID string) (int, error)
}

// TeamDirectory defines the interface for club lookup during player creation
type TeamDirectory interface {
	RandomTeam(countryCode string) (*types.Team, error)
}

// Engine defines the interface for career progression operations
type Engine interface {
	StartCareer(ctx context.Context, playerID string) (*types.GameResponse, error)
	ResolveChoice(ctx context.Context, playerID, picked, optionLabel string) (*types.GameResponse, error)
	AdvanceWeek(ctx context.Context, playerID string) ([]*types.GameResponse, error)
}
