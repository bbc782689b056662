package career

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/campo-8bit/internal/interfaces"
	"github.com/user/campo-8bit/internal/types"
	"go.uber.org/zap"
)

// ErrCareerNotStarted is returned when a choice arrives before StartCareer
var ErrCareerNotStarted = errors.New("career not started")

// weekSubtypes is the fixed sub-event sequence produced by AdvanceWeek:
// two off-field, two match, one post-match
var weekSubtypes = []string{"SEMANA_TREINO", "SEMANA_IMPRENSA", "PARTIDA", "PARTIDA", "POS_PARTIDA"}

// Engine orchestrates the narrative career progression: it owns timeline and
// outcome construction, delegates persistence to the session store, and
// always produces a playable next step regardless of completion failures.
type Engine struct {
	completion  interfaces.CompletionService
	store       interfaces.SessionStore
	composer    *PromptComposer
	interpreter *Interpreter
	resolver    *OutcomeResolver
	timeline    *TimelineTracker
	logger      *zap.Logger

	baseXP     int
	seasonMode bool
	timeout    time.Duration
}

// EngineOptions tune the engine's economy and mode
type EngineOptions struct {
	BaseXPReward int
	SeasonMode   bool
	Timeout      time.Duration
	MaxTokens    int
}

// Ensure Engine satisfies the interfaces.Engine interface
var _ interfaces.Engine = (*Engine)(nil)

// NewEngine creates a career progression engine
func NewEngine(completion interfaces.CompletionService, store interfaces.SessionStore, logger *zap.Logger, opts EngineOptions) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BaseXPReward <= 0 {
		opts.BaseXPReward = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}

	return &Engine{
		completion:  completion,
		store:       store,
		composer:    NewPromptComposer(opts.MaxTokens),
		interpreter: NewInterpreter(logger),
		resolver:    NewOutcomeResolver(),
		timeline:    NewTimelineTracker(),
		logger:      logger,
		baseXP:      opts.BaseXPReward,
		seasonMode:  opts.SeasonMode,
		timeout:     opts.Timeout,
	}
}

// StartCareer generates the opening timeline and the intro narrative. The
// returned response carries no outcome; the first real choice produces one.
func (e *Engine) StartCareer(ctx context.Context, playerID string) (*types.GameResponse, error) {
	profile, err := e.store.Profile(playerID)
	if err != nil {
		return nil, err
	}

	log, err := e.store.ChoiceLog(playerID)
	if err != nil {
		return nil, err
	}

	timeline := e.timeline.GenerateDay()
	if err := e.store.SaveTimeline(playerID, timeline); err != nil {
		return nil, err
	}

	// The response shows the schedule the configured variant plays on
	shown := timeline
	if e.seasonMode {
		season := e.timeline.GenerateWeek()
		if err := e.store.SaveSeasonTimeline(playerID, season); err != nil {
			return nil, err
		}
		shown = season
	}

	introSlot := types.TimelineSlot{Type: types.SlotIntro}
	req := e.composer.ComposeIntro(profile)
	interpreted := e.generate(ctx, req, introSlot, profile, nil)

	narrative := Colorize(interpreted.Narrative, types.OutcomeNeutro)

	// The intro is logged so later prompts can see its offered options
	entry := types.Choice{
		ID:        uuid.New().String(),
		Sequence:  len(log) + 1,
		Timestamp: time.Now(),
		Narrative: narrative,
		Options:   interpreted.Options,
		Timeline:  snapshotTimeline(timeline),
	}
	if err := e.store.AppendChoice(playerID, entry); err != nil {
		return nil, err
	}

	e.logger.Info("career started",
		zap.String("player_id", playerID),
		zap.String("club", profile.StartClub),
		zap.Bool("fallback", interpreted.Fallback))

	return &types.GameResponse{
		Narrative:      narrative,
		NextOptions:    interpreted.Options,
		Outcome:        nil,
		Timeline:       shown,
		AttributeFocus: "",
	}, nil
}

// ResolveChoice resolves one decision: the mechanical outcome is computed
// before the prompt so the narrative opens by showing that result, then the
// timeline, XP pool, attributes, career stats and followers are updated.
func (e *Engine) ResolveChoice(ctx context.Context, playerID, picked, optionLabel string) (*types.GameResponse, error) {
	profile, err := e.store.Profile(playerID)
	if err != nil {
		return nil, err
	}

	log, err := e.store.ChoiceLog(playerID)
	if err != nil {
		return nil, err
	}

	timeline, err := e.store.Timeline(playerID)
	if err != nil {
		return nil, err
	}
	if len(timeline) == 0 {
		return nil, ErrCareerNotStarted
	}

	// A finished day rolls over to a fresh one before the next choice
	if DayComplete(timeline) {
		timeline = e.timeline.GenerateDay()
	}
	slotIndex := NextUnresolved(timeline)
	slot := timeline[slotIndex-1]

	// Free-text input is classified like an option label
	label := optionLabel
	if strings.TrimSpace(label) == "" {
		label = picked
	}

	tier := ClassifyRisk(label)
	attr := RelevantAttribute(label, slotIndex)
	res := e.resolver.Resolve(attr, profile.Attributes.Value(attr), tier)

	if err := ApplyChoice(timeline, slotIndex, picked, res.Outcome); err != nil {
		return nil, err
	}

	stats, err := e.store.CareerStats(playerID)
	if err != nil {
		return nil, err
	}

	req := e.composer.ComposeSlot(profile, timeline, slot, stats, log, label, res)
	interpreted := e.generate(ctx, req, slot, profile, recentNarratives(log))

	outcome := mergeOutcome(res, interpreted)
	narrative := Colorize(interpreted.Narrative, outcome.Type)

	var match types.MatchStats
	isMatch := slot.Type == types.SlotMicro
	if isMatch {
		match = DeriveMatchStats(interpreted.Narrative, profile.Position, res)
	}

	xpGain := 0
	if res.Success {
		xpGain = int(math.Round(float64(e.baseXP) * res.Multiplier * AgeMultiplier(profile.Age)))
	}

	pool, err := e.store.XPPool(playerID)
	if err != nil {
		return nil, err
	}
	if xpGain > 0 {
		if pool, err = e.store.AddXP(playerID, xpGain); err != nil {
			return nil, err
		}
	}

	focus, err := e.store.AttributeFocus(playerID)
	if err != nil {
		return nil, err
	}
	if focus == "" {
		focus = attr
		if err := e.store.SetAttributeFocus(playerID, focus); err != nil {
			return nil, err
		}
	}

	improvement, remaining := ApplyLeveling(&profile.Attributes, focus, pool)
	if improvement != nil {
		if err := e.store.UpdateAttribute(playerID, focus, improvement.NewValue); err != nil {
			return nil, err
		}
		if err := e.store.SetXPPool(playerID, remaining); err != nil {
			return nil, err
		}
	}

	delta := types.CareerStatsDelta{
		Goals:       match.Goals,
		Assists:     match.Assists,
		KeyDefenses: match.KeyDefenses,
		Followers:   FollowerDelta(res),
	}
	if isMatch {
		delta.Matches = 1
	}
	updated, err := e.store.UpdateCareerStats(playerID, delta)
	if err != nil {
		return nil, err
	}
	if isMatch {
		if err := e.store.AddSeasonStats(playerID, match); err != nil {
			return nil, err
		}
	}

	milestone := MilestoneMessage(stats.Followers, updated.Followers)

	var matchPtr *types.MatchStats
	if isMatch {
		m := match
		matchPtr = &m
	}
	entry := types.Choice{
		ID:                uuid.New().String(),
		Sequence:          len(log) + 1,
		Picked:            picked,
		Timestamp:         time.Now(),
		Narrative:         narrative,
		Options:           interpreted.Options,
		Outcome:           &outcome,
		Timeline:          snapshotTimeline(timeline),
		XPGain:            xpGain,
		AttributeFocus:    focus,
		MatchStats:        matchPtr,
		AttributeImproved: improvement,
	}
	if err := e.store.AppendChoice(playerID, entry); err != nil {
		return nil, err
	}
	if err := e.store.SaveTimeline(playerID, timeline); err != nil {
		return nil, err
	}

	e.logger.Info("choice resolved",
		zap.String("player_id", playerID),
		zap.Int("slot", slotIndex),
		zap.String("risk", string(tier)),
		zap.String("attribute", string(attr)),
		zap.Float64("probability", res.Probability),
		zap.Bool("success", res.Success),
		zap.String("outcome", string(outcome.Type)),
		zap.Int("xp_gain", xpGain),
		zap.Bool("fallback", interpreted.Fallback))

	return &types.GameResponse{
		Narrative:         narrative,
		NextOptions:       interpreted.Options,
		Outcome:           &outcome,
		Timeline:          timeline,
		MatchStats:        match,
		XPGain:            xpGain,
		AttributeFocus:    focus,
		AttributeImproved: improvement,
		FollowerDelta:     delta.Followers,
		Milestone:         milestone,
	}, nil
}

// AdvanceWeek produces the season variant's fixed sequence of 5 sub-events,
// generated concurrently since they are independent, then advances the
// season timeline and bumps the week count (and age every 52 weeks).
func (e *Engine) AdvanceWeek(ctx context.Context, playerID string) ([]*types.GameResponse, error) {
	profile, err := e.store.Profile(playerID)
	if err != nil {
		return nil, err
	}

	stats, err := e.store.CareerStats(playerID)
	if err != nil {
		return nil, err
	}

	season, err := e.store.SeasonTimeline(playerID)
	if err != nil {
		return nil, err
	}
	if len(season) == 0 || NextUnresolved(season) == 0 {
		// A fully played season rolls over: fresh schedule, fresh totals
		if len(season) > 0 {
			if err := e.store.ResetSeasonStats(playerID); err != nil {
				return nil, err
			}
		}
		season = e.timeline.GenerateWeek()
	}

	week, err := e.store.WeekCount(playerID)
	if err != nil {
		return nil, err
	}

	responses := make([]*types.GameResponse, len(weekSubtypes))
	var wg sync.WaitGroup
	for i, subtype := range weekSubtypes {
		wg.Add(1)
		go func(i int, subtype string) {
			defer wg.Done()

			slot := types.TimelineSlot{Type: types.SlotWeek, SubType: subtype}
			req := e.composer.ComposeWeekEvent(profile, stats, week+1, subtype)
			interpreted := e.generate(ctx, req, slot, profile, nil)

			responses[i] = &types.GameResponse{
				Narrative:   Colorize(interpreted.Narrative, types.OutcomeNeutro),
				NextOptions: interpreted.Options,
				Timeline:    season,
			}
		}(i, subtype)
	}
	wg.Wait()

	slotIndex := NextUnresolved(season)
	if err := ApplyChoice(season, slotIndex, "SEMANA", types.OutcomeNeutro); err != nil {
		return nil, err
	}
	if err := e.store.SaveSeasonTimeline(playerID, season); err != nil {
		return nil, err
	}

	newWeek, err := e.store.IncrementWeek(playerID)
	if err != nil {
		return nil, err
	}
	if newWeek > 0 && newWeek%WeeksPerSeason == 0 {
		if err := e.store.IncrementAge(playerID); err != nil {
			return nil, err
		}
	}

	e.logger.Info("week advanced",
		zap.String("player_id", playerID),
		zap.Int("week", newWeek))

	return responses, nil
}

// generate runs the completion with a timeout, falls back locally on any
// failure, and applies the bounded anti-similarity retry (at most one).
func (e *Engine) generate(ctx context.Context, req PromptRequest, slot types.TimelineSlot, profile *types.PlayerProfile, stored []string) Interpreted {
	content, err := e.complete(ctx, req)
	if err != nil {
		return e.interpreter.Interpret("", slot, profile)
	}

	interpreted := e.interpreter.Interpret(content, slot, profile)
	if interpreted.Fallback || !TooSimilar(interpreted.Narrative, stored) {
		return interpreted
	}

	e.logger.Debug("narrative too similar, retrying once",
		zap.String("slot_type", string(slot.Type)))

	retryContent, err := e.complete(ctx, e.composer.Retry(req))
	if err != nil {
		return interpreted
	}

	retry := e.interpreter.Interpret(retryContent, slot, profile)
	if !retry.Fallback {
		// Accepted even if still similar; the retry is bounded at one
		return retry
	}
	if trimmed := strings.TrimSpace(retryContent); trimmed != "" {
		// The retry did not parse: use its raw text as-is, best effort
		retry.Narrative = trimmed
		retry.Fallback = false
		return retry
	}
	return interpreted
}

func (e *Engine) complete(ctx context.Context, req PromptRequest) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.completion.Complete(cctx, req.Messages(), types.CompletionOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		e.logger.Warn("completion call failed", zap.Error(err))
		return "", err
	}
	return out.Content, nil
}

// mergeOutcome combines the mechanical resolution with the model's narrative
// outcome: the mechanical tag wins, except a NEUTRO draw the model frames as
// ESTRATÉGICO keeps that framing. The model supplies the message when it has
// one.
func mergeOutcome(res Resolution, interpreted Interpreted) types.Outcome {
	outcomeType := res.Outcome
	message := defaultOutcomeMessage(outcomeType)

	if interpreted.Outcome != nil {
		if outcomeType == types.OutcomeNeutro && interpreted.Outcome.Type == types.OutcomeEstrategico {
			outcomeType = types.OutcomeEstrategico
			message = defaultOutcomeMessage(outcomeType)
		}
		if interpreted.Outcome.Message != "" {
			message = interpreted.Outcome.Message
		}
	}

	return types.Outcome{Type: outcomeType, Message: message}
}

func defaultOutcomeMessage(outcome types.OutcomeType) string {
	switch outcome {
	case types.OutcomeDecisivo:
		return "Uma jogada para ficar na memória da torcida."
	case types.OutcomePositivo:
		return "A escolha rendeu bons frutos."
	case types.OutcomeNegativo:
		return "A aposta não deu certo desta vez."
	case types.OutcomeEstrategico:
		return "Um movimento calculado pensando nos próximos passos."
	default:
		return "Um dia comum na carreira."
	}
}

func recentNarratives(log []types.Choice) []string {
	var narratives []string
	for _, c := range log {
		if c.Narrative != "" {
			narratives = append(narratives, c.Narrative)
		}
	}
	return narratives
}

func snapshotTimeline(timeline []types.TimelineSlot) []types.TimelineSlot {
	snapshot := make([]types.TimelineSlot, len(timeline))
	copy(snapshot, timeline)
	return snapshot
}
