package career

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/campo-8bit/internal/session"
	"github.com/user/campo-8bit/internal/types"
)

// stubCompletion serves canned responses in order, holding the last one once
// the queue runs dry
type stubCompletion struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (s *stubCompletion) Complete(_ context.Context, _ []types.ChatMessage, _ types.CompletionOptions) (*types.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	content := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return &types.Completion{Content: content}, nil
}

func (s *stubCompletion) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func completionJSON(narrative string) string {
	return fmt.Sprintf(
		`{"narrative": %q, "options": {"A": "Treinar em silêncio", "B": "Puxar conversa com o capitão"}, "outcome": {"type": "POSITIVO", "message": "Boa impressão"}}`,
		narrative,
	)
}

func newTestEngine(t *testing.T, stub *stubCompletion, opts EngineOptions) (*Engine, *session.Store, string) {
	t.Helper()

	store := session.NewStore(filepath.Join(t.TempDir(), "state.json"), 100, nil)
	profile, err := store.CreatePlayer(types.PlayerProfile{
		Name:        "Caio Mendes",
		Age:         17,
		Nationality: "Brasil",
		Position:    "atacante",
		StartClub:   "Flamengo",
		Attributes: types.Attributes{
			Speed: 12, Physical: 10, Shooting: 14, Heading: 8,
			Charisma: 11, Passing: 9, Defense: 6,
		},
	})
	require.NoError(t, err)

	return NewEngine(stub, store, nil, opts), store, profile.ID
}

func hasColorMarker(text string) bool {
	return strings.Contains(text, "<cyan>") ||
		strings.Contains(text, "<yellow>") ||
		strings.Contains(text, "<magenta>")
}

func TestStartCareer(t *testing.T) {
	// Setup
	stub := &stubCompletion{responses: []string{
		completionJSON("A chegada ao vestiário surpreende os veteranos curiosos."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{})

	resp, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)

	// The opening carries narrative and options but no outcome yet
	assert.True(t, hasColorMarker(resp.Narrative))
	assert.Equal(t, "Treinar em silêncio", resp.NextOptions.LabelA)
	assert.Nil(t, resp.Outcome)
	require.Len(t, resp.Timeline, SlotsPerDay)
	assert.False(t, resp.Timeline[0].Resolved())

	// The intro is logged so its options feed later anti-repetition blocks
	log, err := store.ChoiceLog(playerID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, resp.NextOptions, log[0].Options)
}

func TestStartCareerSeasonMode(t *testing.T) {
	stub := &stubCompletion{responses: []string{
		completionJSON("A pré-temporada começa com o elenco completo reunido."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{SeasonMode: true})

	resp, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)

	// The season variant opens on the 52-slot schedule
	require.Len(t, resp.Timeline, WeeksPerSeason)
	for _, slot := range resp.Timeline {
		assert.False(t, slot.Resolved())
	}

	season, err := store.SeasonTimeline(playerID)
	require.NoError(t, err)
	assert.Len(t, season, WeeksPerSeason)
}

func TestStartCareerUnknownPlayer(t *testing.T) {
	stub := &stubCompletion{responses: []string{completionJSON("x")}}
	engine, _, _ := newTestEngine(t, stub, EngineOptions{})

	_, err := engine.StartCareer(context.Background(), "nao-existe")
	assert.ErrorIs(t, err, session.ErrPlayerNotFound)
}

func TestResolveChoice(t *testing.T) {
	// Setup
	stub := &stubCompletion{responses: []string{
		completionJSON("Os veteranos observam a chegada silenciosa do garoto."),
		completionJSON("O gramado molhado castiga quem relaxa nos fundamentos hoje."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{})

	_, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)

	resp, err := engine.ResolveChoice(context.Background(), playerID, "A", "Seguir o treino padrão")
	require.NoError(t, err)

	// Test case 1: the response is fully populated
	assert.True(t, hasColorMarker(resp.Narrative))
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.Type.Valid())
	assert.NotEmpty(t, resp.Outcome.Message)
	assert.NotEmpty(t, resp.NextOptions.LabelA)
	assert.NotEmpty(t, resp.NextOptions.LabelB)
	assert.NotEmpty(t, resp.AttributeFocus)
	assert.GreaterOrEqual(t, resp.XPGain, 0)

	// Test case 2: slot 1 resolved, the rest untouched
	require.Len(t, resp.Timeline, SlotsPerDay)
	assert.True(t, resp.Timeline[0].Resolved())
	assert.False(t, resp.Timeline[1].Resolved())

	// Test case 3: the choice is logged after the intro
	log, err := store.ChoiceLog(playerID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "A", log[1].Picked)
	assert.Equal(t, 2, log[1].Sequence)

	// Distinct narratives meant no similarity retry fired
	assert.Equal(t, 2, stub.callCount())
}

func TestResolveChoiceNotStarted(t *testing.T) {
	stub := &stubCompletion{responses: []string{completionJSON("x")}}
	engine, _, playerID := newTestEngine(t, stub, EngineOptions{})

	_, err := engine.ResolveChoice(context.Background(), playerID, "A", "Seguir o treino padrão")
	assert.ErrorIs(t, err, ErrCareerNotStarted)
}

func TestResolveChoiceFreeText(t *testing.T) {
	// Free-text input with no option label is classified like a label
	stub := &stubCompletion{responses: []string{
		completionJSON("O vestiário abre espaço para o novato mostrar personalidade."),
		completionJSON("A comissão anota cada movimento durante o circuito físico."),
	}}
	engine, _, playerID := newTestEngine(t, stub, EngineOptions{})

	_, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)

	resp, err := engine.ResolveChoice(context.Background(), playerID, "vou improvisar uma jogada ousada", "")
	require.NoError(t, err)
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.Type.Valid())
}

func TestResolveChoiceCompletionFailure(t *testing.T) {
	// Setup: the completion service is down for the whole session
	stub := &stubCompletion{err: errors.New("connection refused")}
	engine, _, playerID := newTestEngine(t, stub, EngineOptions{})

	start, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)
	assert.NotEmpty(t, start.Narrative)
	assert.NotEmpty(t, start.NextOptions.LabelA)

	// A playable response still comes back, never an error
	resp, err := engine.ResolveChoice(context.Background(), playerID, "A", "Seguir o treino padrão")
	require.NoError(t, err)
	assert.True(t, hasColorMarker(resp.Narrative))
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.Type.Valid())
	assert.NotEmpty(t, resp.NextOptions.LabelA)
	assert.NotEmpty(t, resp.NextOptions.LabelB)
}

func TestResolveChoiceSingleRetry(t *testing.T) {
	// Setup: every call returns the same narrative, so the choice resolution
	// sees a near-identical repeat of the logged intro
	repeated := completionJSON("o atacante driblou o zagueiro e marcou um golaço incrível no treino")
	stub := &stubCompletion{responses: []string{repeated}}
	engine, _, playerID := newTestEngine(t, stub, EngineOptions{})

	_, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.callCount())

	resp, err := engine.ResolveChoice(context.Background(), playerID, "A", "Seguir o treino padrão")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Narrative)

	// Exactly one retry: the intro call plus two for the choice
	assert.Equal(t, 3, stub.callCount())
}

func TestResolveChoiceDayRollover(t *testing.T) {
	// Setup: six distinct narratives so no similarity retry interferes
	stub := &stubCompletion{responses: []string{
		completionJSON("A apresentação rende aplausos tímidos no vestiário lotado."),
		completionJSON("O circuito físico termina com elogio raro do preparador."),
		completionJSON("Os jornalistas testam a paciência do garoto na coletiva."),
		completionJSON("A conversa reservada revela tensões antigas no elenco."),
		completionJSON("O lance da partida coloca o estádio inteiro de pé."),
		completionJSON("Uma manhã fria recebe o grupo para novos trabalhos táticos."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{})

	_, err := engine.StartCareer(context.Background(), playerID)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < SlotsPerDay; i++ {
		_, err := engine.ResolveChoice(ctx, playerID, "A", "Seguir o treino padrão")
		require.NoError(t, err)
	}

	// The day is full; the next choice lands on a fresh day's first slot
	resp, err := engine.ResolveChoice(ctx, playerID, "B", "Improvisar uma jogada ousada")
	require.NoError(t, err)
	require.Len(t, resp.Timeline, SlotsPerDay)
	assert.True(t, resp.Timeline[0].Resolved())
	assert.False(t, resp.Timeline[1].Resolved())

	// The match slot of the completed day counted as an appearance
	stats, err := store.CareerStats(playerID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Matches)

	log, err := store.ChoiceLog(playerID)
	require.NoError(t, err)
	assert.Len(t, log, 6)
}

func TestAdvanceWeek(t *testing.T) {
	// Setup
	stub := &stubCompletion{responses: []string{
		completionJSON("Os treinos da semana terminam com intensidade acima do normal."),
		completionJSON("Os jornais estampam a promessa nas páginas de esporte."),
		completionJSON("O lance aos quarenta minutos muda o rumo do jogo."),
		completionJSON("A arquibancada grita o nome do camisa jovem no apito final."),
		completionJSON("Na zona mista, declarações medidas acalmam a diretoria."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{SeasonMode: true})

	responses, err := engine.AdvanceWeek(context.Background(), playerID)
	require.NoError(t, err)

	// Five sub-events, all playable
	require.Len(t, responses, 5)
	for _, resp := range responses {
		require.NotNil(t, resp)
		assert.True(t, hasColorMarker(resp.Narrative))
	}

	// The season timeline advanced by one slot and the week counter moved
	season, err := store.SeasonTimeline(playerID)
	require.NoError(t, err)
	require.Len(t, season, WeeksPerSeason)
	assert.True(t, season[0].Resolved())
	assert.False(t, season[1].Resolved())

	week, err := store.WeekCount(playerID)
	require.NoError(t, err)
	assert.Equal(t, 1, week)
}

func TestAdvanceWeekSeasonRollover(t *testing.T) {
	// Setup: a fully played season with accumulated totals
	stub := &stubCompletion{responses: []string{
		completionJSON("A nova temporada abre com o elenco renovado nos treinos."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{SeasonMode: true})

	tracker := NewTimelineTracker()
	season := tracker.GenerateWeek()
	for i := 1; i <= WeeksPerSeason; i++ {
		require.NoError(t, ApplyChoice(season, i, "SEMANA", types.OutcomeNeutro))
	}
	require.NoError(t, store.SaveSeasonTimeline(playerID, season))
	require.NoError(t, store.AddSeasonStats(playerID, types.MatchStats{Goals: 7, Assists: 3, Rating: 1.4}))

	_, err := engine.AdvanceWeek(context.Background(), playerID)
	require.NoError(t, err)

	// The new season starts with a fresh schedule and clean totals
	stats, err := store.SeasonStats(playerID)
	require.NoError(t, err)
	assert.Zero(t, stats.Goals)
	assert.Zero(t, stats.Assists)
	assert.Zero(t, stats.Appearances)
	assert.Zero(t, stats.AverageRating)

	fresh, err := store.SeasonTimeline(playerID)
	require.NoError(t, err)
	require.Len(t, fresh, WeeksPerSeason)
	assert.True(t, fresh[0].Resolved())
	assert.False(t, fresh[1].Resolved())
}

func TestStartCareerSequenceAdvances(t *testing.T) {
	// Restarting a career appends to the log instead of reusing sequence 1
	stub := &stubCompletion{responses: []string{
		completionJSON("A apresentação oficial lota a sala de imprensa do clube."),
		completionJSON("Um recomeço discreto marca o retorno ao centro de treinamento."),
	}}
	engine, store, playerID := newTestEngine(t, stub, EngineOptions{})

	ctx := context.Background()
	_, err := engine.StartCareer(ctx, playerID)
	require.NoError(t, err)
	_, err = engine.StartCareer(ctx, playerID)
	require.NoError(t, err)

	log, err := store.ChoiceLog(playerID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, 1, log[0].Sequence)
	assert.Equal(t, 2, log[1].Sequence)
}

func TestMergeOutcome(t *testing.T) {
	// Test case 1: the mechanical outcome wins over the model's
	res := Resolution{Outcome: types.OutcomePositivo}
	merged := mergeOutcome(res, Interpreted{
		Outcome: &types.Outcome{Type: types.OutcomeDecisivo, Message: "do modelo"},
	})
	assert.Equal(t, types.OutcomePositivo, merged.Type)
	assert.Equal(t, "do modelo", merged.Message)

	// Test case 2: a NEUTRO draw keeps the model's strategic framing
	res = Resolution{Outcome: types.OutcomeNeutro}
	merged = mergeOutcome(res, Interpreted{
		Outcome: &types.Outcome{Type: types.OutcomeEstrategico},
	})
	assert.Equal(t, types.OutcomeEstrategico, merged.Type)
	assert.NotEmpty(t, merged.Message)

	// Test case 3: no model outcome falls back to the default message
	res = Resolution{Outcome: types.OutcomeNegativo}
	merged = mergeOutcome(res, Interpreted{})
	assert.Equal(t, types.OutcomeNegativo, merged.Type)
	assert.Equal(t, "A aposta não deu certo desta vez.", merged.Message)
}
