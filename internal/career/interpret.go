package career

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/campo-8bit/internal/types"
	"go.uber.org/zap"
)

// similarityThreshold rejects a narrative sharing too many long tokens with
// recent ones (matches / tokens of the new narrative)
const similarityThreshold = 0.4

// similarityWindow is how many stored narratives the new one is checked against
const similarityWindow = 5

// negativeKeywords force the yellow presentation marker even when the outcome
// tag alone would not
var negativeKeywords = []string{
	"lesão",
	"expulso",
	"vaia",
	"derrota",
	"erro grave",
	"crise",
	"fracasso",
	"desentendimento",
}

// Interpreted is the validated result of parsing a completion
type Interpreted struct {
	Narrative string
	Options   types.NextOptions
	Outcome   *types.Outcome
	Fallback  bool
}

// Interpreter parses completion text into narrative, options and outcome,
// recovering locally from anything malformed
type Interpreter struct {
	logger *zap.Logger
}

// NewInterpreter creates an interpreter
func NewInterpreter(logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{logger: logger}
}

// rawResponse mirrors the JSON shape the model is instructed to produce
type rawResponse struct {
	Narrative string `json:"narrative"`
	Options   struct {
		A string `json:"A"`
		B string `json:"B"`
	} `json:"options"`
	Outcome *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"outcome"`
}

// ExtractJSON strips code fences and returns the first top-level JSON object
// found in the content
func ExtractJSON(content string) (string, bool) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

// CoerceOutcome validates a raw outcome tag against the five-member enum,
// coercing anything unknown to NEUTRO
func CoerceOutcome(raw string) types.OutcomeType {
	candidate := types.OutcomeType(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate
	}
	return types.OutcomeNeutro
}

// Interpret parses the completion content for a slot. Malformed content never
// surfaces as an error; the slot-appropriate fallback is returned instead.
func (in *Interpreter) Interpret(content string, slot types.TimelineSlot, profile *types.PlayerProfile) Interpreted {
	blob, ok := ExtractJSON(content)
	if !ok {
		in.logger.Warn("completion had no JSON object, using fallback",
			zap.String("slot_type", string(slot.Type)))
		return in.fallback(slot, profile)
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		in.logger.Warn("completion JSON parse failed, using fallback",
			zap.String("slot_type", string(slot.Type)),
			zap.Error(err))
		return in.fallback(slot, profile)
	}

	if strings.TrimSpace(raw.Narrative) == "" {
		return in.fallback(slot, profile)
	}

	result := Interpreted{
		Narrative: strings.TrimSpace(raw.Narrative),
		Options: types.NextOptions{
			LabelA: strings.TrimSpace(raw.Options.A),
			LabelB: strings.TrimSpace(raw.Options.B),
		},
	}

	if result.Options.LabelA == "" || result.Options.LabelB == "" {
		result.Options = fallbackOptions(slot)
	}

	if raw.Outcome != nil {
		result.Outcome = &types.Outcome{
			Type:    CoerceOutcome(raw.Outcome.Type),
			Message: strings.TrimSpace(raw.Outcome.Message),
		}
	}

	return result
}

// fallback builds the canned recovery response for a slot
func (in *Interpreter) fallback(slot types.TimelineSlot, profile *types.PlayerProfile) Interpreted {
	return Interpreted{
		Narrative: FallbackNarrative(slot, profile),
		Options:   fallbackOptions(slot),
		Outcome:   &types.Outcome{Type: types.OutcomeNeutro, Message: "Um dia comum na carreira."},
		Fallback:  true,
	}
}

// FallbackNarrative returns a slot-appropriate canned narrative used when the
// completion service fails or returns garbage
func FallbackNarrative(slot types.TimelineSlot, profile *types.PlayerProfile) string {
	name := "o jogador"
	club := "o clube"
	if profile != nil {
		name = profile.Name
		club = profile.StartClub
	}

	switch slot.Type {
	case types.SlotIntro:
		return fmt.Sprintf("<cyan>Bem-vindo ao %s, %s! O vestiário te observa com curiosidade no seu primeiro dia com o elenco principal.</cyan>", club, name)
	case types.SlotTreinoTecnico:
		return fmt.Sprintf("<cyan>%s participa de um treino técnico intenso, repetindo fundamentos sob o olhar atento da comissão.</cyan>", name)
	case types.SlotColetivaImprensa:
		return fmt.Sprintf("<cyan>Os jornalistas aguardam %s na sala de imprensa. Os gravadores ligam assim que ele senta.</cyan>", name)
	case types.SlotLiveRedes:
		return fmt.Sprintf("<cyan>%s abre uma live nas redes. Os comentários sobem em cascata enquanto a torcida chega.</cyan>", name)
	case types.SlotTalkLockerRoom:
		return fmt.Sprintf("<cyan>No vestiário, o capitão puxa %s para uma conversa reservada sobre o grupo.</cyan>", name)
	case types.SlotMicro:
		return fmt.Sprintf("<cyan>Uma oportunidade surge para %s durante a partida! A jogada passa por ele.</cyan>", name)
	case types.SlotWeek:
		return fmt.Sprintf("<cyan>Mais uma semana de trabalho no %s chega ao fim.</cyan>", club)
	default:
		return fmt.Sprintf("<cyan>%s enfrenta mais um desafio em sua carreira.</cyan>", name)
	}
}

// fallbackOptions returns two canned next options per slot type
func fallbackOptions(slot types.TimelineSlot) types.NextOptions {
	switch slot.Type {
	case types.SlotTreinoTecnico:
		return types.NextOptions{LabelA: "Seguir o treino padrão", LabelB: "Improvisar uma jogada ousada"}
	case types.SlotColetivaImprensa:
		return types.NextOptions{LabelA: "Responder de forma cautelosa", LabelB: "Provocar o rival"}
	case types.SlotLiveRedes:
		return types.NextOptions{LabelA: "Agradecer a torcida", LabelB: "Prometer um golaço"}
	case types.SlotTalkLockerRoom:
		return types.NextOptions{LabelA: "Ouvir o capitão", LabelB: "Desafiar a hierarquia"}
	case types.SlotMicro:
		return types.NextOptions{LabelA: "Tocar simples para o lado", LabelB: "Arriscar o chute de longe"}
	default:
		return types.NextOptions{LabelA: "Manter o foco no trabalho", LabelB: "Buscar algo criativo"}
	}
}

// Similarity measures how much of the new narrative's long tokens (length >4)
// also appear in a previous narrative, as a fraction of the new narrative's
// long tokens. Presentation markers are stripped first so stored colorized
// narratives compare equal to raw ones.
func Similarity(narrative, previous string) float64 {
	newTokens := longTokens(stripMarkers(narrative))
	if len(newTokens) == 0 {
		return 0
	}

	prevSet := make(map[string]struct{})
	for _, tok := range longTokens(stripMarkers(previous)) {
		prevSet[tok] = struct{}{}
	}

	matches := 0
	for _, tok := range newTokens {
		if _, ok := prevSet[tok]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(newTokens))
}

// TooSimilar checks the narrative against up to the last similarityWindow
// stored narratives
func TooSimilar(narrative string, stored []string) bool {
	if len(stored) > similarityWindow {
		stored = stored[len(stored)-similarityWindow:]
	}
	for _, prev := range stored {
		if Similarity(narrative, prev) > similarityThreshold {
			return true
		}
	}
	return false
}

var colorMarkers = []string{"<cyan>", "</cyan>", "<yellow>", "</yellow>", "<magenta>", "</magenta>"}

func stripMarkers(text string) string {
	for _, marker := range colorMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	return text
}

func longTokens(text string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if len([]rune(tok)) > 4 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Colorize wraps the narrative in a presentation marker for the UI. Text that
// already carries a marker is left untouched.
func Colorize(narrative string, outcome types.OutcomeType) string {
	if strings.Contains(narrative, "<cyan>") ||
		strings.Contains(narrative, "<yellow>") ||
		strings.Contains(narrative, "<magenta>") {
		return narrative
	}

	if outcome == types.OutcomeNegativo || containsNegativeKeyword(narrative) {
		return "<yellow>" + narrative + "</yellow>"
	}
	if outcome == types.OutcomeDecisivo {
		return "<magenta>" + narrative + "</magenta>"
	}
	return "<cyan>" + narrative + "</cyan>"
}

func containsNegativeKeyword(narrative string) bool {
	text := strings.ToLower(narrative)
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
