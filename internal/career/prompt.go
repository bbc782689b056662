package career

import (
	"fmt"
	"strings"

	"github.com/user/campo-8bit/internal/types"
)

const (
	baseTemperature  = 0.85
	retryTemperature = 1.0

	// careerSummaryThreshold gates the career block out of early-game prompts
	careerSummaryThreshold = 3

	// antiRepetitionWindow is how many previously offered option labels the
	// model is told to avoid
	antiRepetitionWindow = 8
)

// PromptRequest is a fully assembled completion request
type PromptRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Messages converts the request into the chat message pair the completion
// service expects
func (p PromptRequest) Messages() []types.ChatMessage {
	return []types.ChatMessage{
		{Role: "system", Content: p.System},
		{Role: "user", Content: p.User},
	}
}

// PromptComposer assembles structured prompts from profile, timeline, career
// stats, emotional context and anti-repetition constraints
type PromptComposer struct {
	maxTokens int
}

// NewPromptComposer creates a composer with the given completion token limit
func NewPromptComposer(maxTokens int) *PromptComposer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &PromptComposer{maxTokens: maxTokens}
}

// clubContexts gives the narrator a one-line blurb per known starting club
var clubContexts = map[string]string{
	"Flamengo":      "clube gigante do Rio de Janeiro, torcida apaixonada e pressão constante por títulos",
	"Corinthians":   "a Fiel exige raça em cada lance, o estádio lota mesmo em dia de treino",
	"Palmeiras":     "estrutura de ponta e cobrança de elenco milionário",
	"São Paulo":     "tradição copeira, a base mais badalada do país",
	"Santos":        "a Vila espera o próximo menino da Vila, comparações inevitáveis",
	"Grêmio":        "torcida que valoriza o jogador criado em casa, frio e caldeirão na Arena",
	"Boca Juniors":  "La Bombonera treme nos dias de jogo, a doze empurra e cobra",
	"River Plate":   "elegância e exigência técnica no Monumental",
	"Ajax":          "escola de formação lendária, futebol total e paciência com jovens",
	"Sporting CP":   "academia famosa por lapidar craques, vitrine para a Europa",
	"Borussia Dortmund": "o Muro Amarelo abraça jovens talentos, palco perfeito para explodir",
}

// clubContext returns the blurb for a club or a generic line
func clubContext(club string) string {
	if blurb, ok := clubContexts[club]; ok {
		return blurb
	}
	return "clube em reconstrução, espaço real para um jovem ganhar minutos"
}

// systemPrompt builds the narrator persona plus the strict JSON output
// contract and the anti-repetition directive
func systemPrompt(recentOptions []string) string {
	var b strings.Builder

	b.WriteString("Você é o narrador de CAMPO 8-BIT, um jogo de carreira de futebol em texto. ")
	b.WriteString("Narre em português brasileiro, segunda pessoa, tom de crônica esportiva vívida e direta. ")
	b.WriteString("Use os marcadores <cyan>, <yellow> e <magenta> para falas e destaques.\n\n")

	b.WriteString("Responda APENAS com um objeto JSON válido, sem texto fora dele, neste formato:\n")
	b.WriteString(`{"narrative": "texto da cena", "options": {"A": "primeira opção", "B": "segunda opção"}, "outcome": {"type": "POSITIVO", "message": "resumo curto"}}`)
	b.WriteString("\n\n")
	b.WriteString("O campo outcome.type deve ser exatamente um de: POSITIVO, NEGATIVO, NEUTRO, DECISIVO, ESTRATÉGICO.\n")
	b.WriteString("As duas opções devem ser curtas (máximo 8 palavras) e oferecer caminhos genuinamente diferentes.\n")

	if len(recentOptions) > 0 {
		b.WriteString("\nNÃO repita nem parafraseie estas opções já oferecidas:\n")
		for _, label := range recentOptions {
			b.WriteString("- ")
			b.WriteString(label)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// formatTimeline renders the day's schedule with resolution marks
func formatTimeline(timeline []types.TimelineSlot) string {
	var b strings.Builder
	b.WriteString("AGENDA DO DIA:\n")
	for _, slot := range timeline {
		mark := "pendente"
		if slot.Resolved() {
			mark = fmt.Sprintf("resolvido (%s)", slot.Result)
		}
		if slot.SubType != "" {
			b.WriteString(fmt.Sprintf("  %d. %s/%s — %s\n", slot.Slot, slot.Type, slot.SubType, mark))
		} else {
			b.WriteString(fmt.Sprintf("  %d. %s — %s\n", slot.Slot, slot.Type, mark))
		}
	}
	return b.String()
}

// formatAttributes renders the seven-attribute vector on one line
func formatAttributes(attrs types.Attributes) string {
	return fmt.Sprintf(
		"ATRIBUTOS: velocidade %d, físico %d, chute %d, cabeceio %d, carisma %d, passe %d, defesa %d",
		attrs.Speed, attrs.Physical, attrs.Shooting, attrs.Heading, attrs.Charisma, attrs.Passing, attrs.Defense,
	)
}

// careerSummary renders career totals once they are worth mentioning; early
// careers return an empty string to keep prompts clean
func careerSummary(stats types.CareerStats) string {
	if stats.Matches+stats.Goals+stats.Assists < careerSummaryThreshold {
		return ""
	}
	return fmt.Sprintf(
		"CARREIRA: %d jogos, %d gols, %d assistências, %d defesas decisivas, %d seguidores",
		stats.Matches, stats.Goals, stats.Assists, stats.KeyDefenses, stats.Followers,
	)
}

// emotionalContext derives the player's mood from the outcome distribution of
// the last 3 choices
func emotionalContext(recent []types.Choice) string {
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	counts := make(map[types.OutcomeType]int)
	for _, c := range recent {
		if c.Outcome != nil {
			counts[c.Outcome.Type]++
		}
	}

	switch {
	case counts[types.OutcomeDecisivo] >= 1:
		return "confiante"
	case counts[types.OutcomeNegativo] >= 2:
		return "pressionado"
	case counts[types.OutcomePositivo] >= 2:
		return "motivado"
	case counts[types.OutcomeEstrategico] >= 2:
		return "focado"
	default:
		return "equilibrado"
	}
}

// lastOptionLabels collects up to limit option labels from the newest entries
// of the choice log, newest first
func lastOptionLabels(log []types.Choice, limit int) []string {
	var labels []string
	for i := len(log) - 1; i >= 0 && len(labels) < limit; i-- {
		if log[i].Options.LabelA != "" {
			labels = append(labels, log[i].Options.LabelA)
		}
		if len(labels) < limit && log[i].Options.LabelB != "" {
			labels = append(labels, log[i].Options.LabelB)
		}
	}
	return labels
}

// slotInstruction is the concrete task per slot type
func slotInstruction(slot types.TimelineSlot) string {
	switch slot.Type {
	case types.SlotTreinoTecnico:
		return "Narre a cena do treino técnico de hoje e o que o jogador faz nela."
	case types.SlotColetivaImprensa:
		return "Narre a coletiva de imprensa: uma pergunta incômoda de jornalista e a reação do jogador."
	case types.SlotLiveRedes:
		return "Narre uma live nas redes sociais do jogador: a interação com a torcida e a repercussão."
	case types.SlotTalkLockerRoom:
		return "Narre uma conversa de vestiário com um companheiro ou com o capitão."
	case types.SlotMicro:
		return fmt.Sprintf("Narre um lance de jogo (%s): minuto, placar e a jogada do jogador.", slot.SubType)
	case types.SlotWeek:
		return "Narre o resumo da semana do jogador no clube."
	default:
		return "Narre o próximo momento da carreira do jogador."
	}
}

// ComposeIntro builds the career-opening prompt: first day at the club,
// no precomputed outcome
func (pc *PromptComposer) ComposeIntro(profile *types.PlayerProfile) PromptRequest {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(
		"JOGADOR: %s, %d anos, %s, %s no %s.\n",
		profile.Name, profile.Age, profile.Nationality, profile.Position, profile.StartClub,
	))
	b.WriteString(formatAttributes(profile.Attributes))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("CLUBE: %s.\n\n", clubContext(profile.StartClub)))
	b.WriteString("É o primeiro dia do jogador no elenco principal. ")
	b.WriteString("Narre a chegada ao vestiário, a recepção do grupo e termine na primeira situação em que ele precisa decidir como se apresentar. ")
	b.WriteString("Não inclua o campo outcome nesta abertura.")

	return PromptRequest{
		System:      systemPrompt(nil),
		User:        b.String(),
		Temperature: baseTemperature,
		MaxTokens:   pc.maxTokens,
	}
}

// ComposeSlot builds the prompt for resolving the current slot. The
// mechanical resolution is computed first so the narrative can open by
// showing that result.
func (pc *PromptComposer) ComposeSlot(
	profile *types.PlayerProfile,
	timeline []types.TimelineSlot,
	slot types.TimelineSlot,
	stats types.CareerStats,
	log []types.Choice,
	picked string,
	res Resolution,
) PromptRequest {
	var b strings.Builder

	b.WriteString(formatTimeline(timeline))
	b.WriteString(fmt.Sprintf(
		"\nJOGADOR: %s, %d anos, %s, %s no %s.\n",
		profile.Name, profile.Age, profile.Nationality, profile.Position, profile.StartClub,
	))
	b.WriteString(formatAttributes(profile.Attributes))
	b.WriteString("\n")

	if summary := careerSummary(stats); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("CLUBE: %s.\n", clubContext(profile.StartClub)))
	b.WriteString(fmt.Sprintf("ESTADO EMOCIONAL: %s.\n\n", emotionalContext(log)))

	b.WriteString(fmt.Sprintf("O jogador escolheu: %q.\n", picked))
	b.WriteString(fmt.Sprintf(
		"O resultado dessa escolha já foi decidido: %s (risco %s, atributo %s). ",
		res.Outcome, res.Tier, res.Attribute,
	))
	b.WriteString("Comece a narrativa mostrando esse resultado antes de avançar a cena.\n\n")
	b.WriteString(slotInstruction(slot))

	return PromptRequest{
		System:      systemPrompt(lastOptionLabels(log, antiRepetitionWindow)),
		User:        b.String(),
		Temperature: baseTemperature,
		MaxTokens:   pc.maxTokens,
	}
}

// ComposeWeekEvent builds one of the week-advance sub-event prompts for the
// season variant
func (pc *PromptComposer) ComposeWeekEvent(profile *types.PlayerProfile, stats types.CareerStats, week int, subtype string) PromptRequest {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(
		"JOGADOR: %s, %d anos, %s, %s no %s. Semana %d da temporada.\n",
		profile.Name, profile.Age, profile.Nationality, profile.Position, profile.StartClub, week,
	))
	if summary := careerSummary(stats); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch subtype {
	case "SEMANA_TREINO":
		b.WriteString("Narre o momento mais marcante dos treinos da semana.")
	case "SEMANA_IMPRENSA":
		b.WriteString("Narre a repercussão do jogador na imprensa durante a semana.")
	case "PARTIDA":
		b.WriteString("Narre um lance decisivo do jogador na partida da semana, com minuto e placar.")
	case "POS_PARTIDA":
		b.WriteString("Narre a zona mista após a partida: declaração do jogador e reação da torcida.")
	default:
		b.WriteString("Narre o resumo da semana do jogador no clube.")
	}

	return PromptRequest{
		System:      systemPrompt(nil),
		User:        b.String(),
		Temperature: baseTemperature,
		MaxTokens:   pc.maxTokens,
	}
}

// Retry rebuilds a request for the bounded anti-similarity retry: higher
// temperature and an explicit directive to diverge.
func (pc *PromptComposer) Retry(req PromptRequest) PromptRequest {
	req.Temperature = retryTemperature
	req.User += "\n\nIMPORTANTE: produza uma cena COMPLETAMENTE diferente das anteriores, com outro cenário, outros personagens e outras opções."
	return req
}
