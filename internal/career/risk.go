package career

import (
	"strings"

	"github.com/user/campo-8bit/internal/types"
)

// riskRule maps a keyword to a risk tier. Rules are evaluated in order and
// the first match wins, so the order below is part of the behavior.
type riskRule struct {
	keyword string
	tier    types.RiskTier
}

var riskRules = []riskRule{
	{"seguro", types.RiskLow},
	{"cauteloso", types.RiskLow},
	{"simples", types.RiskLow},
	{"básico", types.RiskLow},
	{"padrão", types.RiskLow},
	{"técnico", types.RiskLow},
	{"seguir", types.RiskLow},
	{"conservador", types.RiskLow},
	{"arriscado", types.RiskHigh},
	{"ousado", types.RiskHigh},
	{"provocar", types.RiskHigh},
	{"desafiar", types.RiskHigh},
	{"improvisar", types.RiskHigh},
	{"criativo", types.RiskHigh},
	{"imprudente", types.RiskHigh},
	{"agressivo", types.RiskHigh},
}

// ClassifyRisk maps a choice label to a risk tier by case-insensitive keyword
// scan. Unmatched labels default to medium.
func ClassifyRisk(optionText string) types.RiskTier {
	text := strings.ToLower(optionText)
	for _, rule := range riskRules {
		if strings.Contains(text, rule.keyword) {
			return rule.tier
		}
	}
	return types.RiskMedium
}

// attributeRule maps a football-domain keyword to the most relevant attribute
type attributeRule struct {
	keyword string
	attr    types.AttributeKey
}

var attributeRules = []attributeRule{
	{"chute", types.AttrShooting},
	{"chutar", types.AttrShooting},
	{"finaliza", types.AttrShooting},
	{"pênalti", types.AttrShooting},
	{"gol", types.AttrShooting},
	{"cabecear", types.AttrHeading},
	{"cabeçada", types.AttrHeading},
	{"cabeça", types.AttrHeading},
	{"escanteio", types.AttrHeading},
	{"velocidade", types.AttrSpeed},
	{"corrida", types.AttrSpeed},
	{"arrancada", types.AttrSpeed},
	{"contra-ataque", types.AttrSpeed},
	{"drible em velocidade", types.AttrSpeed},
	{"passe", types.AttrPassing},
	{"cruzamento", types.AttrPassing},
	{"lançamento", types.AttrPassing},
	{"toque", types.AttrPassing},
	{"tabela", types.AttrPassing},
	{"desarme", types.AttrDefense},
	{"marcação", types.AttrDefense},
	{"defesa", types.AttrDefense},
	{"bloqueio", types.AttrDefense},
	{"carrinho", types.AttrDefense},
	{"entrevista", types.AttrCharisma},
	{"imprensa", types.AttrCharisma},
	{"torcida", types.AttrCharisma},
	{"live", types.AttrCharisma},
	{"redes sociais", types.AttrCharisma},
	{"declaração", types.AttrCharisma},
	{"vestiário", types.AttrCharisma},
	{"academia", types.AttrPhysical},
	{"força", types.AttrPhysical},
	{"resistência", types.AttrPhysical},
	{"físico", types.AttrPhysical},
	{"disputa de corpo", types.AttrPhysical},
}

// slotDefaultAttribute is the fallback attribute per daily slot when no
// keyword matches the option label
var slotDefaultAttribute = map[int]types.AttributeKey{
	1: types.AttrPhysical,
	2: types.AttrCharisma,
	3: types.AttrCharisma,
	4: types.AttrShooting,
}

// RelevantAttribute picks the attribute most relevant to a choice label,
// falling back to the current slot's default. First matching keyword wins.
func RelevantAttribute(optionText string, currentSlot int) types.AttributeKey {
	text := strings.ToLower(optionText)
	for _, rule := range attributeRules {
		if strings.Contains(text, rule.keyword) {
			return rule.attr
		}
	}

	if attr, ok := slotDefaultAttribute[currentSlot]; ok {
		return attr
	}
	return types.AttrShooting
}
