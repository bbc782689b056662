package types

import "time"

// AttributeKey identifies one of the seven player attributes
type AttributeKey string

const (
	AttrSpeed    AttributeKey = "speed"
	AttrPhysical AttributeKey = "physical"
	AttrShooting AttributeKey = "shooting"
	AttrHeading  AttributeKey = "heading"
	AttrCharisma AttributeKey = "charisma"
	AttrPassing  AttributeKey = "passing"
	AttrDefense  AttributeKey = "defense"
)

// AttributeKeys lists all attributes in display order
var AttributeKeys = []AttributeKey{
	AttrSpeed,
	AttrPhysical,
	AttrShooting,
	AttrHeading,
	AttrCharisma,
	AttrPassing,
	AttrDefense,
}

// Attributes holds the seven-attribute player vector (range 1-20)
type Attributes struct {
	Speed    int `json:"speed"`
	Physical int `json:"physical"`
	Shooting int `json:"shooting"`
	Heading  int `json:"heading"`
	Charisma int `json:"charisma"`
	Passing  int `json:"passing"`
	Defense  int `json:"defense"`
}

// Value returns the attribute identified by key, or 0 for an unknown key
func (a Attributes) Value(key AttributeKey) int {
	switch key {
	case AttrSpeed:
		return a.Speed
	case AttrPhysical:
		return a.Physical
	case AttrShooting:
		return a.Shooting
	case AttrHeading:
		return a.Heading
	case AttrCharisma:
		return a.Charisma
	case AttrPassing:
		return a.Passing
	case AttrDefense:
		return a.Defense
	default:
		return 0
	}
}

// Set assigns the attribute identified by key
func (a *Attributes) Set(key AttributeKey, value int) {
	switch key {
	case AttrSpeed:
		a.Speed = value
	case AttrPhysical:
		a.Physical = value
	case AttrShooting:
		a.Shooting = value
	case AttrHeading:
		a.Heading = value
	case AttrCharisma:
		a.Charisma = value
	case AttrPassing:
		a.Passing = value
	case AttrDefense:
		a.Defense = value
	}
}

// PlayerProfile represents a player's identity and current attributes.
// Identity fields are immutable after creation; attributes mutate only
// through the progression engine's leveling rule.
type PlayerProfile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Age         int        `json:"age"`
	Nationality string     `json:"nationality"`
	Position    string     `json:"position"`
	StartClub   string     `json:"start_club"`
	CreatedAt   time.Time  `json:"created_at"`
	Attributes  Attributes `json:"attributes"`
}

// SlotType tags a timeline slot with its event type
type SlotType string

const (
	SlotIntro            SlotType = "INTRO"
	SlotTreinoTecnico    SlotType = "TREINO_TECNICO"
	SlotColetivaImprensa SlotType = "COLETIVA_IMPRENSA"
	SlotLiveRedes        SlotType = "LIVE_REDES"
	SlotTalkLockerRoom   SlotType = "TALK_LOCKERROOM"
	SlotMicro            SlotType = "MICRO"
	SlotWeek             SlotType = "WEEK"
)

// SubtypeAtaqueFranco is the default match-moment subtype for the day's match slot
const SubtypeAtaqueFranco = "ATAQUE_FRANCO"

// TimelineSlot is one entry of the fixed daily (or weekly) schedule
type TimelineSlot struct {
	Slot    int      `json:"slot"`
	Type    SlotType `json:"type"`
	SubType string   `json:"sub_type,omitempty"`
	Choice  string   `json:"choice,omitempty"`
	Result  string   `json:"result,omitempty"`
}

// Resolved reports whether the slot already has a recorded choice and result
func (s TimelineSlot) Resolved() bool {
	return s.Choice != "" && s.Result != ""
}

// OutcomeType classifies the result of a resolved choice
type OutcomeType string

const (
	OutcomePositivo    OutcomeType = "POSITIVO"
	OutcomeNegativo    OutcomeType = "NEGATIVO"
	OutcomeNeutro      OutcomeType = "NEUTRO"
	OutcomeDecisivo    OutcomeType = "DECISIVO"
	OutcomeEstrategico OutcomeType = "ESTRATÉGICO"
)

// Valid reports whether the outcome type is one of the five known tags
func (o OutcomeType) Valid() bool {
	switch o {
	case OutcomePositivo, OutcomeNegativo, OutcomeNeutro, OutcomeDecisivo, OutcomeEstrategico:
		return true
	}
	return false
}

// Outcome is the resolved classification of a choice plus its message
type Outcome struct {
	Type    OutcomeType `json:"type"`
	Message string      `json:"message"`
}

// RiskTier classifies how risky a choice is
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// MatchStats are the per-match performance numbers derived from a match slot
type MatchStats struct {
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	KeyDefenses int     `json:"key_defenses"`
	Rating      float64 `json:"rating"` // 0-2 scale
}

// Empty reports whether no stat was recorded
func (m MatchStats) Empty() bool {
	return m.Goals == 0 && m.Assists == 0 && m.KeyDefenses == 0 && m.Rating == 0
}

// CareerStats is the running aggregate across the whole career
type CareerStats struct {
	Matches     int `json:"matches"`
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	KeyDefenses int `json:"key_defenses"`
	Age         int `json:"age"`
	Followers   int `json:"followers"`
}

// CareerStatsDelta is an additive update to CareerStats. Age is never part of
// a delta; it only moves through the explicit week-advance path.
type CareerStatsDelta struct {
	Matches     int `json:"matches"`
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	KeyDefenses int `json:"key_defenses"`
	Followers   int `json:"followers"`
}

// SeasonStats tracks the current season's totals
type SeasonStats struct {
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	Appearances   int     `json:"appearances"`
	TotalRating   float64 `json:"total_rating"`
	AverageRating float64 `json:"average_rating"`
}

// NextOptions are the two option labels offered after a narrative
type NextOptions struct {
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`
}

// AttributeImprovement records a single attribute level-up
type AttributeImprovement struct {
	Name     AttributeKey `json:"name"`
	OldValue int          `json:"old_value"`
	NewValue int          `json:"new_value"`
}

// Choice is an immutable log entry for one resolved decision
type Choice struct {
	ID                string                `json:"id"`
	Sequence          int                   `json:"sequence"`
	Picked            string                `json:"picked"`
	Timestamp         time.Time             `json:"timestamp"`
	Narrative         string                `json:"narrative"`
	Options           NextOptions           `json:"options"`
	Outcome           *Outcome              `json:"outcome,omitempty"`
	Timeline          []TimelineSlot        `json:"timeline,omitempty"`
	XPGain            int                   `json:"xp_gain"`
	AttributeFocus    AttributeKey          `json:"attribute_focus,omitempty"`
	MatchStats        *MatchStats           `json:"match_stats,omitempty"`
	AttributeImproved *AttributeImprovement `json:"attribute_improved,omitempty"`
}

// GameResponse is the engine's sole output contract toward the UI. All fields
// are always present; zero values mean "nothing happened on this path".
type GameResponse struct {
	Narrative         string                `json:"narrative"`
	NextOptions       NextOptions           `json:"next_options"`
	Outcome           *Outcome              `json:"outcome"`
	Timeline          []TimelineSlot        `json:"timeline"`
	MatchStats        MatchStats            `json:"match_stats"`
	XPGain            int                   `json:"xp_gain"`
	AttributeFocus    AttributeKey          `json:"attribute_focus"`
	AttributeImproved *AttributeImprovement `json:"attribute_improved"`
	FollowerDelta     int                   `json:"follower_delta"`
	Milestone         string                `json:"milestone,omitempty"`
}

// ChatMessage is one message of a completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions tune a single completion call
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Completion is the text returned by the completion service
type Completion struct {
	Content string `json:"content"`
}

// Team is a club row from the team directory
type Team struct {
	Name     string `json:"name" db:"name"`
	Division string `json:"division" db:"division"`
	Country  string `json:"country" db:"country"`
	Tier     string `json:"tier" db:"tier"`
}
