package career

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/user/campo-8bit/internal/types"
)

const (
	// SlotsPerDay is the fixed length of the daily schedule
	SlotsPerDay = 4

	// WeeksPerSeason is the length of the season timeline
	WeeksPerSeason = 52
)

// Errors returned on timeline misuse. Both indicate an inconsistency between
// the choice log and the timeline, which is a programming error upstream.
var (
	ErrSlotOutOfRange = errors.New("timeline slot out of range")
	ErrSlotOutOfOrder = errors.New("previous timeline slot not resolved")
	ErrSlotAlreadySet = errors.New("timeline slot already resolved")
)

// TimelineTracker generates and advances the daily and weekly schedules
type TimelineTracker struct {
	rng *rand.Rand
}

// NewTimelineTracker creates a tracker with a seeded random number generator
func NewTimelineTracker() *TimelineTracker {
	return &TimelineTracker{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewTimelineTrackerWithSource creates a tracker with a fixed random source
func NewTimelineTrackerWithSource(src rand.Source) *TimelineTracker {
	return &TimelineTracker{rng: rand.New(src)}
}

// GenerateDay returns the fixed 4-slot daily schedule, all unresolved.
// Slot 2 is a press conference about 40% of the time, a social live otherwise.
func (t *TimelineTracker) GenerateDay() []types.TimelineSlot {
	second := types.SlotLiveRedes
	if t.rng.Float64() < 0.40 {
		second = types.SlotColetivaImprensa
	}

	return []types.TimelineSlot{
		{Slot: 1, Type: types.SlotTreinoTecnico},
		{Slot: 2, Type: second},
		{Slot: 3, Type: types.SlotTalkLockerRoom},
		{Slot: 4, Type: types.SlotMicro, SubType: types.SubtypeAtaqueFranco},
	}
}

// GenerateWeek returns the 52-slot season schedule, all unresolved
func (t *TimelineTracker) GenerateWeek() []types.TimelineSlot {
	slots := make([]types.TimelineSlot, WeeksPerSeason)
	for i := range slots {
		slots[i] = types.TimelineSlot{Slot: i + 1, Type: types.SlotWeek}
	}
	return slots
}

// ApplyChoice records a choice and its resolved outcome on the given slot
// (1-based). Slots must be filled strictly in order; violations are rejected
// instead of silently ignored.
func ApplyChoice(timeline []types.TimelineSlot, slotIndex int, choice string, outcome types.OutcomeType) error {
	if slotIndex < 1 || slotIndex > len(timeline) {
		return fmt.Errorf("%w: slot %d of %d", ErrSlotOutOfRange, slotIndex, len(timeline))
	}

	if timeline[slotIndex-1].Resolved() {
		return fmt.Errorf("%w: slot %d", ErrSlotAlreadySet, slotIndex)
	}

	if slotIndex > 1 && !timeline[slotIndex-2].Resolved() {
		return fmt.Errorf("%w: slot %d requires slot %d", ErrSlotOutOfOrder, slotIndex, slotIndex-1)
	}

	timeline[slotIndex-1].Choice = choice
	timeline[slotIndex-1].Result = string(outcome)
	return nil
}

// CurrentSlot maps the number of choices made today to the active slot
// (1-based). Once the day is full the pointer saturates at the last slot;
// day rollover is triggered explicitly by the engine, not here.
func CurrentSlot(choiceCount int) int {
	if choiceCount >= SlotsPerDay {
		return SlotsPerDay
	}
	return choiceCount + 1
}

// DayComplete reports whether all slots of the day are resolved
func DayComplete(timeline []types.TimelineSlot) bool {
	for _, slot := range timeline {
		if !slot.Resolved() {
			return false
		}
	}
	return len(timeline) > 0
}

// NextUnresolved returns the 1-based index of the first unresolved slot, or 0
// when the timeline is fully resolved.
func NextUnresolved(timeline []types.TimelineSlot) int {
	for i, slot := range timeline {
		if !slot.Resolved() {
			return i + 1
		}
	}
	return 0
}
