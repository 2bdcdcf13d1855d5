package logic

import (
	"errors"
	"fmt"
	"time"
)

// DefaultDecayInterval is how often passive decay runs.
const DefaultDecayInterval = 60 * time.Second

// PetStats is the companion's stat vector. Every field stays in [0,100].
type PetStats struct {
	Happiness int `json:"happiness"`
	Hunger    int `json:"hunger"`
	Energy    int `json:"energy"`
	Health    int `json:"health"`
}

// DefaultPetStats are the starting stats of a new session.
var DefaultPetStats = PetStats{Happiness: 70, Hunger: 40, Energy: 70, Health: 80}

// Clamp returns s with every field limited to [0,100].
func (s PetStats) Clamp() PetStats {
	return PetStats{
		Happiness: clamp(s.Happiness),
		Hunger:    clamp(s.Hunger),
		Energy:    clamp(s.Energy),
		Health:    clamp(s.Health),
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// PetState is the visual/behavioral classification of the stats.
type PetState string

const (
	PetCritical   PetState = "critical"
	PetFrustrated PetState = "frustrated"
	PetAnxious    PetState = "anxious"
	PetSad        PetState = "sad"
	PetExcited    PetState = "excited"
	PetHappy      PetState = "happy"
	PetNeutral    PetState = "neutral"
)

// Visual returns the artwork shown for the state. Critical reuses the sad art.
func (s PetState) Visual() string {
	if s == PetCritical {
		return string(PetSad)
	}
	return string(s)
}

type petRule struct {
	name  string
	when  func(PetStats) bool
	state PetState
}

// petRules are evaluated top to bottom; the first match wins. Several
// predicates can hold at once, so the order is significant. High hunger
// doubles as a frustration signal here, on purpose.
var petRules = []petRule{
	{"critical health", func(s PetStats) bool { return s.Health <= 20 }, PetCritical},
	{"hungry and unhappy", func(s PetStats) bool { return s.Hunger > 75 && s.Happiness < 50 }, PetFrustrated},
	{"very low energy", func(s PetStats) bool { return s.Energy < 25 }, PetAnxious},
	{"low happiness", func(s PetStats) bool { return s.Happiness < 40 && s.Hunger < 60 }, PetSad},
	{"thriving", func(s PetStats) bool { return s.Happiness >= 80 && s.Hunger < 30 && s.Energy > 70 }, PetExcited},
	{"good stats", func(s PetStats) bool { return s.Happiness >= 60 && s.Hunger < 50 }, PetHappy},
	{"moderate concerns", func(s PetStats) bool { return s.Energy < 50 || s.Hunger > 50 }, PetNeutral},
}

// Classify returns the state of the first matching rule, or happy.
func Classify(s PetStats) PetState {
	for _, r := range petRules {
		if r.when(s) {
			return r.state
		}
	}
	return PetHappy
}

// PetTitle is the headline shown above the companion.
func PetTitle(s PetStats) string {
	switch {
	case s.Health < 20:
		return "Buddy is in critical condition! ❤️‍🩹"
	case s.Hunger > 90:
		return "Buddy is starving! 🍎"
	case s.Energy < 10:
		return "Buddy is exhausted! 😴"
	case s.Hunger > 75 && s.Happiness < 50:
		return "Buddy is frustrated! 😤"
	case s.Energy < 25:
		return "Buddy is anxious 😰"
	case s.Happiness < 40:
		return "Buddy is sad 😢"
	case s.Happiness >= 80 && s.Hunger < 30 && s.Energy > 70:
		return "Buddy is thriving! 🌟"
	case s.Happiness >= 60:
		return "Buddy is happy! 😊"
	default:
		return "Buddy is doing okay 😌"
	}
}

// moodTarget is the stat reset for a pet class. Health is a delta.
type moodTarget struct {
	happiness, hunger, energy int
	healthDelta              int
}

func targetFor(c PetClass) moodTarget {
	switch c {
	case PetClassExcited:
		return moodTarget{95, 20, 90, +10}
	case PetClassHappy:
		return moodTarget{75, 35, 70, +5}
	case PetClassSad:
		return moodTarget{20, 35, 40, -5}
	case PetClassAnxious:
		return moodTarget{40, 50, 20, -3}
	case PetClassFrustrated:
		return moodTarget{30, 85, 40, -5}
	default:
		return moodTarget{55, 45, 55, 0}
	}
}

// Decay amounts and health penalty thresholds.
const (
	decayHappiness = 2
	decayEnergy    = 2
	decayHunger    = 3

	penaltyHungerAbove    = 80
	penaltyHunger         = 2
	penaltyEnergyBelow    = 20
	penaltyEnergy         = 2
	penaltyHappinessBelow = 30
	penaltyHappiness      = 1
)

// PetAction is a discrete user interaction with the companion.
type PetAction string

const (
	ActionFeed PetAction = "feed"
	ActionPlay PetAction = "play"
	ActionPet  PetAction = "pet"
	ActionRest PetAction = "rest"
)

// AllPetActions lists the supported actions.
var AllPetActions = []PetAction{ActionFeed, ActionPlay, ActionPet, ActionRest}

// ErrUnknownAction is returned for an action that is not in AllPetActions.
var ErrUnknownAction = errors.New("unknown pet action")

// ActionResult is the outcome of a pet action. A failed precondition is a
// no-op with OK false and its own message.
type ActionResult struct {
	Action  PetAction
	OK      bool
	Message string
	Stats   PetStats
}

// Pet simulates the companion's stats.
// Not safe for concurrent use; the session serializes calls.
type Pet struct {
	stats PetStats
}

// NewPet creates a pet with the given starting stats.
func NewPet(start PetStats) *Pet {
	return &Pet{stats: start.Clamp()}
}

// Stats returns the current stats.
func (p *Pet) Stats() PetStats {
	return p.stats
}

// Snapshot returns stats, state and title together.
func (p *Pet) Snapshot() PetSnapshot {
	return PetSnapshot{Stats: p.stats, State: Classify(p.stats), Title: PetTitle(p.stats)}
}

// ApplyMood resets happiness, hunger and energy to the class targets and
// applies the class's health delta.
func (p *Pet) ApplyMood(c PetClass) PetStats {
	t := targetFor(c)
	p.stats = PetStats{
		Happiness: t.happiness,
		Hunger:    t.hunger,
		Energy:    t.energy,
		Health:    p.stats.Health + t.healthDelta,
	}.Clamp()
	return p.stats
}

// Decay runs one passive tick. Health penalties are judged on the stats
// before the tick.
func (p *Pet) Decay() PetStats {
	prev := p.stats
	next := PetStats{
		Happiness: prev.Happiness - decayHappiness,
		Hunger:    prev.Hunger + decayHunger,
		Energy:    prev.Energy - decayEnergy,
		Health:    prev.Health,
	}
	if prev.Hunger > penaltyHungerAbove {
		next.Health -= penaltyHunger
	}
	if prev.Energy < penaltyEnergyBelow {
		next.Health -= penaltyEnergy
	}
	if prev.Happiness < penaltyHappinessBelow {
		next.Health -= penaltyHappiness
	}
	p.stats = next.Clamp()
	return p.stats
}

// Do applies a user action if its preconditions hold.
func (p *Pet) Do(a PetAction) (ActionResult, error) {
	s := p.stats
	res := ActionResult{Action: a}
	switch a {
	case ActionFeed:
		if s.Hunger < 10 {
			res.Message = "🍎 Buddy is already full!"
			break
		}
		s.Hunger -= 40
		s.Happiness += 10
		s.Health += 5
		res.OK, res.Message = true, "🍎 Yum! Buddy feels much better!"
	case ActionPlay:
		if s.Energy < 20 {
			res.Message = "😴 Buddy is too tired to play!"
			break
		}
		if s.Hunger > 80 {
			res.Message = "🍎 Buddy is too hungry to play!"
			break
		}
		s.Happiness += 25
		s.Energy -= 25
		s.Hunger += 15
		s.Health += 3
		res.OK, res.Message = true, "🎾 Buddy had an amazing time playing!"
	case ActionPet:
		s.Happiness += 8
		s.Health += 2
		res.OK, res.Message = true, "🖐️ Buddy loves your affection!"
	case ActionRest:
		if s.Energy > 90 {
			res.Message = "😊 Buddy is full of energy!"
			break
		}
		s.Energy += 40
		s.Happiness += 8
		s.Health += 5
		s.Hunger += 10
		res.OK, res.Message = true, "😴 Buddy had a wonderful nap!"
	default:
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	if res.OK {
		p.stats = s.Clamp()
	}
	res.Stats = p.stats
	return res, nil
}

// ParsePetAction converts a string into a PetAction.
func ParsePetAction(s string) (PetAction, error) {
	for _, a := range AllPetActions {
		if PetAction(s) == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
