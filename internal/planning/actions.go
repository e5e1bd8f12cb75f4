package planning

import (
	"math"

	"robosoccer/internal/geom"
)

// ActionKind enumerates long actions, instant subtypes and positioning roles.
type ActionKind int

const (
	ActionNone ActionKind = iota
	MovingWithBall
	TryToShoot
	TryToPass
	TryToDeepPass
	TryToDribble
	Positioning
	PositioningPlayingBall
	PositioningAssist
	PositioningDefense
	PositioningStrategyFixed
	GoalKeeping
	Goto
	SeekBall
)

var kindNames = [...]string{
	ActionNone:               "None",
	MovingWithBall:           "MovingWithBall",
	TryToShoot:               "TryToShoot",
	TryToPass:                "TryToPass",
	TryToDeepPass:            "TryToDeepPass",
	TryToDribble:             "TryToDribble",
	Positioning:              "Positioning",
	PositioningPlayingBall:   "PositioningPlayingBall",
	PositioningAssist:        "PositioningAssist",
	PositioningDefense:       "PositioningDefense",
	PositioningStrategyFixed: "PositioningStrategyFixed",
	GoalKeeping:              "GoalKeeping",
	Goto:                     "Goto",
	SeekBall:                 "SeekBall",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// InstantActions are the subtypes a ball holder can pick from, in the order
// they are sampled.
var InstantActions = []ActionKind{TryToShoot, TryToPass, TryToDeepPass, TryToDribble}

// ActionSet is a small bitmask of action kinds.
type ActionSet uint32

func NewActionSet(kinds ...ActionKind) ActionSet {
	var s ActionSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

// AllInstantActions allows every holder subtype.
var AllInstantActions = NewActionSet(InstantActions...)

func (s ActionSet) Has(k ActionKind) bool { return s&(1<<uint(k)) != 0 }

// Candidate is a sampled location. IsTracked marks the point carried over
// from the previously chosen action.
type Candidate struct {
	Pose      geom.Pose
	IsTracked bool
}

// probFloor keeps zero-probability candidates from winning on raw reward.
const probFloor = 1e-3

// ActionQValue is one scored option for a robot. Location is where the robot
// should stand (and face) to execute; Target is the pass receiver or receive
// point when the action has one.
type ActionQValue struct {
	RobotID     int
	Kind        ActionKind
	Subtype     ActionKind
	Reward      float64
	Probability float64
	Location    geom.Pose
	Target      *geom.Pose
	IsTracked   bool
}

// Score is the selection value reward × max(ε, probability).
func (a ActionQValue) Score() float64 {
	return a.Reward * math.Max(probFloor, a.Probability)
}

// ChooseBest returns the highest scoring action. Ties keep the earliest.
func ChooseBest(actions []ActionQValue) (ActionQValue, bool) {
	if len(actions) == 0 {
		return ActionQValue{}, false
	}
	best := actions[0]
	bestScore := best.Score()
	for _, a := range actions[1:] {
		if s := a.Score(); s > bestScore {
			best, bestScore = a, s
		}
	}
	return best, true
}
