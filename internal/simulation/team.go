package simulation

import (
	"math"
	"sort"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
)

// Side fixes which goal a team defends. Left defends -x and attacks +x.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

func (s Side) Valid() bool { return s == SideLeft || s == SideRight }

// Team owns its robots. Cross references such as the goalie are plain ids.
type Team struct {
	ID      int
	Name    string
	Side    Side
	MaxSize int

	template config.Robot
	robots   map[int]*Robot
	goalie   int
	hasGK    bool
	nextID   int
}

// NewTeam builds an empty roster whose robots take their limits from tmpl.
func NewTeam(id int, name string, side Side, maxSize int, tmpl config.Robot) *Team {
	return &Team{
		ID:       id,
		Name:     name,
		Side:     side,
		MaxSize:  maxSize,
		template: tmpl,
		robots:   make(map[int]*Robot),
		nextID:   1,
	}
}

// AttackSign is +1 for the left team and -1 for the right team.
func (t *Team) AttackSign() float64 {
	if t.Side == SideLeft {
		return 1
	}
	return -1
}

func (t *Team) OwnGoalX(halfW float64) float64      { return -t.AttackSign() * halfW }
func (t *Team) OpponentGoalX(halfW float64) float64 { return t.AttackSign() * halfW }

func (t *Team) newRobot(id int) *Robot {
	return &Robot{
		ID:       id,
		TeamID:   t.ID,
		SideLen:  t.template.SideLen,
		MaxSpeed: t.template.MaxSpeed,
		MaxOmega: t.template.MaxOmega,
		MaxAccel: t.template.MaxAccel,
		MaxAlpha: t.template.MaxAlpha,
		TauV:     t.template.TauV,
		TauW:     t.template.TauW,
		Active:   true,
	}
}

// AddRobot creates a robot with the next free id.
func (t *Team) AddRobot() *Robot {
	id := t.nextID
	return t.AddRobotWithID(id)
}

// AddRobotWithID inserts a robot under id, replacing any robot already there.
// The first robot added becomes goalie.
func (t *Team) AddRobotWithID(id int) *Robot {
	r := t.newRobot(id)
	t.robots[id] = r
	if id >= t.nextID {
		t.nextID = id + 1
	}
	if !t.hasGK {
		t.goalie, t.hasGK = id, true
	}
	return r
}

// RemoveRobot drops id. A removed goalie is replaced by the lowest remaining id.
func (t *Team) RemoveRobot(id int) {
	if _, ok := t.robots[id]; !ok {
		return
	}
	delete(t.robots, id)
	if t.hasGK && t.goalie == id {
		t.hasGK = false
		if ids := t.IDs(); len(ids) > 0 {
			t.goalie, t.hasGK = ids[0], true
		}
	}
}

// Get returns nil for an unknown id.
func (t *Team) Get(id int) *Robot {
	return t.robots[id]
}

func (t *Team) Len() int { return len(t.robots) }

// IDs returns the roster ids in ascending order.
func (t *Team) IDs() []int {
	ids := make([]int, 0, len(t.robots))
	for id := range t.robots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Robots returns the roster in id order.
func (t *Team) Robots() []*Robot {
	ids := t.IDs()
	out := make([]*Robot, len(ids))
	for i, id := range ids {
		out[i] = t.robots[id]
	}
	return out
}

func (t *Team) ActiveRobots() []*Robot {
	out := make([]*Robot, 0, len(t.robots))
	for _, r := range t.Robots() {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

func (t *Team) SetActive(id int, active bool) {
	if r := t.robots[id]; r != nil {
		r.Active = active
	}
}

func (t *Team) GoalieID() (int, bool) { return t.goalie, t.hasGK }

func (t *Team) SetGoalie(id int) {
	if _, ok := t.robots[id]; ok {
		t.goalie, t.hasGK = id, true
	}
}

func (t *Team) Update(dt float64) {
	for _, r := range t.Robots() {
		r.Update(dt)
	}
}

// CenterOfMass is the mean position of the whole roster, or the origin when empty.
func (t *Team) CenterOfMass() geom.Vec2 {
	if len(t.robots) == 0 {
		return geom.Vec2{}
	}
	var sum geom.Vec2
	for _, r := range t.robots {
		sum = sum.Add(r.Pos())
	}
	return sum.Scale(1 / float64(len(t.robots)))
}

// NearestRobotTo returns the closest robot to p, lowest id on ties.
func (t *Team) NearestRobotTo(p geom.Vec2, activeOnly bool) *Robot {
	var best *Robot
	bestD2 := math.Inf(1)
	for _, r := range t.Robots() {
		if activeOnly && !r.Active {
			continue
		}
		d := r.Pos().Sub(p)
		if d2 := d.Dot(d); d2 < bestD2 {
			bestD2 = d2
			best = r
		}
	}
	return best
}

// EnsureSize grows or shrinks the roster to n robots (at least one). Highest
// ids are removed first.
func (t *Team) EnsureSize(n int) {
	if n < 1 {
		n = 1
	}
	for len(t.robots) < n {
		t.AddRobot()
	}
	if extra := len(t.robots) - n; extra > 0 {
		ids := t.IDs()
		for i := len(ids) - 1; i >= len(ids)-extra; i-- {
			t.RemoveRobot(ids[i])
		}
	}
}

const kickoffGoalMargin = 0.5

// KickoffSlots returns the default kickoff layout for n robots in the team's
// own half: goalie, defender, two wide midfielders, forward, then extra
// players spread around the midfield line.
func (t *Team) KickoffSlots(n int, fieldW, fieldH float64) []geom.Vec2 {
	halfW, halfH := fieldW/2, fieldH/2
	s := t.AttackSign()
	xMid := -s * 3.0
	base := []geom.Vec2{
		{X: -s * (halfW - kickoffGoalMargin), Y: 0},
		{X: -s * 6.0, Y: 0},
		{X: xMid, Y: 2.0},
		{X: xMid, Y: -2.0},
		{X: -s * 1.0, Y: 0},
	}
	if n <= len(base) {
		return base[:max(n, 0)]
	}
	out := append([]geom.Vec2(nil), base...)
	extra := n - len(base)
	yMax := halfH - 0.5
	step := math.Max(1.0, yMax/float64(extra+1))
	for i := 0; i < extra; i++ {
		sign := 1.0
		if i%2 == 1 {
			sign = -1
		}
		out = append(out, geom.Vec2{X: xMid, Y: float64(i+1) * step * sign})
	}
	return out
}

// AutoPositionKickoff places every robot on its kickoff slot facing the
// opponent goal with zero velocity and command. The goalie takes the first
// slot. An empty roster is filled to MaxSize first.
func (t *Team) AutoPositionKickoff(fieldW, fieldH float64) {
	if len(t.robots) == 0 {
		t.EnsureSize(t.MaxSize)
	}
	order := t.Robots()
	if t.hasGK {
		sort.SliceStable(order, func(i, j int) bool {
			gi, gj := order[i].ID == t.goalie, order[j].ID == t.goalie
			if gi != gj {
				return gi
			}
			return order[i].ID < order[j].ID
		})
	} else if len(order) > 0 {
		t.goalie, t.hasGK = order[0].ID, true
	}

	halfW, halfH := fieldW/2, fieldH/2
	face := 0.0
	if t.AttackSign() < 0 {
		face = math.Pi
	}
	slots := t.KickoffSlots(len(order), fieldW, fieldH)
	for i, r := range order {
		p := slots[i]
		x := geom.Clamp(p.X, -halfW+0.1, halfW-0.1)
		y := geom.Clamp(p.Y, -halfH+0.1, halfH-0.1)
		r.SetPose(x, y, face)
		r.SetVel(0, 0, 0)
		r.Stop()
	}
}
