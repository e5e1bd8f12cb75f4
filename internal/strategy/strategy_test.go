package strategy

import (
	"math"
	"testing"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
	"robosoccer/internal/planning"
	"robosoccer/internal/shared/rng"
	"robosoccer/internal/simulation"
)

// emptyWorld returns a world without robots; tests place what they need.
func emptyWorld(t *testing.T) *simulation.World {
	t.Helper()
	cfg := config.Defaults()
	cfg.Match.TeamSize = 1
	w, err := simulation.NewWorld(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	for _, tm := range w.Teams() {
		for _, id := range tm.IDs() {
			tm.RemoveRobot(id)
		}
	}
	return w
}

func newPlanner(side simulation.Side) *Planner {
	return NewPlanner(side, config.Defaults(), rng.New(11))
}

func TestDistortedTheoreticalXY(t *testing.T) {
	w := emptyWorld(t)
	left := w.TeamOf(simulation.SideLeft)
	right := w.TeamOf(simulation.SideRight)

	p := DistortedTheoreticalXY(w, left, geom.Vec2{X: 10.9, Y: 6})
	if p.X != 10.5 {
		t.Fatalf("expected x clamped to 10.5, got=%v", p.X)
	}
	wantY := (1 - 0.35*(21.9/22)) * 6.5
	if math.Abs(p.Y-wantY) > 1e-12 {
		t.Fatalf("expected y=%v, got=%v", wantY, p.Y)
	}
	// the same point is the right team's own end: y stays
	p = DistortedTheoreticalXY(w, right, geom.Vec2{X: 10.9, Y: 6})
	if p.Y != 6 {
		t.Fatalf("expected no compression in own end, got=%v", p.Y)
	}
}

func TestKickoffRestricted(t *testing.T) {
	w := emptyWorld(t)
	left := w.TeamOf(simulation.SideLeft)
	right := w.TeamOf(simulation.SideRight)

	if p := KickoffRestricted(w, left, geom.Vec2{X: 3, Y: 2}); p.X != 0 || p.Y != 2 {
		t.Fatalf("expected left target held at x<=0 while stopped, got=%+v", p)
	}
	if p := KickoffRestricted(w, right, geom.Vec2{X: -3, Y: 2}); p.X != 0 {
		t.Fatalf("expected right target held at x>=0 while stopped, got=%+v", p)
	}

	w.SetKickoff(simulation.SideRight)
	p := KickoffRestricted(w, left, geom.Vec2{X: -0.5})
	if math.Abs(p.X+1) > 1e-12 || math.Abs(p.Y) > 1e-12 {
		t.Fatalf("expected target pushed to the centre circle, got=%+v", p)
	}

	w.Start()
	if p := KickoffRestricted(w, left, geom.Vec2{X: 3, Y: 0.2}); p.X != 3 || p.Y != 0.2 {
		t.Fatalf("expected no restriction while playing, got=%+v", p)
	}
}

func TestBehaviorTimeout(t *testing.T) {
	w := emptyWorld(t)
	r := w.PlaceRobot(simulation.SideLeft, 1, 0, 0, 0)
	b := GotoBehavior(geom.Vec2{X: 5}, 1)
	b.MaxTime = 0.1
	tm := w.TeamOf(simulation.SideLeft)
	if st := b.Tick(w, tm, r, 0.06); st != Running {
		t.Fatalf("expected running, got=%v", st)
	}
	if st := b.Tick(w, tm, r, 0.06); st != Failure {
		t.Fatalf("expected failure after max time, got=%v", st)
	}
	b.Reset()
	if st := b.Tick(w, tm, r, 0.06); st != Running || b.Elapsed() != 0.06 {
		t.Fatalf("expected fresh start after reset, got=%v elapsed=%v", st, b.Elapsed())
	}
}

func TestGoalKeepingTracksBallInsideMouth(t *testing.T) {
	w := emptyWorld(t)
	r := w.PlaceRobot(simulation.SideLeft, 1, -8, 0, 0)
	w.PlaceBall(0, 5, 0, 0)
	b := GoalKeepingBehavior()
	b.Tick(w, w.TeamOf(simulation.SideLeft), r, 0)
	dir := geom.Vec2{X: r.DesiredVX, Y: r.DesiredVY}
	want := r.Pos().AngleTo(geom.Vec2{X: -10.6, Y: 1.2})
	if geom.AngleDiff(dir.Angle(), want) > 1e-9 {
		t.Fatalf("expected keeper heading to the post, got=%v want=%v", dir.Angle(), want)
	}

	r.SetPose(-10.6, 1.15, 0)
	if st := b.Tick(w, w.TeamOf(simulation.SideLeft), r, 0); st != Success {
		t.Fatalf("expected success in position, got=%v", st)
	}
}

func TestSeekBallSucceedsInFrontCone(t *testing.T) {
	w := emptyWorld(t)
	r := w.PlaceRobot(simulation.SideLeft, 1, 0, 0, 0)
	w.PlaceBall(0.3, 0, 0, 0)
	b := SeekBallBehavior()
	if st := b.Tick(w, w.TeamOf(simulation.SideLeft), r, 0); st != Success {
		t.Fatalf("expected capture success, got=%v", st)
	}
	if r.HasBall {
		t.Fatalf("seek must not write possession")
	}
	w.PlaceBall(-0.3, 0, 0, 0)
	if st := b.Tick(w, w.TeamOf(simulation.SideLeft), r, 0); st != Running {
		t.Fatalf("expected running with ball behind, got=%v", st)
	}
}

func TestDefenseModeRoles(t *testing.T) {
	w := emptyWorld(t)
	w.PlaceRobot(simulation.SideLeft, 1, -10, 0, 0)
	w.PlaceRobot(simulation.SideLeft, 2, 2, 0, 0)
	w.PlaceRobot(simulation.SideLeft, 3, -3, 3, 0)
	w.PlaceRobot(simulation.SideLeft, 4, -4, -3, 0)
	opp := w.PlaceRobot(simulation.SideRight, 1, 4, 0, math.Pi)
	w.PlaceBall(3, 0, 0, 0)

	p := newPlanner(simulation.SideLeft)
	p.Decide(w)

	tm := w.TeamOf(simulation.SideLeft)
	want := map[int]string{1: "GoalKeeping", 2: "SeekBall", 3: "PositioningDefense", 4: "PositioningDefense"}
	for id, label := range want {
		if got := tm.Get(id).Action; got != label {
			t.Fatalf("robot %d: expected %s, got=%s", id, label, got)
		}
	}
	if gk, ok := p.Goalie(); !ok || gk != 1 {
		t.Fatalf("expected robot 1 as goalie, got=%v", gk)
	}
	if d := p.roles[3].defense.Depth; d != looseBallDepth {
		t.Fatalf("expected loose-ball depth %v, got=%v", looseBallDepth, d)
	}

	opp.HasBall = true
	p.Decide(w)
	if d := p.roles[3].defense.Depth; d != defenseDepth {
		t.Fatalf("expected deeper cover when opponent holds, got=%v", d)
	}
}

func TestDecideLeavesRosterGoalieAlone(t *testing.T) {
	w := emptyWorld(t)
	w.PlaceRobot(simulation.SideLeft, 1, -10, 0, 0)
	w.PlaceRobot(simulation.SideLeft, 2, 1, 0, 0)
	w.PlaceBall(4, 2, 0, 0)
	tm := w.TeamOf(simulation.SideLeft)
	tm.SetGoalie(2)

	p := newPlanner(simulation.SideLeft)
	p.Decide(w)

	if gk, _ := tm.GoalieID(); gk != 2 {
		t.Fatalf("expected roster goalie untouched, got=%d", gk)
	}
	if gk, ok := p.Goalie(); !ok || gk != 1 {
		t.Fatalf("expected planner to keep robot 1 in goal, got=%d ok=%v", gk, ok)
	}
	if got := tm.Get(1).Action; got != "GoalKeeping" {
		t.Fatalf("expected robot 1 to keep goal, got=%s", got)
	}
}

func TestAttackModeRoles(t *testing.T) {
	w := emptyWorld(t)
	w.PlaceRobot(simulation.SideLeft, 1, -10, 0, 0)
	holder := w.PlaceRobot(simulation.SideLeft, 2, 0, 0, 0)
	holder.HasBall = true
	w.PlaceRobot(simulation.SideLeft, 3, -2, 2, 0)
	w.PlaceRobot(simulation.SideLeft, 4, -2, -2, 0)
	w.PlaceRobot(simulation.SideLeft, 5, -3, 4, 0)
	w.PlaceRobot(simulation.SideLeft, 6, -3, -4, 0)
	w.PlaceRobot(simulation.SideRight, 1, 9, 0, math.Pi)

	p := newPlanner(simulation.SideLeft)
	p.Decide(w)

	tm := w.TeamOf(simulation.SideLeft)
	want := map[int]string{
		1: "GoalKeeping",
		3: "PositioningPlayingBall",
		4: "PositioningAssist",
		5: "PositioningAssist",
		6: "PositioningDefense",
	}
	for id, label := range want {
		if got := tm.Get(id).Action; got != label {
			t.Fatalf("robot %d: expected %s, got=%s", id, label, got)
		}
	}
	if holder.Action == "" {
		t.Fatalf("expected a holder action label")
	}
}

func TestHolderRespectsAllowedAndShoots(t *testing.T) {
	w := emptyWorld(t)
	w.Start()
	r := w.PlaceRobot(simulation.SideLeft, 1, 9.5, 0, -0.5)
	r.HasBall = true

	p := newPlanner(simulation.SideLeft)
	p.Allowed[1] = planning.NewActionSet(planning.TryToShoot)
	p.Memory().Set(planning.ActionQValue{RobotID: 1, Subtype: planning.TryToShoot, Location: r.Pose()})
	p.Decide(w)

	if r.Action != "TryToShoot" {
		t.Fatalf("expected TryToShoot, got=%s", r.Action)
	}
	if _, ok := p.Memory().Get(1, planning.TryToShoot); !ok {
		t.Fatalf("expected chosen action remembered")
	}
	if r.HasBall || w.KickCooldown() <= 0 {
		t.Fatalf("expected the shot to release the ball")
	}
	v := w.Ball.Vel()
	want := w.Ball.Pos().AngleTo(geom.Vec2{X: w.HalfW()})
	if geom.AngleDiff(v.Angle(), want) > 1e-9 {
		t.Fatalf("expected ball toward goal centre, got=%v want=%v", v.Angle(), want)
	}
}

func TestFallbackWithoutCandidates(t *testing.T) {
	w := emptyWorld(t)
	// own half: every shot scores zero, and nothing else is allowed
	r := w.PlaceRobot(simulation.SideLeft, 1, -9, 0, 0)
	r.HasBall = true
	p := newPlanner(simulation.SideLeft)
	p.Allowed[1] = planning.NewActionSet(planning.TryToPass)
	p.Decide(w)
	if r.Action != "FallbackDribble" {
		t.Fatalf("expected fallback, got=%s", r.Action)
	}
	if r.DesiredVX <= 0 {
		t.Fatalf("expected drift toward opponent goal, got vx=%v", r.DesiredVX)
	}
}

func TestPlannerPrunesRemovedRobots(t *testing.T) {
	w := emptyWorld(t)
	w.PlaceRobot(simulation.SideLeft, 1, -10, 0, 0)
	w.PlaceRobot(simulation.SideLeft, 2, 0, 0, 0)
	p := newPlanner(simulation.SideLeft)
	p.Memory().Set(planning.ActionQValue{RobotID: 2, Subtype: planning.TryToPass})
	p.Decide(w)
	if _, ok := p.roles[2]; !ok {
		t.Fatalf("expected role state for robot 2")
	}

	w.TeamOf(simulation.SideLeft).RemoveRobot(2)
	p.Decide(w)
	if _, ok := p.roles[2]; ok {
		t.Fatalf("expected role state dropped")
	}
	if _, ok := p.Memory().Get(2, planning.TryToPass); ok {
		t.Fatalf("expected memory dropped")
	}
}

func TestDecideEmptyTeamIsNoop(t *testing.T) {
	w := emptyWorld(t)
	p := newPlanner(simulation.SideRight)
	p.Decide(w)
	if len(p.roles) != 0 {
		t.Fatalf("expected no role state, got=%d", len(p.roles))
	}
}
