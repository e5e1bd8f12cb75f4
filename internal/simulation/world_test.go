package simulation

import (
	"math"
	"testing"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
)

const dt = 0.05

// newTestWorld builds a world with one robot per side parked far from the
// centre so tests can place what they need around the origin.
func newTestWorld(t *testing.T, mutate func(*config.Config)) *World {
	t.Helper()
	cfg := config.Defaults()
	cfg.Match.TeamSize = 1
	if mutate != nil {
		mutate(&cfg)
	}
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	w.PlaceRobot(SideLeft, 1, -8, -5, 0)
	w.PlaceRobot(SideRight, 1, 8, 5, math.Pi)
	return w
}

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Field.Width = -22
	if _, err := NewWorld(cfg); err == nil {
		t.Fatalf("expected invalid field to be rejected")
	}
}

func TestNewWorldStartsInKickoffFormation(t *testing.T) {
	w, err := NewWorld(config.Defaults())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if w.State() != StateStopped {
		t.Fatalf("expected stopped, got=%s", w.State())
	}
	if w.Left.Len() != 5 || w.Right.Len() != 5 {
		t.Fatalf("expected 5v5, got=%d v %d", w.Left.Len(), w.Right.Len())
	}
	for _, r := range w.Left.Robots() {
		if r.X > 0 {
			t.Fatalf("left robot %d outside own half: %+v", r.ID, r.Pose())
		}
	}
	for _, r := range w.Right.Robots() {
		if r.X < 0 || r.Theta != math.Pi {
			t.Fatalf("right robot %d misplaced: %+v", r.ID, r.Pose())
		}
	}
}

func TestUpdateIgnoresNonPositiveDt(t *testing.T) {
	w := newTestWorld(t, nil)
	w.PlaceBall(1, 1, 2, 0)
	w.Update(0)
	w.Update(-1)
	if w.Time() != 0 || w.Tick() != 0 || w.Ball.X != 1 {
		t.Fatalf("expected no-op, got t=%v tick=%d ball=%+v", w.Time(), w.Tick(), w.Ball.Pos())
	}
}

func TestHaltFreezesLogic(t *testing.T) {
	w := newTestWorld(t, nil)
	w.PlaceBall(1, 1, 2, 0)
	w.Halt()
	w.Update(dt)
	if w.Ball.X != 1 || w.Time() != 0 {
		t.Fatalf("expected halt to freeze the ball, got=%+v t=%v", w.Ball.Pos(), w.Time())
	}
}

func TestGoalScoredAwardsKickoffToConcedingSide(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Start()
	w.PlaceBall(3, 2, 1, 1)

	w.GoalScored(SideLeft)
	if got := w.Score(); got.Left != 1 || got.Right != 0 {
		t.Fatalf("expected left to score, got=%+v", got)
	}
	if w.State() != StateKickoffRight {
		t.Fatalf("expected kickoff_right, got=%s", w.State())
	}
	if w.Ball.X != 0 || w.Ball.Y != 0 || w.Ball.Speed() != 0 {
		t.Fatalf("expected ball reset to centre, got pos=%+v vel=%+v", w.Ball.Pos(), w.Ball.Vel())
	}

	w.GoalScored(SideRight)
	if got := w.Score(); got.Right != 1 || w.State() != StateKickoffLeft {
		t.Fatalf("expected right goal and kickoff_left, got score=%+v state=%s", got, w.State())
	}
}

func TestAutoGoalDetection(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Start()
	w.PlaceBall(9, 0.5, 12, 0)

	for range 10 {
		w.Update(dt)
		if w.Score().Left > 0 {
			break
		}
	}
	if w.Score().Left != 1 {
		t.Fatalf("expected a left goal, got=%+v ball=%+v", w.Score(), w.Ball.Pos())
	}
	if w.State() != StateKickoffRight {
		t.Fatalf("expected kickoff_right after goal, got=%s", w.State())
	}

	var sawGoal bool
	for _, e := range w.DrainEvents() {
		if e.Type == EventGoal && e.Side == SideLeft {
			sawGoal = true
		}
	}
	if !sawGoal {
		t.Fatalf("expected goal event")
	}
}

func TestDribbledGoalFreesTheBall(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Start()
	r := w.PlaceRobot(SideLeft, 1, w.HalfW()-0.40, 0, 0)
	r.HasBall = true
	anchor, _ := r.DribbleAnchor(w.Ball.Radius, w.Possession.StickyGap)
	w.PlaceBall(anchor.X, anchor.Y, 0, 0)

	for range 40 {
		r.CommandVelocity(2, 0, 0)
		w.Update(dt)
		if w.Score().Left > 0 {
			break
		}
	}
	if w.Score().Left != 1 || w.State() != StateKickoffRight {
		t.Fatalf("expected a dribbled left goal, got score=%+v state=%s ball=%+v", w.Score(), w.State(), w.Ball.Pos())
	}
	if side, h, ok := w.WhoHasBall(); ok {
		t.Fatalf("expected no holder after the kickoff reset, got side=%s id=%d", side, h.ID)
	}
	for _, rb := range w.AllRobots() {
		if rb.HasBall {
			t.Fatalf("expected robot %d to be cleared", rb.ID)
		}
	}
	if w.KickCooldown() != 0 {
		t.Fatalf("expected cooldown reset, got=%v", w.KickCooldown())
	}
	if b := w.Ball.Pos(); b.X != 0 || b.Y != 0 {
		t.Fatalf("expected ball on the centre spot, got=%+v", b)
	}
	if snap := w.Snapshot(); snap.Possession != nil {
		t.Fatalf("expected snapshot without holder, got=%+v", snap.Possession)
	}
}

func TestBallOutsideGoalMouthIsNoGoal(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Start()
	w.PlaceBall(9, 3, 12, 0)
	for range 10 {
		w.Update(dt)
	}
	if w.Score().Left != 0 || w.State() != StatePlaying {
		t.Fatalf("expected no goal wide of the post, got=%+v state=%s", w.Score(), w.State())
	}
}

func TestPossessionHysteresis(t *testing.T) {
	w := newTestWorld(t, func(c *config.Config) { c.Possession.Sticky = false })
	r := w.PlaceRobot(SideLeft, 1, 0, 0, 0)

	w.PlaceBall(0.30, 0, 0, 0)
	w.Update(dt)
	if !r.HasBall {
		t.Fatalf("expected acquisition inside the on cone")
	}

	w.PlaceBall(0.40, 0, 0, 0)
	w.Update(dt)
	if !r.HasBall {
		t.Fatalf("expected holder retained between on and off thresholds")
	}

	w.PlaceBall(0.30, 0.30, 0, 0)
	w.Update(dt)
	if !r.HasBall {
		t.Fatalf("expected holder retained at 45 degrees inside the off cone")
	}

	w.PlaceBall(0.50, 0, 0, 0)
	w.Update(dt)
	if r.HasBall {
		t.Fatalf("expected possession lost outside the off cone")
	}

	w.PlaceBall(0.40, 0, 0, 0)
	w.Update(dt)
	if r.HasBall {
		t.Fatalf("expected no fresh acquisition between on and off thresholds")
	}
}

func TestPossessionTieBreakPrefersLeftTeamLowestID(t *testing.T) {
	w := newTestWorld(t, func(c *config.Config) { c.Possession.Sticky = false })
	w.PlaceRobot(SideLeft, 1, -0.3, 0, 0)
	w.PlaceRobot(SideRight, 1, 0.3, 0, math.Pi)
	w.PlaceBall(0, 0, 0, 0)

	// Footprints overlap here; the resolver pushes both symmetrically, which
	// keeps the distances to the ball equal.
	w.Update(dt)

	side, r, ok := w.WhoHasBall()
	if !ok {
		t.Fatalf("expected a holder")
	}
	if side != SideLeft || r.ID != 1 {
		t.Fatalf("expected left #1 to win the tie, got=%s #%d", side, r.ID)
	}
}

func TestAtMostOneHolder(t *testing.T) {
	w := newTestWorld(t, nil)
	w.PlaceRobot(SideLeft, 1, -0.5, 0, 0)
	w.PlaceRobot(SideLeft, 2, 0, -0.5, math.Pi/2)
	w.PlaceRobot(SideRight, 1, 0.5, 0, math.Pi)
	w.PlaceBall(0, 0, 0, 0)

	for range 20 {
		w.Update(dt)
		holders := 0
		for _, r := range w.AllRobots() {
			if r.HasBall {
				holders++
			}
		}
		if holders > 1 {
			t.Fatalf("expected at most one holder, got=%d", holders)
		}
	}
}

func TestStickyAnchorHoldsUnderZeroMotion(t *testing.T) {
	w := newTestWorld(t, nil)
	r := w.PlaceRobot(SideLeft, 1, 1, -1, 0.3)
	r.HasBall = true
	anchor, _ := r.DribbleAnchor(w.Ball.Radius, w.Possession.StickyGap)
	w.PlaceBall(anchor.X, anchor.Y, 0, 0)

	w.Update(dt)

	if !r.HasBall {
		t.Fatalf("expected robot to keep the ball")
	}
	if d := w.Ball.Pos().Dist(anchor); d > 1e-9 {
		t.Fatalf("expected ball at anchor %+v, got=%+v (off by %v)", anchor, w.Ball.Pos(), d)
	}
}

func TestStickyAnchorFollowsRotation(t *testing.T) {
	w := newTestWorld(t, nil)
	r := w.PlaceRobot(SideLeft, 1, 0, 0, 0)
	r.HasBall = true
	anchor, _ := r.DribbleAnchor(w.Ball.Radius, w.Possession.StickyGap)
	w.PlaceBall(anchor.X, anchor.Y, 0, 0)

	for range 10 {
		r.CommandVelocity(0, 0, 1.0)
		w.Update(dt)
		if !r.HasBall {
			t.Fatalf("expected ball to stay attached while turning in place")
		}
	}
	// After the anchor the ball integrates one step with the sweep velocity.
	want, vel := r.DribbleAnchor(w.Ball.Radius, w.Possession.StickyGap)
	want = want.Add(vel.Scale(dt))
	if d := w.Ball.Pos().Dist(want); d > 0.02 {
		t.Fatalf("expected ball near the rotated anchor, got=%+v want=%+v", w.Ball.Pos(), want)
	}
}

func TestCooldownBlocksRecapture(t *testing.T) {
	w := newTestWorld(t, nil)
	r := w.PlaceRobot(SideLeft, 1, 0, 0, 0)
	r.HasBall = true

	w.ReleaseBall(r, geom.Vec2{X: w.HalfW(), Y: 0}, 7.5, EventShot)
	if r.HasBall || w.KickCooldown() != 0.25 {
		t.Fatalf("expected release to clear possession and start cooldown, got has=%v cd=%v", r.HasBall, w.KickCooldown())
	}

	blocked := 0
	acquired := false
	for range 10 {
		// Keep the ball inside the capture cone throughout.
		w.PlaceBall(0.30, 0, 0, 0)
		w.Update(dt)
		if r.HasBall {
			acquired = true
			break
		}
		blocked++
		if w.KickCooldown() == 0 {
			t.Fatalf("expected acquisition as soon as the cooldown expired")
		}
	}
	if blocked < 4 {
		t.Fatalf("expected at least 4 blocked ticks for a 0.25s cooldown, got=%d", blocked)
	}
	if !acquired {
		t.Fatalf("expected recapture once the cooldown expired")
	}
}

func TestReleaseBallKicksTowardTarget(t *testing.T) {
	w := newTestWorld(t, nil)
	r := w.PlaceRobot(SideRight, 1, 6, 0, math.Pi)
	r.HasBall = true

	w.ReleaseBall(r, geom.Vec2{X: 0, Y: 0}, 6, EventPass)

	wantX := 6 - (r.HalfSide() + w.Ball.Radius + releaseGap)
	if math.Abs(w.Ball.X-wantX) > 1e-9 || math.Abs(w.Ball.Y) > 1e-9 {
		t.Fatalf("expected ball just ahead of the nose, got=%+v", w.Ball.Pos())
	}
	if math.Abs(w.Ball.Speed()-6) > 1e-9 || w.Ball.VX >= 0 {
		t.Fatalf("expected 6 m/s toward -x, got=%+v", w.Ball.Vel())
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	w, err := NewWorld(config.Defaults())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	w.SetKickoff(SideLeft)
	snap := w.Snapshot()

	if snap.State != string(StateKickoffLeft) {
		t.Fatalf("expected kickoff_left, got=%s", snap.State)
	}
	if len(snap.Robots) != 10 {
		t.Fatalf("expected 10 robots, got=%d", len(snap.Robots))
	}
	goalies := 0
	for _, r := range snap.Robots {
		if r.IsGoalie {
			goalies++
		}
	}
	if goalies != 2 {
		t.Fatalf("expected one goalie per side, got=%d", goalies)
	}
	if len(snap.Events) != 1 || snap.Events[0].Type != string(EventKickoff) {
		t.Fatalf("expected pending kickoff event, got=%+v", snap.Events)
	}

	snap.Robots[0].Position.X = 99
	if w.Left.Robots()[0].X == 99 {
		t.Fatalf("expected snapshot to be a copy")
	}
}

func TestDrainEventsClears(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Start()
	w.Stop()
	if got := w.DrainEvents(); len(got) != 2 {
		t.Fatalf("expected 2 events, got=%+v", got)
	}
	if got := w.DrainEvents(); len(got) != 0 {
		t.Fatalf("expected drained queue, got=%+v", got)
	}
}
