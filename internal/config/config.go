package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the constructor-time configuration of a match. It is not reloaded
// while a match runs.
type Config struct {
	Field      Field      `yaml:"field"`
	Ball       Ball       `yaml:"ball"`
	Robot      Robot      `yaml:"robot"`
	Possession Possession `yaml:"possession"`
	Collision  Collision  `yaml:"collision"`
	Sampler    Sampler    `yaml:"sampler"`
	Evaluator  Evaluator  `yaml:"evaluator"`
	Match      Match      `yaml:"match"`
}

type Field struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	GoalWidth float64 `yaml:"goal_width"`
}

type Ball struct {
	Radius      float64 `yaml:"radius"`
	Drag        float64 `yaml:"drag_per_sec"`
	MinSpeed    float64 `yaml:"min_speed"`
	Restitution float64 `yaml:"restitution"`
	Boundary    string  `yaml:"boundary"`
}

type Robot struct {
	SideLen  float64 `yaml:"side_len"`
	MaxSpeed float64 `yaml:"max_speed"`
	MaxOmega float64 `yaml:"max_omega"`
	MaxAccel float64 `yaml:"max_accel"`
	MaxAlpha float64 `yaml:"max_alpha"`
	TauV     float64 `yaml:"tau_v"`
	TauW     float64 `yaml:"tau_w"`
}

type Possession struct {
	ConeDistOn      float64 `yaml:"cone_dist_on"`
	ConeAngleOnDeg  float64 `yaml:"cone_angle_on_deg"`
	ConeDistOff     float64 `yaml:"cone_dist_off"`
	ConeAngleOffDeg float64 `yaml:"cone_angle_off_deg"`
	Sticky          bool    `yaml:"sticky"`
	StickyGap       float64 `yaml:"sticky_gap"`
	ClipAnchor      bool    `yaml:"clip_anchor"`
	KickCooldown    float64 `yaml:"kick_cooldown_sec"`
}

type Collision struct {
	Iterations  int     `yaml:"iterations"`
	Clearance   float64 `yaml:"clearance"`
	Restitution float64 `yaml:"restitution"`
	MaxPush     float64 `yaml:"max_push"`
}

type Sampler struct {
	BasePoints int       `yaml:"base_points"`
	RingPoints int       `yaml:"ring_points"`
	RingRadii  []float64 `yaml:"ring_radii"`
}

type Evaluator struct {
	PassSpeed      float64 `yaml:"pass_speed"`
	ShotSpeed      float64 `yaml:"shot_speed"`
	OppMaxSpeed    float64 `yaml:"opp_max_speed"`
	SafetyRadius   float64 `yaml:"safety_radius"`
	GoalHalfHeight float64 `yaml:"goal_half_height"`
	ExecDist       float64 `yaml:"exec_dist"`
	ExecAngleDeg   float64 `yaml:"exec_angle_deg"`
}

type Match struct {
	Dt              float64 `yaml:"dt"`
	TeamSize        int     `yaml:"team_size"`
	DurationSec     float64 `yaml:"duration_sec"`
	KickoffDelaySec float64 `yaml:"kickoff_delay_sec"`
	AutoGoal        bool    `yaml:"auto_goal"`
	Seed            int64   `yaml:"seed"`
}

const (
	BoundaryClip   = "clip"
	BoundaryBounce = "bounce"
)

// Defaults returns the reference configuration: a 22x14 m pitch with five
// robots per side ticked at 20 Hz.
func Defaults() Config {
	return Config{
		Field: Field{Width: 22, Height: 14, GoalWidth: 2.4},
		Ball: Ball{
			Radius:      0.11,
			Drag:        1.5,
			MinSpeed:    0.05,
			Restitution: 0.25,
			Boundary:    BoundaryClip,
		},
		Robot: Robot{
			SideLen:  0.45,
			MaxSpeed: 2.5,
			MaxOmega: 6.0,
			MaxAccel: 4.0,
			MaxAlpha: 20.0,
			TauV:     0.12,
			TauW:     0.10,
		},
		Possession: Possession{
			ConeDistOn:      0.35,
			ConeAngleOnDeg:  40,
			ConeDistOff:     0.45,
			ConeAngleOffDeg: 60,
			Sticky:          true,
			StickyGap:       0.015,
			ClipAnchor:      true,
			KickCooldown:    0.25,
		},
		Collision: Collision{Iterations: 6, Clearance: 0.01, Restitution: 0, MaxPush: 0.10},
		Sampler:   Sampler{BasePoints: 5, RingPoints: 3, RingRadii: []float64{0.2}},
		Evaluator: Evaluator{
			PassSpeed:      6.0,
			ShotSpeed:      7.5,
			OppMaxSpeed:    2.5,
			SafetyRadius:   0.30,
			GoalHalfHeight: 1.2,
			ExecDist:       0.20,
			ExecAngleDeg:   25,
		},
		Match: Match{
			Dt:              0.05,
			TeamSize:        5,
			DurationSec:     300,
			KickoffDelaySec: 1.0,
			AutoGoal:        true,
			Seed:            1,
		},
	}
}

// Load reads a YAML file over Defaults and validates the result. Keys absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every structurally invalid value at once.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", name, v))
		}
	}

	positive("field.width", c.Field.Width)
	positive("field.height", c.Field.Height)
	nonNegative("field.goal_width", c.Field.GoalWidth)
	if c.Field.GoalWidth > c.Field.Height {
		errs = append(errs, fmt.Errorf("field.goal_width %v exceeds field.height %v", c.Field.GoalWidth, c.Field.Height))
	}

	positive("ball.radius", c.Ball.Radius)
	nonNegative("ball.drag_per_sec", c.Ball.Drag)
	nonNegative("ball.min_speed", c.Ball.MinSpeed)
	if c.Ball.Restitution < 0 || c.Ball.Restitution > 1 {
		errs = append(errs, fmt.Errorf("ball.restitution must be in [0,1], got %v", c.Ball.Restitution))
	}
	if c.Ball.Boundary != BoundaryClip && c.Ball.Boundary != BoundaryBounce {
		errs = append(errs, fmt.Errorf("ball.boundary must be %q or %q, got %q", BoundaryClip, BoundaryBounce, c.Ball.Boundary))
	}

	positive("robot.side_len", c.Robot.SideLen)
	positive("robot.max_speed", c.Robot.MaxSpeed)
	positive("robot.max_omega", c.Robot.MaxOmega)
	positive("robot.max_accel", c.Robot.MaxAccel)
	positive("robot.max_alpha", c.Robot.MaxAlpha)
	nonNegative("robot.tau_v", c.Robot.TauV)
	nonNegative("robot.tau_w", c.Robot.TauW)

	positive("possession.cone_dist_on", c.Possession.ConeDistOn)
	positive("possession.cone_angle_on_deg", c.Possession.ConeAngleOnDeg)
	if c.Possession.ConeDistOff < c.Possession.ConeDistOn {
		errs = append(errs, fmt.Errorf("possession.cone_dist_off %v must be >= cone_dist_on %v", c.Possession.ConeDistOff, c.Possession.ConeDistOn))
	}
	if c.Possession.ConeAngleOffDeg < c.Possession.ConeAngleOnDeg {
		errs = append(errs, fmt.Errorf("possession.cone_angle_off_deg %v must be >= cone_angle_on_deg %v", c.Possession.ConeAngleOffDeg, c.Possession.ConeAngleOnDeg))
	}
	nonNegative("possession.sticky_gap", c.Possession.StickyGap)
	nonNegative("possession.kick_cooldown_sec", c.Possession.KickCooldown)

	if c.Collision.Iterations < 1 {
		errs = append(errs, fmt.Errorf("collision.iterations must be >= 1, got %d", c.Collision.Iterations))
	}
	nonNegative("collision.clearance", c.Collision.Clearance)
	nonNegative("collision.restitution", c.Collision.Restitution)
	positive("collision.max_push", c.Collision.MaxPush)

	if c.Sampler.BasePoints < 0 || c.Sampler.RingPoints < 0 {
		errs = append(errs, fmt.Errorf("sampler point counts must be >= 0, got base=%d ring=%d", c.Sampler.BasePoints, c.Sampler.RingPoints))
	}
	for i, r := range c.Sampler.RingRadii {
		if !(r > 0) {
			errs = append(errs, fmt.Errorf("sampler.ring_radii[%d] must be > 0, got %v", i, r))
		}
	}

	positive("evaluator.pass_speed", c.Evaluator.PassSpeed)
	positive("evaluator.shot_speed", c.Evaluator.ShotSpeed)
	positive("evaluator.opp_max_speed", c.Evaluator.OppMaxSpeed)
	nonNegative("evaluator.safety_radius", c.Evaluator.SafetyRadius)
	positive("evaluator.goal_half_height", c.Evaluator.GoalHalfHeight)
	positive("evaluator.exec_dist", c.Evaluator.ExecDist)
	positive("evaluator.exec_angle_deg", c.Evaluator.ExecAngleDeg)

	positive("match.dt", c.Match.Dt)
	if c.Match.TeamSize < 1 {
		errs = append(errs, fmt.Errorf("match.team_size must be >= 1, got %d", c.Match.TeamSize))
	}
	nonNegative("match.duration_sec", c.Match.DurationSec)
	nonNegative("match.kickoff_delay_sec", c.Match.KickoffDelaySec)

	return errors.Join(errs...)
}
