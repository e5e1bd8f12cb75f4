package types

import "time"

// Vec2 represents a position or vector on the pitch, in metres.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// RobotState is the replicated state of one robot.
type RobotState struct {
	ID       int     `json:"id" msgpack:"id"`
	Side     string  `json:"side" msgpack:"side"` // left|right
	Position Vec2    `json:"position" msgpack:"position"`
	Theta    float64 `json:"theta" msgpack:"theta"`
	Velocity Vec2    `json:"velocity" msgpack:"velocity"`
	Omega    float64 `json:"omega" msgpack:"omega"`
	SideLen  float64 `json:"side_len" msgpack:"side_len"`
	Active   bool    `json:"active" msgpack:"active"`
	HasBall  bool    `json:"has_ball" msgpack:"has_ball"`
	IsGoalie bool    `json:"is_goalie" msgpack:"is_goalie"`
	Action   string  `json:"action" msgpack:"action"`
}

// BallState is the authoritative state for the ball.
type BallState struct {
	Position Vec2    `json:"position" msgpack:"position"`
	Velocity Vec2    `json:"velocity" msgpack:"velocity"`
	Radius   float64 `json:"radius" msgpack:"radius"`
}

// ScoreState tracks goals and the match clock.
type ScoreState struct {
	Left            int `json:"left" msgpack:"left"`
	Right           int `json:"right" msgpack:"right"`
	TimeRemainingMS int `json:"time_remaining_ms" msgpack:"time_remaining_ms"`
}

// FieldState carries the pitch dimensions so viewers can draw it.
type FieldState struct {
	Width     float64 `json:"width" msgpack:"width"`
	Height    float64 `json:"height" msgpack:"height"`
	GoalWidth float64 `json:"goal_width" msgpack:"goal_width"`
}

// PossessionState names the current holder, if any.
type PossessionState struct {
	Side    string `json:"side" msgpack:"side"`
	RobotID int    `json:"robot_id" msgpack:"robot_id"`
}

// WorldSnapshot is a read-only copy of the world handed to renderers,
// recorders and websocket viewers.
type WorldSnapshot struct {
	MatchID      string           `json:"match_id" msgpack:"match_id"`
	Tick         uint64           `json:"tick" msgpack:"tick"`
	SimTime      float64          `json:"sim_time" msgpack:"sim_time"`
	State        string           `json:"state" msgpack:"state"` // stopped|playing|kickoff_left|kickoff_right|goal|halt
	Field        FieldState       `json:"field" msgpack:"field"`
	Score        ScoreState       `json:"score" msgpack:"score"`
	Ball         BallState        `json:"ball" msgpack:"ball"`
	Robots       []RobotState     `json:"robots" msgpack:"robots"`
	Possession   *PossessionState `json:"possession,omitempty" msgpack:"possession,omitempty"`
	KickCooldown float64          `json:"kick_cooldown" msgpack:"kick_cooldown"`
	Events       []GameplayEvent  `json:"events" msgpack:"events"`
}

// GameplayEvent tracks state changes worth UI feedback or persistence.
type GameplayEvent struct {
	Type       string  `json:"type" msgpack:"type"` // kickoff|start|stop|halt|goal|shot|pass|possession|full_time
	Side       string  `json:"side,omitempty" msgpack:"side,omitempty"`
	RobotID    int     `json:"robot_id,omitempty" msgpack:"robot_id,omitempty"`
	SimTime    float64 `json:"sim_time" msgpack:"sim_time"`
	OccurredMS int64   `json:"occurred_ms" msgpack:"occurred_ms"`
}

// ControlCommand drives the match state machine from a client.
type ControlCommand struct {
	Action string `json:"action"` // kickoff|start|stop|halt|goal
	Side   string `json:"side,omitempty"`
}

// ClientEnvelope is sent from client to server.
type ClientEnvelope struct {
	Type    string          `json:"type"` // hello|control|ping
	Control *ControlCommand `json:"control,omitempty"`
}

// ServerEnvelope is sent from server to client.
type ServerEnvelope struct {
	Type     string         `json:"type" msgpack:"type"` // welcome|state|pong|error
	Tick     uint64         `json:"tick,omitempty" msgpack:"tick,omitempty"`
	State    *WorldSnapshot `json:"state,omitempty" msgpack:"state,omitempty"`
	ServerMS int64          `json:"server_ms,omitempty" msgpack:"server_ms,omitempty"`
	Message  string         `json:"message,omitempty" msgpack:"message,omitempty"`
}

// MatchSummary is the outcome of a finished or interrupted match.
type MatchSummary struct {
	MatchID    string    `json:"match_id"`
	Seed       int64     `json:"seed"`
	ScoreLeft  int       `json:"score_left"`
	ScoreRight int       `json:"score_right"`
	Ticks      uint64    `json:"ticks"`
	SimSeconds float64   `json:"sim_seconds"`
	Shots      int       `json:"shots"`
	Passes     int       `json:"passes"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// TelemetryEvent represents a gameplay or platform event posted to the
// history service.
type TelemetryEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	MatchID   string                 `json:"match_id,omitempty"`
	Side      string                 `json:"side,omitempty"`
	RobotID   int                    `json:"robot_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}
