package types_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"robosoccer/internal/config"
	"robosoccer/internal/match"
	"robosoccer/internal/shared/types"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSnapshotsMatchSchema(t *testing.T) {
	schema := compile(t, "snapshot.schema.json")
	m, err := match.New(config.Defaults(), nil)
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	validate(t, schema, m.Snapshot())
	for i := 0; i < 120; i++ {
		m.Tick(0.05)
		if i%20 == 0 {
			validate(t, schema, m.Snapshot())
		}
	}
	validate(t, schema, m.Snapshot())
}

func TestSchemaRejectsBadState(t *testing.T) {
	schema := compile(t, "snapshot.schema.json")
	var doc any
	_ = json.Unmarshal([]byte(`{
	  "match_id":"m","tick":1,"sim_time":0.05,"state":"overtime",
	  "field":{"width":22,"height":14,"goal_width":2.4},
	  "score":{"left":0,"right":0,"time_remaining_ms":0},
	  "ball":{"position":{"x":0,"y":0},"velocity":{"x":0,"y":0},"radius":0.11},
	  "robots":[],"kick_cooldown":0,"events":[]
	}`), &doc)
	if err := schema.Validate(doc); err == nil {
		t.Fatalf("expected unknown state to be rejected")
	}
}

func TestClientEnvelopeSchema(t *testing.T) {
	schema := compile(t, "client.schema.json")
	validate(t, schema, types.ClientEnvelope{Type: "ping"})
	validate(t, schema, types.ClientEnvelope{Type: "control", Control: &types.ControlCommand{Action: "kickoff", Side: "right"}})

	var doc any
	_ = json.Unmarshal([]byte(`{"type":"control"}`), &doc)
	if err := schema.Validate(doc); err == nil {
		t.Fatalf("expected control without payload to be rejected")
	}
}

func TestMsgpackCarriesSnapshot(t *testing.T) {
	m, err := match.New(config.Defaults(), nil)
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	for i := 0; i < 10; i++ {
		m.Tick(0.05)
	}
	snap := m.Snapshot()
	env := types.ServerEnvelope{Type: "state", Tick: snap.Tick, State: &snap}

	c := types.ParseCodec("MSGPACK")
	if !c.Binary() {
		t.Fatalf("expected binary codec")
	}
	raw, err := c.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got types.ServerEnvelope
	if err := c.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.State == nil || got.State.MatchID != snap.MatchID || len(got.State.Robots) != len(snap.Robots) {
		t.Fatalf("expected snapshot to survive msgpack, got=%+v", got.State)
	}
	if got.State.Robots[3] != snap.Robots[3] {
		t.Fatalf("robot mismatch: %+v vs %+v", got.State.Robots[3], snap.Robots[3])
	}
	if types.ParseCodec("xml") != types.CodecJSON {
		t.Fatalf("expected JSON fallback")
	}
}
