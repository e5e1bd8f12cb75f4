package planning

type memoryKey struct {
	robotID int
	subtype ActionKind
}

// Memory keeps the last chosen action per (robot, subtype). It only biases
// the next tick's sampling; entries are overwritten, never merged.
type Memory struct {
	slots map[memoryKey]ActionQValue
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[memoryKey]ActionQValue)}
}

func (m *Memory) Get(robotID int, subtype ActionKind) (ActionQValue, bool) {
	a, ok := m.slots[memoryKey{robotID, subtype}]
	return a, ok
}

// Set stores a under its own robot and subtype.
func (m *Memory) Set(a ActionQValue) {
	m.slots[memoryKey{a.RobotID, a.Subtype}] = a
}

// Forget clears every slot of robotID.
func (m *Memory) Forget(robotID int) {
	for k := range m.slots {
		if k.robotID == robotID {
			delete(m.slots, k)
		}
	}
}

// Retain drops the slots of robots not in ids.
func (m *Memory) Retain(ids []int) {
	keep := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	for k := range m.slots {
		if _, ok := keep[k.robotID]; !ok {
			delete(m.slots, k)
		}
	}
}

func (m *Memory) Len() int { return len(m.slots) }
