package chat

// State is the lifecycle state of a Session.
//
//	Idle ─▶ Open ─▶ Draining ─▶ Completed
//	         │         │
//	         ├─────────┴──────▶ Cancelled
//	         └────────────────▶ Failed
type State int

const (
	Idle State = iota
	Open
	Draining
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	case Draining:
		return "draining"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the session.
func (s State) Terminal() bool {
	return s >= Completed
}
