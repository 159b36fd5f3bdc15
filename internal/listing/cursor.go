package listing

// State is the controller's fetch state.
type State int

// Controller states.
const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Cursor tracks pagination progress for one list.
type Cursor struct {
	// Page is the last page successfully merged, or 1 before any fetch.
	Page int
	// HasMore is only meaningful once Trusted is set.
	HasMore bool
	Loading bool
	// Trusted is set by the first successful fetch after a filter change.
	Trusted bool
}

func initialCursor() Cursor {
	return Cursor{Page: 1, HasMore: true}
}

// canAppend reports whether an append fetch may be issued.
func (c Cursor) canAppend() bool {
	return c.Trusted && c.HasMore && !c.Loading
}
