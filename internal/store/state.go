package store

// State is the load lifecycle of a Store.
type State int

const (
	// AuthPending: the session's principal is not known yet, or is known and
	// no fetch has started.
	AuthPending State = iota
	// Unauthenticated: no principal. The collection is empty and loaded.
	Unauthenticated
	Fetching
	Ready
	// FetchFailed: the fetch errored. The collection is empty and loaded; the
	// next Load fetches again.
	FetchFailed
)

func (s State) String() string {
	switch s {
	case AuthPending:
		return "auth_pending"
	case Unauthenticated:
		return "unauthenticated"
	case Fetching:
		return "fetching"
	case Ready:
		return "ready"
	case FetchFailed:
		return "fetch_failed"
	}
	return "unknown"
}

// Loaded reports whether the board can render the collection, possibly empty.
func (s State) Loaded() bool {
	return s == Unauthenticated || s == Ready || s == FetchFailed
}
