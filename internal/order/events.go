package order

// EventKind distinguishes inbound events.
type EventKind int

const (
	// EventBegin marks an explicit start.
	EventBegin EventKind = iota
	// EventText carries a free-text message.
	EventText
	// EventSelection carries a pick from a discrete choice control.
	EventSelection
)

func (k EventKind) String() string {
	switch k {
	case EventBegin:
		return "begin"
	case EventText:
		return "text"
	case EventSelection:
		return "selection"
	}
	return "unknown"
}

// User identifies the sender of an event.
type User struct {
	ID       int64
	Username string
}

// Event is one inbound occurrence for a session.
type Event struct {
	Kind      EventKind
	SessionID int64
	ChatID    int64
	User      User

	Text        string
	SelectionID string
	// MessageID is the message that carried the choice control.
	MessageID int
}
