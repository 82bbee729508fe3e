package event

type Type string

const (
	TypeContactCreated Type = "contact.created"
	TypeContactUpdated Type = "contact.updated"
	TypeContactDeleted Type = "contact.deleted"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   int64  `json:"actorId,omitempty"`
	// OwnerID is the owner of the affected resource and drives delivery scoping.
	OwnerID int64 `json:"ownerId"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
