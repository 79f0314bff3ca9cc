package session

import "time"

// Role identifies who produced a turn.
type Role string

const (
	// RoleSystem primes the model. Only a system turn in the first position
	// survives truncation.
	RoleSystem Role = "system"

	// RoleUser is a message sent by the client.
	RoleUser Role = "user"

	// RoleAssistant is a model reply.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is one message in a conversation. Turns are values and are never
// modified after being appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"content"`
}

// Entry is a point-in-time view of one conversation, used by the reaper.
type Entry struct {
	ID          string
	LastTouched time.Time
	Turns       int
}
