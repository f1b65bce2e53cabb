package widget

import (
	"iter"
	"sync"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchanged message. Turns are values and never change.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn builds a turn attributed to the user.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantTurn builds a turn attributed to the assistant.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// Transcript is the append-only conversation log of one mounted widget.
// Loading and error indicators are not part of it.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{turns: make([]Turn, 0, 16)}
}

// Append adds a turn at the end of the conversation.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	t.turns = append(t.turns, turn)
	t.mu.Unlock()
}

// IsEmpty reports whether no turn has been appended yet.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Turns returns a copy of the turns in conversation order.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]Turn, len(t.turns))
	copy(copied, t.turns)
	return copied
}

// All yields the turns in insertion order. It iterates over a snapshot, so
// turns appended during iteration are not visited.
func (t *Transcript) All() iter.Seq[Turn] {
	snapshot := t.Turns()
	return func(yield func(Turn) bool) {
		for _, turn := range snapshot {
			if !yield(turn) {
				return
			}
		}
	}
}
