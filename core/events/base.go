package events

import "time"

// Kind discriminates event variants without a type switch.
type Kind string

// Event is the contract every variant satisfies. Events are immutable values
// stamped at creation; consumers may hold them indefinitely.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields common to all variants. Embed it and construct it
// with NewBase so the timestamp is never left zero.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
