// Package engine is the game state machine. Every exported mutation takes a
// *Turn and the game record, validates fully before touching the record, and
// queues the resulting client events on the turn's outbox. Callers hold the
// game's lock for the duration of a call and deliver the outbox afterwards.
package engine

import (
	"math/rand"
	"time"

	"github.com/abrezinsky/irlsus/internal/models"
)

// Rand is the random source used for shuffles and draws.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a Rand seeded from the clock
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Envelope is one queued delivery. An empty To means broadcast to the game.
type Envelope struct {
	To      string
	Exclude string
	Message models.WSMessage
}

// Private reports whether the envelope targets a single player
func (e Envelope) Private() bool {
	return e.To != ""
}

// Outbox collects the events produced by one mutation
type Outbox struct {
	Envelopes []Envelope
	// Ended is set when the game reached Ended during the turn
	Ended bool
}

// Broadcast queues an event for every player in the game
func (o *Outbox) Broadcast(msgType string, payload interface{}) {
	o.BroadcastExcept("", msgType, payload)
}

// BroadcastExcept queues an event for every player except one
func (o *Outbox) BroadcastExcept(excludeID, msgType string, payload interface{}) {
	o.Envelopes = append(o.Envelopes, Envelope{
		Exclude: excludeID,
		Message: models.WSMessage{Type: msgType, Payload: payload},
	})
}

// Send queues a private event for one player
func (o *Outbox) Send(playerID, msgType string, payload interface{}) {
	o.Envelopes = append(o.Envelopes, Envelope{
		To:      playerID,
		Message: models.WSMessage{Type: msgType, Payload: payload},
	})
}

// Count returns how many queued events have the given type
func (o *Outbox) Count(msgType string) int {
	n := 0
	for _, e := range o.Envelopes {
		if e.Message.Type == msgType {
			n++
		}
	}
	return n
}

// Last returns the most recent queued event of the given type
func (o *Outbox) Last(msgType string) (Envelope, bool) {
	for i := len(o.Envelopes) - 1; i >= 0; i-- {
		if o.Envelopes[i].Message.Type == msgType {
			return o.Envelopes[i], true
		}
	}
	return Envelope{}, false
}

// Turn carries everything a single mutation needs besides the game record
type Turn struct {
	Now  time.Time
	Rand Rand
	Out  Outbox
}

// NewTurn starts a turn at now using rng
func NewTurn(now time.Time, rng Rand) *Turn {
	if rng == nil {
		rng = NewRand()
	}
	return &Turn{Now: now, Rand: rng}
}
