// Package event defines the user domain events and their wire codec.
//
// Events are JSON records tagged by the "type" field. The decoder tolerates
// unknown fields so producers can add fields without breaking older
// consumers.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags an event on the wire.
type Kind string

const (
	KindUserCreated Kind = "USER_CREATED"
)

// UserEvent is the fact published to the user-events topic whenever a user
// row is committed. Immutable once constructed; it describes the row at
// creation time and is never retracted by later mutation.
type UserEvent struct {
	// ID uniquely identifies the event instance so redeliveries can be
	// recognized. Older producers omit it; decoding tolerates its absence.
	ID         string    `json:"event_id,omitempty"`
	Kind       Kind      `json:"type"`
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"timestamp"`
}

// NewUserCreated builds a USER_CREATED event for a just-committed user row.
func NewUserCreated(userID int64, name, email string) UserEvent {
	return UserEvent{
		ID:         uuid.NewString(),
		Kind:       KindUserCreated,
		UserID:     userID,
		Name:       name,
		Email:      email,
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Encode serializes the event for the broker.
func Encode(e UserEvent) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Kind, err)
	}
	return b, nil
}

// Decode parses a raw broker record. Unknown fields are ignored; a missing
// or empty type tag is an error because dispatch depends on it.
func Decode(raw []byte) (UserEvent, error) {
	var e UserEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return UserEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Kind == "" {
		return UserEvent{}, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}
