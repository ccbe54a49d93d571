package myevents

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventEnvelope struct {
	UID           string
	CreatedAt     time.Time
	Topic         string
	AggregateUID  string
	EventTypeName string
	EventPayload  string `datastore:",noindex"`
}

func (e EventEnvelope) String() string {
	return e.Topic + "." + e.EventTypeName + "." + e.AggregateUID
}

// Decode unmarshals the payload into target.
func (e EventEnvelope) Decode(target any) error {
	err := json.Unmarshal([]byte(e.EventPayload), target)
	if err != nil {
		return fmt.Errorf("error decoding %s payload: %w", e.EventTypeName, err)
	}
	return nil
}

type Event interface {
	GetEventTypeName() string
	GetAggregateName() string
}
