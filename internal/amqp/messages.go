package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// InteractionEvent records one dashboard recompute: the event that triggered
// it, the resulting selection and how much each figure showed.
type InteractionEvent struct {
	Event       string    `json:"event"`
	Country     string    `json:"country"`
	YearFrom    int       `json:"year_from"`
	YearTo      int       `json:"year_to"`
	Clicks      int       `json:"clicks"`
	Bars        int       `json:"bars"`
	ActiveCells int       `json:"active_cells"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *InteractionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InteractionEventFromJSON decodes a message body. An event name is required.
func InteractionEventFromJSON(data []byte) (*InteractionEvent, error) {
	var msg InteractionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("interaction event without event name")
	}
	return &msg, nil
}
