package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MonthChangedMessage announces that a budget month (or something that feeds its
// summary) changed. The worker reloads the month from storage; the message carries ids only.
type MonthChangedMessage struct {
	UserID    string    `json:"user_id"`
	MonthID   string    `json:"month_id"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMonthChangedMessage(userID, monthID, operation string) *MonthChangedMessage {
	return &MonthChangedMessage{
		UserID:    userID,
		MonthID:   monthID,
		Operation: operation,
		Timestamp: time.Now().UTC(),
	}
}

func (m *MonthChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthChangedMessageFromJSON decodes and checks a message body.
func MonthChangedMessageFromJSON(data []byte) (*MonthChangedMessage, error) {
	var msg MonthChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.MonthID == "" {
		return nil, errors.New("message missing user or month id")
	}
	return &msg, nil
}
