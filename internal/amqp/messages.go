package amqp

import (
	"encoding/json"
	"time"

	"kopilka/internal/core"
	"kopilka/internal/report"
)

// ReportRequestMessage asks the report worker to render a report and send
// the artifacts to the chat. It carries parameters only; the worker fetches
// the transactions itself.
type ReportRequestMessage struct {
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Kind      core.Kind `json:"kind"`
	Days      int       `json:"days"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportRequestMessage(chatID, userID int64, kind core.Kind, days int, mode report.Mode) *ReportRequestMessage {
	return &ReportRequestMessage{
		ChatID:    chatID,
		UserID:    userID,
		Kind:      kind,
		Days:      days,
		Mode:      mode.String(),
		Timestamp: time.Now(),
	}
}

func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
