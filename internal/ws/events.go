package ws

import (
	"encoding/json"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/logger"
)

// server → client event types
const (
	EventTaskChanged = "task-changed"
	EventLogsChanged = "logs-changed"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// TaskChanged broadcasts that some task state changed. The payload is a
// best-effort hint; observers re-query authoritative state on receipt
// rather than trusting it as a diff.
func (h *Hub) TaskChanged(payload any) {
	h.emit(Event{Type: EventTaskChanged, Payload: payload})
}

// LogsChanged broadcasts the latest activity entries, newest first.
func (h *Hub) LogsChanged(entries []*domain.ActionLog) {
	h.emit(Event{Type: EventLogsChanged, Payload: entries})
}

func (h *Hub) emit(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		logger.Error("event marshal failed", "type", ev.Type, "error", err)
		return
	}
	h.send(b)
}
