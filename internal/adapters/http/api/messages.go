package api

import (
	"net/http"

	"github.com/okian/heroes/internal/domain/messages"
)

// MessageLog is the read side of the message service.
type MessageLog interface {
	Messages() []messages.Message
	Clear()
}

// MessagesHandler exposes the message log.
type MessagesHandler struct {
	log MessageLog
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(log MessageLog) *MessagesHandler {
	return &MessagesHandler{log: log}
}

// Handle serves GET /messages and DELETE /messages.
func (h *MessagesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.log.Messages())
	case http.MethodDelete:
		h.log.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}
