package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/ai"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	json "github.com/goccy/go-json"
)

const maxChatBody = 1 << 20

type ChatService interface {
	Complete(ctx context.Context, messages []ports.Message) (ports.Message, error)
}

type ChatHandler struct {
	svc ChatService
	log *logger.ZapLogger
}

func NewChatHandler(svc ChatService, log *logger.ZapLogger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

// POST /chat
func (h *ChatHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []ports.Message `json:"messages"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "chat: invalid json", Error: err})
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	reply, err := h.svc.Complete(r.Context(), req.Messages)
	switch {
	case errors.Is(err, ai.ErrInvalidTranscript):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// причина уже в логах и у операторов, клиенту только общий текст
		writeError(w, http.StatusInternalServerError, ai.PublicErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}
