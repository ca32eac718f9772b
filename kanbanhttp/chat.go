package kanbanhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LubyRuffy/kanbanchat/relay"
	"github.com/sirupsen/logrus"
)

// maxChatBodyBytes 限制 /chat 请求体大小（历史消息 + 任务摘要）。
const maxChatBodyBytes = 4 << 20

type chatHandlers struct {
	relay  *relay.Relay
	logger logrus.FieldLogger
}

func (h *chatHandlers) handleChat(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in relay.ChatInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	stream, err := h.relay.Open(r.Context(), in)
	if err != nil {
		status := relay.StatusFromError(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithField("kind", relay.KindOf(err)).WithError(err).Error("kanban-chat error")
		}
		writeError(w, status, relay.MessageFromError(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flush := func() {}
	if flusher, ok := w.(http.Flusher); ok {
		flush = flusher.Flush
	}
	flush()

	logger := h.logger.WithField("request_id", stream.ID())
	if err := stream.Pump(r.Context(), w, flush); err != nil {
		if errors.Is(err, relay.ErrDownstreamClosed) || r.Context().Err() != nil {
			logger.WithError(err).Debug("client disconnected")
			return
		}
		logger.WithError(err).Error("stream pump failed")
	}
}
