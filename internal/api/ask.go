package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hackerchat/ragbot/internal/dispatch"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer        string          `json:"answer"`
	RetrievedDocs []passageOrigin `json:"retrieved_docs"`
}

type passageOrigin struct {
	Channel   string `json:"channel"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// ask answers a one-off question against the chat history index.
func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Answerer == nil || !s.cfg.Initialized() {
		writeError(w, http.StatusServiceUnavailable, "server is still initializing", s.logger)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required", s.logger)
		return
	}

	answer, passages, err := s.cfg.Answerer.Answer(r.Context(), req.Question)
	if err != nil {
		s.logger.Warn("ask failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to answer question", s.logger)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:        answer,
		RetrievedDocs: origins(passages),
	}, s.logger)
}

func origins(passages []dispatch.Passage) []passageOrigin {
	out := make([]passageOrigin, 0, len(passages))
	for _, p := range passages {
		origin := passageOrigin{Channel: p.Channel, Author: p.Author}
		if !p.Timestamp.IsZero() {
			origin.Timestamp = p.Timestamp.Format(time.RFC3339)
		}
		out = append(out, origin)
	}
	return out
}
