package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ScoreMessage is one frame of the score counter stream
type ScoreMessage struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

// handleScoreStream counts from 0 up to target, one frame per tick
func (s *Server) handleScoreStream(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.Atoi(r.URL.Query().Get("target"))
	if err != nil || target < 0 || target > s.bank.MaxScore() {
		respondError(w, http.StatusBadRequest, "validation_error", "target must be an integer between 0 and the maximum score")
		return
	}

	logger := LoggerFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	interval := s.config.ScoreTickInterval
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := 0
	for current != target {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			current = assessment.Tick(current, target)
			if err := sendScoreMessage(conn, ScoreMessage{Type: "tick", Value: current}); err != nil {
				logger.Debug("score stream closed", "error", err)
				return
			}
		}
	}

	if err := sendScoreMessage(conn, ScoreMessage{Type: "done", Value: target}); err != nil {
		return
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func sendScoreMessage(conn *websocket.Conn, msg ScoreMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
