package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"presidente-server/internal/presidente"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultResultsLimit = 10
	maxResultsLimit     = 50
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /rooms/{code}", s.roomHandler)
	mux.HandleFunc("GET /rooms/{code}/results", s.resultsHandler)

	mux.HandleFunc("/websocket", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(resp); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":      "ok",
		"rooms":       s.rooms.Count(),
		"connections": s.connectionManager.Count(),
	}
	if s.db != nil {
		resp["database"] = s.db.Health()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) roomHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := s.rooms.GetRoom(r.PathValue("code"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorMessage{Code: ErrRoomNotFound.Code, Message: ErrRoomNotFound.Message})
		return
	}

	s.writeJSON(w, http.StatusOK, room.Summary())
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorMessage{Message: "Results archive is disabled"})
		return
	}

	code := NormalizeRoomCode(r.PathValue("code"))
	if err := ValidateRoomCode(code); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorMessage{Message: err.Error()})
		return
	}

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxResultsLimit {
			s.writeJSON(w, http.StatusBadRequest, ErrorMessage{Message: fmt.Sprintf("limit must be between 1 and %d", maxResultsLimit)})
			return
		}
		limit = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results, err := s.db.RecentResults(ctx, code, limit)
	if err != nil {
		s.logger.Error("load results", zap.String("room", code), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, ErrorMessage{Message: "Failed to load results"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"roomId":  code,
		"results": results,
	})
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.NewString()
	logger := s.logger.With(zap.String("conn", connectionID))
	logger.Info("connection opened")

	s.connectionManager.AddConnection(connectionID, socket)
	s.connectionHealth.UpdateActivity(connectionID)
	defer func() {
		s.invoke(connectionID, "disconnect", func() (any, error) {
			s.gameManager.Disconnect(connectionID)
			return nil, nil
		})

		s.connectionManager.RemoveConnection(connectionID)
		s.rateLimiter.RemoveConnection(connectionID)
		s.connectionHealth.RemoveConnection(connectionID)
		logger.Info("connection closed")
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			logger.Debug("read ended", zap.Error(err))
			return
		}

		s.connectionHealth.UpdateActivity(connectionID)

		if msgType != websocket.MessageText {
			logger.Debug("ignoring non-text message")
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(connectionID, ErrRateLimited)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("invalid json", zap.Error(err))
			s.sendError(connectionID, errors.New("Invalid JSON"))
			continue
		}

		s.handleMessage(ctx, connectionID, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, connectionID string, msg ClientMessage) {
	switch msg.Type {
	case ActionPing:
		s.connectionManager.SendToConnection(connectionID, "pong", struct{}{})

	case ActionCreateRoom:
		s.runAction(connectionID, msg.Type, func() (any, error) {
			var req CreateRoomRequest
			if err := decodePayload(msg, &req); err != nil {
				return nil, err
			}
			return s.gameManager.CreateRoom(connectionID, req.RoomName)
		})

	case ActionJoinRoom:
		s.runAction(connectionID, msg.Type, func() (any, error) {
			var req JoinRoomRequest
			if err := decodePayload(msg, &req); err != nil {
				return nil, err
			}
			return s.gameManager.JoinRoom(connectionID, req.RoomCode, req.PlayerName)
		})

	case ActionStartGame:
		s.runAction(connectionID, msg.Type, func() (any, error) {
			return s.gameManager.StartGame(ctx, connectionID)
		})

	case ActionPlayCards:
		s.runAction(connectionID, msg.Type, func() (any, error) {
			var req PlayCardsRequest
			if err := decodePayload(msg, &req); err != nil {
				return nil, err
			}
			return s.gameManager.PlayCards(connectionID, req.CardIds)
		})

	case ActionPass:
		s.runAction(connectionID, msg.Type, func() (any, error) {
			return s.gameManager.Pass(connectionID)
		})

	case ActionStartNextGame:
		s.runAction(connectionID, msg.Type, func() (any, error) {
			return s.gameManager.StartNextGame(ctx, connectionID)
		})

	default:
		s.sendError(connectionID, ValidateMessageType(msg.Type))
	}
}

// runAction answers an action with "<action>_result".
func (s *Server) runAction(connectionID, action string, fn func() (any, error)) {
	result := s.invoke(connectionID, action, fn)
	s.connectionManager.SendToConnection(connectionID, resultType(action), result)
}

// invoke turns the outcome of fn into an ActionResult. Rule errors keep their
// code; anything else, panics included, is logged and reported as INTERNAL.
func (s *Server) invoke(connectionID, action string, fn func() (any, error)) (result ActionResult) {
	logger := s.logger.With(zap.String("conn", connectionID), zap.String("action", action))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("action panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = internalResult()
		}
	}()

	data, err := fn()
	if err == nil {
		return ActionResult{Success: true, Data: data}
	}

	var rule *presidente.Error
	if errors.As(err, &rule) {
		logger.Debug("action rejected", zap.String("code", rule.Code))
		return ActionResult{Code: rule.Code, Error: rule.Message}
	}

	logger.Error("action failed", zap.Error(err))
	return internalResult()
}

func internalResult() ActionResult {
	return ActionResult{Code: "INTERNAL", Error: "internal error"}
}

func decodePayload(msg ClientMessage, v any) error {
	if len(msg.Payload) == 0 {
		return presidente.NewError(ErrInvalidPayload.Code, fmt.Sprintf("Missing %s payload", msg.Type))
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return presidente.NewError(ErrInvalidPayload.Code, fmt.Sprintf("Invalid %s payload", msg.Type))
	}
	return nil
}

func (s *Server) sendError(connectionID string, err error) {
	msg := ErrorMessage{Message: err.Error()}

	var rule *presidente.Error
	if errors.As(err, &rule) {
		msg = ErrorMessage{Code: rule.Code, Message: rule.Message}
	}

	s.connectionManager.SendToConnection(connectionID, "error", msg)
}
