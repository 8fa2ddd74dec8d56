package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"presidente-server/internal/database"
)

type Server struct {
	cfg    Config
	logger *zap.Logger
	db     database.Service

	rooms             *RoomManager
	connectionManager *ConnectionManager
	gameManager       *GameManager
	rateLimiter       *RateLimiter
	connectionHealth  *ConnectionHealth
}

// New wires the server. db may be nil, which disables the results archive.
func New(cfg Config, logger *zap.Logger, db database.Service) *Server {
	connections := NewConnectionManager(logger)
	rooms := NewRoomManager()

	opts := []GameManagerOption{WithExchangeDelay(cfg.ExchangeDelay)}
	if db != nil {
		opts = append(opts, WithResultStore(db))
	}

	return &Server{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		rooms:             rooms,
		connectionManager: connections,
		gameManager:       NewGameManager(rooms, connections, logger, opts...),
		rateLimiter:       NewRateLimiter(cfg.RateLimitPerSecond, time.Second),
		connectionHealth:  NewConnectionHealth(),
	}
}

func NewServer(cfg Config, logger *zap.Logger, db database.Service) (*Server, *http.Server) {
	s := New(cfg, logger, db)

	// No read or write timeouts: they would cut long-lived websockets.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, httpServer
}

// Run starts background tasks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.cleanupTask(ctx)
}

// Shutdown closes every websocket so players see the server going away.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.connectionManager.CloseAll(websocket.StatusGoingAway, "Server shutting down")
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cleanupTask sweeps idle rooms and connections every CleanupInterval.
func (s *Server) cleanupTask(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() {
	removed := s.gameManager.CleanupInactive(s.cfg.RoomIdleTimeout)
	for _, code := range removed {
		s.connectionManager.DropRoom(code)
	}

	s.rateLimiter.Cleanup()

	idle := s.connectionHealth.GetInactiveConnections(s.cfg.RoomIdleTimeout)
	for _, connID := range idle {
		if conn := s.connectionManager.GetConnection(connID); conn != nil {
			go func() {
				if err := conn.Close(websocket.StatusPolicyViolation, "Idle timeout"); err != nil {
					s.logger.Debug("close idle connection", zap.String("conn", connID), zap.Error(err))
				}
			}()
		}
	}

	if len(removed) > 0 || len(idle) > 0 {
		s.logger.Info("cleanup sweep",
			zap.Int("rooms_removed", len(removed)),
			zap.Int("connections_closed", len(idle)),
			zap.Int("rooms", s.rooms.Count()))
	}
}
