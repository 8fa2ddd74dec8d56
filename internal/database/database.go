package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service is the results archive. Rooms themselves live only in memory.
type Service interface {
	// Health reports pool statistics for the health endpoint.
	Health() map[string]string

	// EnsureSchema creates the archive table when it is missing.
	EnsureSchema(ctx context.Context) error

	SaveGameResult(ctx context.Context, result GameResult) error

	// RecentResults returns up to limit results for a room, newest first.
	RecentResults(ctx context.Context, roomCode string, limit int) ([]GameResult, error)

	Close()
}

type GameResult struct {
	RoomCode   string          `json:"roomCode"`
	GameNumber int             `json:"gameNumber"`
	FinishedAt time.Time       `json:"finishedAt"`
	Rankings   []RankingRecord `json:"rankings"`
}

type RankingRecord struct {
	PlayerId string `json:"playerId"`
	Name     string `json:"name"`
	Standing string `json:"standing"`
	Position int    `json:"position"`
}

type service struct {
	pool *pgxpool.Pool
}

const (
	createResultsTable = `
		CREATE TABLE IF NOT EXISTS game_results (
			id          BIGSERIAL PRIMARY KEY,
			room_code   TEXT        NOT NULL,
			game_number INTEGER     NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			rankings    JSONB       NOT NULL
		)`

	createResultsIndex = `
		CREATE INDEX IF NOT EXISTS game_results_room_finished_idx
		ON game_results (room_code, finished_at DESC)`
)

func New(ctx context.Context, databaseURL string) (Service, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &service{pool: pool}, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	poolStats := s.pool.Stat()
	stats["total_connections"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_connections"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_connections"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["max_connections"] = strconv.Itoa(int(poolStats.MaxConns()))
	stats["acquire_count"] = strconv.FormatInt(poolStats.AcquireCount(), 10)

	if poolStats.AcquiredConns() >= poolStats.MaxConns() {
		stats["message"] = "The database pool is exhausted."
	}

	return stats
}

func (s *service) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createResultsTable, createResultsIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *service) SaveGameResult(ctx context.Context, result GameResult) error {
	rankings, err := json.Marshal(result.Rankings)
	if err != nil {
		return fmt.Errorf("encode rankings: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_results (room_code, game_number, finished_at, rankings) VALUES ($1, $2, $3, $4)`,
		result.RoomCode, result.GameNumber, result.FinishedAt, rankings,
	)
	if err != nil {
		return fmt.Errorf("save result for room %s: %w", result.RoomCode, err)
	}

	return nil
}

func (s *service) RecentResults(ctx context.Context, roomCode string, limit int) ([]GameResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT room_code, game_number, finished_at, rankings
		 FROM game_results
		 WHERE room_code = $1
		 ORDER BY finished_at DESC, id DESC
		 LIMIT $2`,
		roomCode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query results for room %s: %w", roomCode, err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (GameResult, error) {
		var (
			result   GameResult
			rankings []byte
		)
		if err := row.Scan(&result.RoomCode, &result.GameNumber, &result.FinishedAt, &rankings); err != nil {
			return GameResult{}, err
		}
		if err := json.Unmarshal(rankings, &result.Rankings); err != nil {
			return GameResult{}, fmt.Errorf("decode rankings: %w", err)
		}
		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read results for room %s: %w", roomCode, err)
	}

	return results, nil
}

func (s *service) Close() {
	s.pool.Close()
}
