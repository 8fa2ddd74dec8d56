package server

import (
	"fmt"
	"sync"
	"time"
)

const maxRoomCodeAttempts = 10

// RoomManager is the registry of live rooms keyed by code. Locks are always
// taken registry first, room second.
type RoomManager struct {
	rooms map[string]*Room
	mu    sync.RWMutex

	now      func() time.Time
	nextCode func() string
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:    make(map[string]*Room),
		now:      time.Now,
		nextCode: GenerateRoomCode,
	}
}

// CreateRoom registers a room under a fresh code. Codes that collide with a
// live room are redrawn a bounded number of times.
func (rm *RoomManager) CreateRoom(name, creatorConnectionId string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for range maxRoomCodeAttempts {
		code := NormalizeRoomCode(rm.nextCode())
		if _, taken := rm.rooms[code]; taken {
			continue
		}

		room := NewRoom(code, name, creatorConnectionId, rm.now())
		rm.rooms[code] = room
		return room, nil
	}

	return nil, fmt.Errorf("allocate room code: %d attempts collided", maxRoomCodeAttempts)
}

func (rm *RoomManager) GetRoom(code string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, ok := rm.rooms[NormalizeRoomCode(code)]
	return room, ok
}

func (rm *RoomManager) RemoveRoom(code string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code = NormalizeRoomCode(code)
	room, ok := rm.rooms[code]
	if !ok {
		return false
	}

	room.mu.Lock()
	room.closed = true
	room.mu.Unlock()

	delete(rm.rooms, code)
	return true
}

// RemoveRoomIfEmpty drops the room only if nobody joined it in the meantime.
func (rm *RoomManager) RemoveRoomIfEmpty(code string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code = NormalizeRoomCode(code)
	room, ok := rm.rooms[code]
	if !ok {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.State.Players) > 0 {
		return false
	}

	room.closed = true
	delete(rm.rooms, code)
	return true
}

// FindRoomByConnection scans every room for a player bound to connectionId.
func (rm *RoomManager) FindRoomByConnection(connectionId string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	for _, room := range rm.rooms {
		if room.hasConnection(connectionId) {
			return room
		}
	}
	return nil
}

// RoomsAwaitingCreator lists rooms created by connectionId that it never
// took a seat in.
func (rm *RoomManager) RoomsAwaitingCreator(connectionId string) []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var rooms []*Room
	for _, room := range rm.rooms {
		if room.awaitsCreator(connectionId) {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// CleanupInactive removes rooms idle for longer than threshold and returns
// them closed.
func (rm *RoomManager) CleanupInactive(threshold time.Duration) []*Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cutoff := rm.now().Add(-threshold)
	removed := make([]*Room, 0)

	for code, room := range rm.rooms {
		room.mu.Lock()
		if room.lastActivityAt.Before(cutoff) {
			room.closed = true
			delete(rm.rooms, code)
			removed = append(removed, room)
		}
		room.mu.Unlock()
	}

	return removed
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}
