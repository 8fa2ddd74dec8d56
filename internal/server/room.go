package server

import (
	"presidente-server/internal/presidente"
	"sync"
	"time"
)

// Room owns one GameState and serializes every mutation of it.
type Room struct {
	Id                  string
	Name                string
	CreatorConnectionId string
	State               *presidente.GameState
	CreatedAt           time.Time

	mu             sync.Mutex
	lastActivityAt time.Time
	closed         bool
	issued         uint64 // delivery tickets handed out, guarded by mu

	deliveryMu sync.Mutex
	delivery   *sync.Cond
	delivered  uint64 // tickets fully delivered, guarded by deliveryMu
}

type RoomSummary struct {
	RoomId         string           `json:"roomId"`
	RoomName       string           `json:"roomName"`
	Phase          presidente.Phase `json:"phase"`
	PlayerCount    int              `json:"playerCount"`
	MaxPlayers     int              `json:"maxPlayers"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastActivityAt time.Time        `json:"lastActivityAt"`
}

func NewRoom(id, name, creatorConnectionId string, now time.Time) *Room {
	r := &Room{
		Id:                  id,
		Name:                name,
		CreatorConnectionId: creatorConnectionId,
		State:               presidente.NewGameState(id),
		CreatedAt:           now,
		lastActivityAt:      now,
	}
	r.delivery = sync.NewCond(&r.deliveryMu)
	return r
}

// do runs fn while holding the room lock. A room already dropped from the
// registry reports ErrRoomNotFound.
func (r *Room) do(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	return fn()
}

// touch must be called with the lock held.
func (r *Room) touch(now time.Time) {
	r.lastActivityAt = now
}

// ticket reserves the next delivery slot. It must be called with the lock
// held, so slots follow the order in which mutations were applied.
func (r *Room) ticket() uint64 {
	t := r.issued
	r.issued++
	return t
}

// awaitDelivery blocks until every slot before t has been delivered. The
// returned func marks t delivered and must always be called.
func (r *Room) awaitDelivery(t uint64) func() {
	r.deliveryMu.Lock()
	for r.delivered != t {
		r.delivery.Wait()
	}
	r.deliveryMu.Unlock()

	return func() {
		r.deliveryMu.Lock()
		r.delivered++
		r.delivery.Broadcast()
		r.deliveryMu.Unlock()
	}
}

func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSummary{
		RoomId:         r.Id,
		RoomName:       r.Name,
		Phase:          r.State.Phase,
		PlayerCount:    len(r.State.Players),
		MaxPlayers:     presidente.MaxPlayers,
		CreatedAt:      r.CreatedAt,
		LastActivityAt: r.lastActivityAt,
	}
}

func (r *Room) hasConnection(connectionId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.State.PlayerByConnection(connectionId) != nil
}

// awaitsCreator reports whether connectionId created the room but never took
// a seat in it.
func (r *Room) awaitsCreator(connectionId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed &&
		r.CreatorConnectionId == connectionId &&
		r.State.PlayerByConnection(connectionId) == nil
}

// promoteNewCreator hands the creator role to the first seated player. It
// returns the new creator, or nil when the room is empty.
func (r *Room) promoteNewCreator() *presidente.Player {
	if len(r.State.Players) == 0 {
		r.CreatorConnectionId = ""
		return nil
	}

	next := r.State.Players[0]
	next.IsRoomCreator = true
	r.CreatorConnectionId = next.ConnectionId
	return next
}
