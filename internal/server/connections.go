package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// ConnectionManager tracks open websockets and which room group each one
// listens to. It implements Notifier.
type ConnectionManager struct {
	connections map[string]*websocket.Conn     // connectionID → socket
	groups      map[string]map[string]struct{} // roomID → connectionIDs
	memberOf    map[string]string              // connectionID → roomID
	mu          sync.RWMutex

	logger *zap.Logger
}

func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		groups:      make(map[string]map[string]struct{}),
		memberOf:    make(map[string]string),
		logger:      logger,
	}
}

func (cm *ConnectionManager) AddConnection(id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = conn
}

// RemoveConnection forgets the socket and its group membership.
func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	delete(cm.connections, id)
	cm.leaveLocked(id)
}

// GetConnection returns websocket for connectionID
func (cm *ConnectionManager) GetConnection(connectionID string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.connections[connectionID]
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// AddToRoom moves the connection into the room's group. A connection listens
// to at most one room.
func (cm *ConnectionManager) AddToRoom(connectionId, roomId string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.leaveLocked(connectionId)

	members, ok := cm.groups[roomId]
	if !ok {
		members = make(map[string]struct{})
		cm.groups[roomId] = members
	}
	members[connectionId] = struct{}{}
	cm.memberOf[connectionId] = roomId
}

func (cm *ConnectionManager) RemoveFromRoom(connectionId, roomId string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.memberOf[connectionId] == roomId {
		cm.leaveLocked(connectionId)
	}
}

// DropRoom dissolves a room's group.
func (cm *ConnectionManager) DropRoom(roomId string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for connId := range cm.groups[roomId] {
		delete(cm.memberOf, connId)
	}
	delete(cm.groups, roomId)
}

// RoomMembers lists the connections in a room's group.
func (cm *ConnectionManager) RoomMembers(roomId string) []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	members := make([]string, 0, len(cm.groups[roomId]))
	for connId := range cm.groups[roomId] {
		members = append(members, connId)
	}
	return members
}

func (cm *ConnectionManager) leaveLocked(connectionId string) {
	roomId, ok := cm.memberOf[connectionId]
	if !ok {
		return
	}

	delete(cm.memberOf, connectionId)
	if members := cm.groups[roomId]; members != nil {
		delete(members, connectionId)
		if len(members) == 0 {
			delete(cm.groups, roomId)
		}
	}
}

func (cm *ConnectionManager) BroadcastToRoom(roomId, event string, payload any) {
	data, err := json.Marshal(ServerMessage{Type: event, Payload: payload})
	if err != nil {
		cm.logger.Error("marshal broadcast", zap.String("room", roomId), zap.String("event", event), zap.Error(err))
		return
	}

	for _, connId := range cm.RoomMembers(roomId) {
		cm.write(connId, event, data)
	}
}

func (cm *ConnectionManager) SendToConnection(connectionId, event string, payload any) {
	data, err := json.Marshal(ServerMessage{Type: event, Payload: payload})
	if err != nil {
		cm.logger.Error("marshal message", zap.String("conn", connectionId), zap.String("event", event), zap.Error(err))
		return
	}

	cm.write(connectionId, event, data)
}

func (cm *ConnectionManager) write(connectionId, event string, data []byte) {
	conn := cm.GetConnection(connectionId)
	if conn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		cm.logger.Debug("write failed",
			zap.String("conn", connectionId),
			zap.String("event", event),
			zap.Error(err))
	}
}

// CloseAll closes every open socket with the given status.
func (cm *ConnectionManager) CloseAll(code websocket.StatusCode, reason string) {
	cm.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(cm.connections))
	for id, conn := range cm.connections {
		conns[id] = conn
	}
	cm.mu.RUnlock()

	for id, conn := range conns {
		if err := conn.Close(code, reason); err != nil {
			cm.logger.Debug("close connection", zap.String("conn", id), zap.Error(err))
		}
	}
}
