package handlers

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"wumpus-simulator/messages"
)

// Sender is the outbound half of a client connection
type Sender interface {
	SendMessage(msg interface{}) error
}

// ClientManager manages connected clients and broadcasts every simulator
// event to all of them.
type ClientManager struct {
	clients map[string]Sender // Map session ID to connection
	mutex   sync.RWMutex
}

// NewClientManager creates a new client manager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]Sender),
	}
}

// AddClient registers a connection and returns its session ID
func (cm *ClientManager) AddClient(conn Sender) string {
	id := uuid.NewString()
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[id] = conn
	return id
}

// RemoveClient removes a client from the manager
func (cm *ClientManager) RemoveClient(sessionID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.clients, sessionID)
}

// Count returns the number of connected clients
func (cm *ClientManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// BroadcastToAll sends a message to all connected clients
func (cm *ClientManager) BroadcastToAll(msg interface{}) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for id, client := range cm.clients {
		if err := client.SendMessage(msg); err != nil {
			log.Printf("Error broadcasting to client %s: %v", id, err)
		}
	}
}

func (cm *ClientManager) PublishSpawn(msg messages.SpawnResponse) {
	cm.BroadcastToAll(messages.BaseMessage{Type: messages.MessageTypeSpawnResponse, Payload: msg})
}

func (cm *ClientManager) PublishMultiSpawn(msg messages.MultiSpawnResponse) {
	cm.BroadcastToAll(messages.BaseMessage{Type: messages.MessageTypeMultiSpawnResponse, Payload: msg})
}

func (cm *ClientManager) PublishAction(msg messages.ActionResponse) {
	cm.BroadcastToAll(messages.BaseMessage{Type: messages.MessageTypeActionResponse, Payload: msg})
}
