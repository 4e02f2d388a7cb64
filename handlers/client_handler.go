package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gorilla/websocket"

	"wumpus-simulator/messages"
	"wumpus-simulator/network"
	"wumpus-simulator/persistence"
	"wumpus-simulator/services"
)

// Engine is the part of the simulator a client can drive
type Engine interface {
	CreateWorld(config services.WorldConfig) error
	LoadWorld(path string) error
	SaveWorld(dest string) error
	Spawn(id int) error
	SpawnMultiple(reqs []messages.PlacementRequest) error
	HandleAction(req messages.ActionRequest) error
}

// ClientHandler manages a single client connection
type ClientHandler struct {
	conn          Sender
	engine        Engine
	clientManager *ClientManager
	sessionID     string
}

// NewClientHandler registers conn with the manager
func NewClientHandler(conn Sender, engine Engine, clientManager *ClientManager) *ClientHandler {
	return &ClientHandler{
		conn:          conn,
		engine:        engine,
		clientManager: clientManager,
		sessionID:     clientManager.AddClient(conn),
	}
}

// HandleClientConnection serves one websocket client until it disconnects
func HandleClientConnection(wsConn *websocket.Conn, engine Engine, clientManager *ClientManager) {
	conn := network.NewConnection(wsConn)
	handler := NewClientHandler(conn, engine, clientManager)
	log.Printf("Client %s connected from %s", handler.sessionID, wsConn.RemoteAddr())

	go conn.WritePump()
	conn.ReadPump(handler)

	clientManager.RemoveClient(handler.sessionID)
	log.Printf("Client %s disconnected", handler.sessionID)
}

// SessionID returns the ID the manager knows this client by
func (h *ClientHandler) SessionID() string {
	return h.sessionID
}

// HandleMessage handles incoming messages from the client
func (h *ClientHandler) HandleMessage(_ *network.Connection, message []byte) {
	var baseMsg messages.InboundMessage
	if err := json.Unmarshal(message, &baseMsg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		h.sendError("BAD_MESSAGE", "Message is not a valid envelope")
		return
	}

	switch baseMsg.Type {
	case messages.MessageTypeCreateWorld:
		h.handleCreateWorld(baseMsg.Payload)
	case messages.MessageTypeLoadWorld:
		h.handleLoadWorld(baseMsg.Payload)
	case messages.MessageTypeSaveWorld:
		h.handleSaveWorld(baseMsg.Payload)
	case messages.MessageTypeSpawn:
		h.handleSpawn(baseMsg.Payload)
	case messages.MessageTypeSpawnMultiple:
		h.handleSpawnMultiple(baseMsg.Payload)
	case messages.MessageTypeAction:
		h.handleAction(baseMsg.Payload)
	default:
		log.Printf("Unknown message type: %s", baseMsg.Type)
		h.sendError("UNKNOWN_MESSAGE_TYPE", "Unknown message type received")
	}
}

func (h *ClientHandler) handleCreateWorld(payload json.RawMessage) {
	var msg messages.CreateWorld
	if !h.decode(payload, &msg) {
		return
	}
	err := h.engine.CreateWorld(services.WorldConfig{
		HasArrow:    msg.HasArrow,
		WumpusCount: msg.WumpusCount,
		TrapCount:   msg.TrapCount,
		Size:        msg.Size,
	})
	if err != nil {
		log.Printf("Error creating world: %v", err)
		h.sendError(errorCode(err), err.Error())
	}
}

func (h *ClientHandler) handleLoadWorld(payload json.RawMessage) {
	var msg messages.LoadWorld
	if !h.decode(payload, &msg) {
		return
	}
	if err := h.engine.LoadWorld(msg.WorldPath); err != nil {
		log.Printf("Error loading world %q: %v", msg.WorldPath, err)
		h.sendError(errorCode(err), err.Error())
	}
}

func (h *ClientHandler) handleSaveWorld(payload json.RawMessage) {
	var msg messages.SaveWorld
	if !h.decode(payload, &msg) {
		return
	}
	if err := h.engine.SaveWorld(msg.Destination); err != nil {
		log.Printf("Error saving world to %q: %v", msg.Destination, err)
		h.sendError(errorCode(err), err.Error())
	}
}

// Spawn failures are only logged; a successful spawn is announced to every
// client through the manager.
func (h *ClientHandler) handleSpawn(payload json.RawMessage) {
	var msg messages.SpawnParticipant
	if !h.decode(payload, &msg) {
		return
	}
	if err := h.engine.Spawn(msg.AgentID); err != nil {
		log.Printf("Spawn of %d failed: %v", msg.AgentID, err)
	}
}

func (h *ClientHandler) handleSpawnMultiple(payload json.RawMessage) {
	var msg messages.SpawnMultiple
	if !h.decode(payload, &msg) {
		return
	}
	if err := h.engine.SpawnMultiple(msg.Requests); err != nil {
		log.Printf("Multi-spawn failed: %v", err)
	}
}

func (h *ClientHandler) handleAction(payload json.RawMessage) {
	var msg messages.ActionRequest
	if !h.decode(payload, &msg) {
		return
	}
	if err := h.engine.HandleAction(msg); err != nil {
		log.Printf("Action %q of %d rejected: %v", msg.Action, msg.AgentID, err)
	}
}

func (h *ClientHandler) decode(payload json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		log.Printf("Error unmarshaling payload: %v", err)
		h.sendError("BAD_PAYLOAD", "Payload does not match message type")
		return false
	}
	return true
}

func (h *ClientHandler) sendError(code, message string) {
	errMsg := messages.BaseMessage{
		Type: messages.MessageTypeError,
		Payload: messages.ErrorMessage{
			Code:    code,
			Message: message,
		},
	}
	if err := h.conn.SendMessage(errMsg); err != nil {
		log.Printf("Error sending error to client %s: %v", h.sessionID, err)
	}
}

// errorCode maps engine and storage errors onto wire error codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidWorldConfig):
		return "INVALID_WORLD_CONFIG"
	case errors.Is(err, services.ErrAlreadyLoaded):
		return "ALREADY_LOADED"
	case errors.Is(err, services.ErrInvalidState):
		return "NOT_READY"
	case errors.Is(err, services.ErrOutOfBounds):
		return "OUT_OF_BOUNDS"
	case errors.Is(err, persistence.ErrWorldNotFound):
		return "WORLD_NOT_FOUND"
	case errors.Is(err, persistence.ErrParse):
		return "PARSE_ERROR"
	case errors.Is(err, persistence.ErrIO):
		return "IO_ERROR"
	}
	return "INTERNAL"
}
