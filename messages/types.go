package messages

import "encoding/json"

// MessageType defines the type of message being sent
type MessageType string

const (
	MessageTypeCreateWorld        MessageType = "create_world"
	MessageTypeLoadWorld          MessageType = "load_world"
	MessageTypeSaveWorld          MessageType = "save_world"
	MessageTypeSpawn              MessageType = "spawn"
	MessageTypeSpawnMultiple      MessageType = "spawn_multiple"
	MessageTypeAction             MessageType = "action"
	MessageTypeSpawnResponse      MessageType = "spawn_response"
	MessageTypeMultiSpawnResponse MessageType = "multi_spawn_response"
	MessageTypeActionResponse     MessageType = "action_response"
	MessageTypeError              MessageType = "error"
)

// BaseMessage is the envelope for every outbound message
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// InboundMessage is the envelope as read off the wire; the payload is
// decoded once the type is known.
type InboundMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ActionType names an action an agent can request.
type ActionType string

const (
	ActionMove       ActionType = "move"
	ActionTurnLeft   ActionType = "turnLeft"
	ActionTurnRight  ActionType = "turnRight"
	ActionShoot      ActionType = "shoot"
	ActionPickUpGold ActionType = "pickUpGold"
	ActionExit       ActionType = "exit"
)

// Outcome is one entry of an action response.
type Outcome string

const (
	OutcomeBump                Outcome = "bump"
	OutcomeOtherAgentCollision Outcome = "otherAgentCollision"
	OutcomeKilledAgent         Outcome = "killedAgent"
	OutcomeDead                Outcome = "dead"
	OutcomeScream              Outcome = "scream"
	OutcomeSilence             Outcome = "silence"
	OutcomeShiny               Outcome = "shiny"
	OutcomeDrafty              Outcome = "drafty"
	OutcomeStinky              Outcome = "stinky"
	OutcomeGoldFound           Outcome = "goldFound"
	OutcomeNotAllowed          Outcome = "notAllowed"
	OutcomeExited              Outcome = "exited"
	OutcomeYourTurn            Outcome = "yourTurn"
)

// CreateWorld asks for a freshly generated world
type CreateWorld struct {
	HasArrow    bool `json:"has_arrow"`
	WumpusCount int  `json:"wumpus_count"`
	TrapCount   int  `json:"trap_count"`
	Size        int  `json:"size"`
}

// LoadWorld replaces the current world with a stored one
type LoadWorld struct {
	WorldPath string `json:"world_path"`
}

// SaveWorld stores the current world
type SaveWorld struct {
	Destination string `json:"destination"`
}

// SpawnParticipant places an agent (positive id) or possesses a wumpus
// (negative id)
type SpawnParticipant struct {
	AgentID int `json:"agent_id"`
}

// PlacementRequest is one entry of a multi-spawn. Heading -1 picks a random
// heading.
type PlacementRequest struct {
	AgentID int `json:"agent_id"`
	X       int `json:"x"`
	Y       int `json:"y"`
	Heading int `json:"heading"`
}

// SpawnMultiple places a batch of agents atomically
type SpawnMultiple struct {
	Requests []PlacementRequest `json:"requests"`
}

// ActionRequest is an action from the participant holding the turn.
// Direction is only read for wumpus moves.
type ActionRequest struct {
	AgentID   int        `json:"agent_id"`
	Action    ActionType `json:"action"`
	Direction *int       `json:"direction,omitempty"`
}

// SpawnResponse reports a placed agent
type SpawnResponse struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	AgentID   int  `json:"agent_id"`
	FieldSize int  `json:"field_size"`
	HasArrow  bool `json:"has_arrow"`
	Heading   int  `json:"heading"`
}

// MultiSpawnResponse reports the result of a multi-spawn
type MultiSpawnResponse struct {
	Success bool `json:"success"`
}

// ActionResponse reports the result of an action, a death or a turn change
type ActionResponse struct {
	AgentID  int       `json:"agent_id"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Heading  int       `json:"heading"`
	Outcomes []Outcome `json:"outcomes"`
}

// Has reports whether the response carries outcome o.
func (r ActionResponse) Has(o Outcome) bool {
	for _, got := range r.Outcomes {
		if got == o {
			return true
		}
	}
	return false
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
