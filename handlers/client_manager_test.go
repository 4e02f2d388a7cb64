package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus-simulator/messages"
	"wumpus-simulator/services"
)

var _ services.Publisher = (*ClientManager)(nil)

func TestClientManagerBroadcasts(t *testing.T) {
	cm := NewClientManager()
	a, b := &fakeSender{}, &fakeSender{err: errors.New("closed")}
	idA := cm.AddClient(a)
	idB := cm.AddClient(b)
	require.NotEqual(t, idA, idB)
	assert.Equal(t, 2, cm.Count())

	cm.PublishSpawn(messages.SpawnResponse{AgentID: 1})
	cm.PublishAction(messages.ActionResponse{AgentID: 1})
	assert.Len(t, a.sent, 2)
	assert.Len(t, b.sent, 2, "a failing client does not stop the broadcast")
	assert.Equal(t, messages.BaseMessage{
		Type:    messages.MessageTypeSpawnResponse,
		Payload: messages.SpawnResponse{AgentID: 1},
	}, a.sent[0])

	cm.RemoveClient(idB)
	cm.PublishMultiSpawn(messages.MultiSpawnResponse{Success: true})
	assert.Len(t, a.sent, 3)
	assert.Len(t, b.sent, 2)
	assert.Equal(t, messages.MessageTypeMultiSpawnResponse, a.sent[2].(messages.BaseMessage).Type)
}
