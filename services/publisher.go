package services

import "wumpus-simulator/messages"

// Publisher receives every outbound event. Delivery is fire-and-forget:
// implementations must not block the engine and cannot reject an event.
type Publisher interface {
	PublishSpawn(msg messages.SpawnResponse)
	PublishMultiSpawn(msg messages.MultiSpawnResponse)
	PublishAction(msg messages.ActionResponse)
}

// Publishers fans events out to several publishers in order
type Publishers []Publisher

func (ps Publishers) PublishSpawn(msg messages.SpawnResponse) {
	for _, p := range ps {
		p.PublishSpawn(msg)
	}
}

func (ps Publishers) PublishMultiSpawn(msg messages.MultiSpawnResponse) {
	for _, p := range ps {
		p.PublishMultiSpawn(msg)
	}
}

func (ps Publishers) PublishAction(msg messages.ActionResponse) {
	for _, p := range ps {
		p.PublishAction(msg)
	}
}

type discardPublisher struct{}

func (discardPublisher) PublishSpawn(messages.SpawnResponse)           {}
func (discardPublisher) PublishMultiSpawn(messages.MultiSpawnResponse) {}
func (discardPublisher) PublishAction(messages.ActionResponse)         {}
