package models

import "time"

// Player is one participant in a lobby.
type Player struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Connected bool      `json:"connected" bson:"connected"`
	// Ready is lobby-phase state; starting the game does not gate on it.
	Ready    bool      `json:"ready" bson:"ready"`
	JoinedAt time.Time `json:"joinedAt" bson:"joined_at"`
}
