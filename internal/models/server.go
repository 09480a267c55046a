package models

import (
	"time"
)

type Server struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	OwnerID    string    `json:"owner_id" db:"owner_id"`
	IsPublic   bool      `json:"is_public" db:"is_public"`
	InviteCode string    `json:"invite_code,omitempty" db:"invite_code"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Classroom is what an active member sees when opening a server.
type Classroom struct {
	Server   Server    `json:"server"`
	Channels []Channel `json:"channels"`
	Role     string    `json:"role"`
}

type Channel struct {
	ID        string    `json:"id" db:"id"`
	ServerID  string    `json:"server_id" db:"server_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const DefaultChannelName = "general"
