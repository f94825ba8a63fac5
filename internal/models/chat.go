package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of a turn. The dashboard currently sends a single text
// part per turn, but the history format keeps the list for forward
// compatibility with multi-part model output.
type Part struct {
	Text string `json:"text"`
}

// Turn is one exchange unit in a chat, authored by "user" or "model".
// Img holds an optional CDN file path and only appears on user turns.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
	Img   string `json:"img,omitempty"`
}

// Chat is one conversation document. History is append-only: turns are added
// one or two at a time and never edited or reordered.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	History   []Turn    `json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatSummary is one entry of a user's denormalized chat index.
type ChatSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// ReconcileReport counts the repairs made by one reconciliation pass over a
// single user's chats and index.
type ReconcileReport struct {
	RestoredSummaries int `json:"restored_summaries"`
	RemovedEntries    int `json:"removed_entries"`
}

type CreateChatRequest struct {
	Text string `json:"text"`
}

type AppendTurnRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Img      string `json:"img"`
}
