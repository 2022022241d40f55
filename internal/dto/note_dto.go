package dto

import (
	"time"
)

type OpenSessionResponse struct {
	Token     string    `json:"token"`
	SessionId string    `json:"session_id"`
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateBufferRequest struct {
	Content string `json:"content"`
}

type NoteResponse struct {
	Address   string    `json:"address"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionResponse is the Local View together with the session's edit state.
type SessionResponse struct {
	SessionId     string          `json:"session_id"`
	Owner         string          `json:"owner"`
	State         string          `json:"state"`
	Editing       *string         `json:"editing,omitempty"`
	Buffer        string          `json:"buffer,omitempty"`
	Pending       string          `json:"pending,omitempty"`
	PendingTarget *string         `json:"pending_target,omitempty"`
	Notes         []*NoteResponse `json:"notes"`
	ReconciledAt  *time.Time      `json:"reconciled_at,omitempty"`
	Stale         bool            `json:"stale"`
}

// OperationResult reports a confirmed mutation. Refreshed is false when the
// commitment succeeded but the follow-up query did not, leaving a stale view.
type OperationResult struct {
	Operation string `json:"operation"`
	Address   string `json:"address"`
	Refreshed bool   `json:"refreshed"`
}

// VaultEvent is pushed to the session's websocket stream.
type VaultEvent struct {
	Type       string    `json:"type"`
	SessionId  string    `json:"session_id"`
	Owner      string    `json:"owner"`
	Operation  string    `json:"operation,omitempty"`
	Address    string    `json:"address,omitempty"`
	Error      string    `json:"error,omitempty"`
	NoteCount  int       `json:"note_count"`
	OccurredAt time.Time `json:"occurred_at"`
}
