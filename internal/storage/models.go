package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SyncFailure records a remote mirror write that did not reach the backend.
type SyncFailure struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`   // "profile", "project", "internship"
	Op        string    `json:"op"`       // "save", "create", "update", "delete"
	TargetID  string    `json:"targetId"` // empty for the profile singleton
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"createdAt"`
}
