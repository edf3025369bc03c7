package storage

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl + snapshot)
//   - "sqlite": SQLite database file
//   - "memory": process-local, lost on restart
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the dispatcher and the telegram transport.
type Store interface {
	AppendAudit(ctx context.Context, e AuditEntry) error

	// AddSubscriber reports whether id was newly added.
	AddSubscriber(ctx context.Context, chatID int64) (bool, error)
	// RemoveSubscriber reports whether id was present.
	RemoveSubscriber(ctx context.Context, chatID int64) (bool, error)
	// Subscribers lists chat ids in ascending order.
	Subscribers(ctx context.Context) ([]int64, error)

	Close() error
}

// AuditEntry records one dispatch attempt.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At       time.Time `json:"at"`
	Tier     string    `json:"tier"`
	Content  string    `json:"content"`
	Channels string    `json:"channels"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	TookMS   int64     `json:"took_ms"`
}
