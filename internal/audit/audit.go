// Package audit records every operator-triggered mutation the coordinator
// performs (model deletion, priority set/unset) to a persisted log, in
// the same Lite/Standard profile split the rest of this system uses for
// storage: SQLite for a single-node deployment, Postgres behind pgx and
// goose migrations for everything else.
package audit

import (
	"context"
	"time"
)

// Action names recorded alongside each entry.
const (
	ActionDeleteModel    = "delete_model"
	ActionSetPriority    = "set_priority"
	ActionRemovePriority = "remove_priority"
)

// Entry is one recorded operator action.
type Entry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Framework string    `json:"framework"`
	Name      string    `json:"name"`
	Version   int64     `json:"version,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and lists audit entries. Both the SQLite and Postgres
// backends implement it identically from the caller's perspective.
type Store interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}
