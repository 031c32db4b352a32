package models

import "time"

// SyncFailure is a remote write that did not reach the store.
type SyncFailure struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"-"`
	Kind       string    `json:"kind"`
	Op         string    `json:"op"`
	EntityIDs  []string  `json:"entity_ids,omitempty"`
	Chunk      int       `json:"chunk"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SyncFailureQuery holds filters for listing sync failures.
type SyncFailureQuery struct {
	Kind   string
	Since  *time.Time
	Limit  int
	Offset int
}
