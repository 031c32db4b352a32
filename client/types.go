package client

import (
	"time"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ImportOptions holds optional parameters for a GEDCOM import.
type ImportOptions struct {
	// MaxGenerations bounds the walk from the start person. Nil lets the
	// server choose; zero imports the start person and spouses only.
	MaxGenerations *int
	TreeName       string
	Anchor         string
}

// ImportResult is the outcome of a server-side import.
type ImportResult struct {
	Tree     models.Tree          `json:"tree"`
	People   []models.Person      `json:"people"`
	Added    int                  `json:"added"`
	Updated  int                  `json:"updated"`
	Skipped  int                  `json:"skipped"`
	Failures []models.SyncFailure `json:"failures,omitempty"`
}

// SyncFailureListOptions holds filters for listing sync failures.
type SyncFailureListOptions struct {
	Kind   string
	Since  time.Time
	Limit  int
	Offset int
}
