package db

import (
	"strings"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/db/migrations"
)

// SchemaVersion returns the number of SQL migration files, which equals the
// schema version this binary migrates to. The health endpoint reports it.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			count++
		}
	}

	return count
}
