package audit

import (
	"context"
	"fmt"
)

// Profile selects which backend Open returns.
type Profile string

const (
	ProfileLite     Profile = "lite"
	ProfileStandard Profile = "standard"
)

// Config carries the settings needed by either profile.
type Config struct {
	Profile       Profile
	SQLitePath    string
	PostgresDSN   string
	MigrationsDir string
}

// Open returns the audit Store matching cfg.Profile: SQLite for Lite,
// Postgres (with goose migrations applied) for Standard.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Profile {
	case ProfileLite, "":
		return OpenSQLite(cfg.SQLitePath)
	case ProfileStandard:
		return OpenPostgres(ctx, cfg.PostgresDSN, cfg.MigrationsDir)
	default:
		return nil, fmt.Errorf("audit: unknown profile %q", cfg.Profile)
	}
}
