package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/strataga/foreman/internal/config"
	"github.com/strataga/foreman/internal/state"
)

// openStore opens the state database from config, falling back to the
// XDG default path.
func openStore(cfg *config.Config) (*state.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		path = state.DefaultDBPath()
	}
	db, err := state.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	return db, nil
}

// teamRunDir returns the per-team run directory that holds control signals.
func teamRunDir(teamID string) string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "foreman", "runs", teamID)
}
