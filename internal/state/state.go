package state

import (
	"encoding/json" // For JSON encoding and decoding of the journal file
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"debian-bootstrap/internal/logger"
)

// Journal records what the last successful run did. It is informational only:
// no step reads it to decide whether to act, that is always decided from the host itself.
type Journal struct {
	LastRun  time.Time `json:"last_run"`           // Completion time of the last successful run
	Operator string    `json:"operator"`           // Account the run was made for
	Hostname string    `json:"hostname,omitempty"` // Hostname applied by --rename, if any
	Backups  []string  `json:"backups"`            // Every backup file produced, oldest first
}

// Load reads the journal at path. A missing file yields an empty journal.
func Load(path string) (*Journal, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Journal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", path, err)
	}

	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		// A corrupt journal is not worth failing a run over.
		logger.Warn("[WARN] Ignoring unreadable journal %s: %v\n", path, err)
		return &Journal{}, nil
	}
	return &j, nil
}

// Record appends backup paths, skipping empty ones.
func (j *Journal) Record(backups ...string) {
	for _, b := range backups {
		if b != "" {
			j.Backups = append(j.Backups, b)
		}
	}
}

// Save writes the journal as indented JSON, creating its directory.
func Save(path string, j *Journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}
	logger.Debug("[DEBUG] Writing journal to %s:\n%s\n", path, string(data))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write journal %s: %w", path, err)
	}
	return nil
}
