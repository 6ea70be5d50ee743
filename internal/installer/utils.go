package installer

import (
	"context"
	"errors"
	"fmt"

	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/system"
)

// ErrMissingTool is returned when a required command-line tool is not installed.
var ErrMissingTool = errors.New("required tool not found")

// requireTools fails with ErrMissingTool naming the first tool not on PATH.
func requireTools(r system.Runner, purpose string, tools ...string) error {
	for _, tool := range tools {
		if _, err := r.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s (needed to %s)", ErrMissingTool, tool, purpose)
		}
	}
	return nil
}

// downloadFile fetches url into destPath with curl, failing on HTTP errors.
func downloadFile(ctx context.Context, r system.Runner, url, destPath string) error {
	logger.Debug("[DEBUG] Downloading %s to %s\n", url, destPath)
	if _, err := r.Run(ctx, "curl", "-fsSL", url, "-o", destPath); err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	return nil
}
