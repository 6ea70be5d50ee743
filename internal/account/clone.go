package account

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"

	"debian-bootstrap/internal/logger"
)

// Cloner checks out a repository into dir.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner performs shallow, single-branch clones with go-git.
type GitCloner struct{}

// Clone implements Cloner.
func (GitCloner) Clone(ctx context.Context, url, dir string) error {
	logger.Debug("[DEBUG] Cloning %s into %s (depth 1)\n", url, dir)
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}
