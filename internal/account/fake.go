package account

import (
	"context"
	"os"
	"path/filepath"
)

// FakeCloner creates the target directory instead of fetching anything. Files maps
// a repository URL to files (relative path -> content) materialized in the checkout.
type FakeCloner struct {
	Files  map[string]map[string]string
	Err    error
	Clones []string
}

// Clone implements Cloner.
func (f *FakeCloner) Clone(_ context.Context, url, dir string) error {
	f.Clones = append(f.Clones, url)
	if f.Err != nil {
		return f.Err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for rel, content := range f.Files[url] {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
