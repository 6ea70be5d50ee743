package account

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestLoginShell(t *testing.T) {
	passwd := filepath.Join(t.TempDir(), "passwd")
	content := "root:x:0:0:root:/root:/bin/bash\nalice:x:1000:1000:Alice,,,:/home/alice:/usr/bin/zsh\nbroken:line\n"
	if err := os.WriteFile(passwd, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	for name, want := range map[string]string{"root": "/bin/bash", "alice": "/usr/bin/zsh", "bob": ""} {
		got, err := LoginShell(passwd, name)
		if err != nil {
			t.Fatalf("LoginShell(%s): %v", name, err)
		}
		if got != want {
			t.Fatalf("LoginShell(%s) = %q, want %q", name, got, want)
		}
	}
}

func TestIsRoot(t *testing.T) {
	if !(Account{Name: "root"}).IsRoot() || !(Account{Name: "toor", UID: 0}).IsRoot() {
		t.Fatal("root not detected")
	}
	if (Account{Name: "alice", UID: 1000}).IsRoot() {
		t.Fatal("alice detected as root")
	}
}

func TestForPicksVariant(t *testing.T) {
	if _, ok := For(Account{Name: "root"}, nil).(Direct); !ok {
		t.Fatal("root should get a Direct executor")
	}
	if _, ok := For(Account{Name: "alice", UID: 1000}, nil).(Switched); !ok {
		t.Fatal("alice should get a Switched executor")
	}
}

type chownRecorder struct {
	paths []string
}

func (c *chownRecorder) chown(path string, uid, gid int) error {
	c.paths = append(c.paths, path)
	return nil
}

func TestSwitchedChownsEverythingItCreates(t *testing.T) {
	home := t.TempDir()
	rec := &chownRecorder{}
	cloner := &FakeCloner{Files: map[string]map[string]string{
		"https://example.test/fw.git": {"templates/zshrc.zsh-template": "x\n"},
	}}
	exec := Switched{Acct: Account{Name: "alice", UID: 1000, GID: 1000, HomeDir: home}, Cloner: cloner, Chown: rec.chown}

	fw := filepath.Join(home, ".oh-my-zsh")
	if err := exec.Clone(context.Background(), "https://example.test/fw.git", fw); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if err := exec.MkdirAll(filepath.Join(fw, "custom", "plugins"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := exec.WriteFile(filepath.Join(home, ".zshrc"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	want := []string{
		fw,
		filepath.Join(fw, "templates"),
		filepath.Join(fw, "templates", "zshrc.zsh-template"),
		filepath.Join(fw, "custom"),
		filepath.Join(fw, "custom", "plugins"),
		filepath.Join(home, ".zshrc"),
	}
	got := append([]string(nil), rec.paths...)
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("chowned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chowned %v, want %v", got, want)
		}
	}
	if home == rec.paths[0] {
		t.Fatal("pre-existing home directory must not be chowned")
	}
}

func TestMissingDirs(t *testing.T) {
	root := t.TempDir()
	got := missingDirs(filepath.Join(root, "a", "b"))
	if len(got) != 2 || got[0] != filepath.Join(root, "a") || got[1] != filepath.Join(root, "a", "b") {
		t.Fatalf("missingDirs = %v", got)
	}
	if got := missingDirs(root); len(got) != 0 {
		t.Fatalf("existing dir reported missing: %v", got)
	}
}
