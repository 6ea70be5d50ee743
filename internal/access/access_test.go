package access

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"debian-bootstrap/internal/account"
	"debian-bootstrap/internal/installer"
	"debian-bootstrap/internal/system"
)

var alice = account.Account{Name: "alice", UID: 1000, GID: 1000, HomeDir: "/home/alice"}

func newGranter(t *testing.T) (Granter, *system.FakeRunner) {
	t.Helper()
	r := system.NewFakeRunner()
	r.On("dpkg-query -W -f=${Status} sudo", "install ok installed", nil)
	return Granter{
		Apt:        installer.Apt{Runner: r},
		Runner:     r,
		SudoersDir: filepath.Join(t.TempDir(), "sudoers.d"),
	}, r
}

func TestGrantSudo(t *testing.T) {
	g, r := newGranter(t)
	path := filepath.Join(g.SudoersDir, "90-alice-nopasswd")

	// The live fragment must not exist while visudo checks the new one.
	r.Hook = func(line string) {
		if strings.HasPrefix(line, "visudo -cf "+filepath.Join(g.SudoersDir, ".90-alice-nopasswd.")) {
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("fragment live before validation")
			}
		}
	}

	if err := g.GrantSudo(context.Background(), alice); err != nil {
		t.Fatalf("GrantSudo: %v", err)
	}
	if len(r.Calls) == 0 || !strings.HasPrefix(r.Calls[len(r.Calls)-1], "visudo -cf "+filepath.Join(g.SudoersDir, ".90-alice-nopasswd.")) {
		t.Fatalf("staged fragment not validated: %v", r.Calls)
	}
	entries, _ := os.ReadDir(g.SudoersDir)
	if len(entries) != 1 || entries[0].Name() != "90-alice-nopasswd" {
		t.Fatalf("sudoers dir = %v", entries)
	}

	if err := g.GrantSudo(context.Background(), alice); err != nil {
		t.Fatalf("second GrantSudo: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "alice ALL=(ALL) NOPASSWD: ALL\n" {
		t.Fatalf("fragment = %q", data)
	}
	st, _ := os.Stat(path)
	if st.Mode().Perm() != 0o440 {
		t.Fatalf("mode = %v", st.Mode().Perm())
	}
	if !r.Called("visudo -cf " + path) {
		t.Fatalf("fragment not validated: %v", r.Calls)
	}
}

func TestGrantSudoInvalidFragmentAborts(t *testing.T) {
	g, r := newGranter(t)
	path := g.SudoersPath("alice")
	r.Hook = func(line string) {
		if strings.HasPrefix(line, "visudo ") {
			r.On(line, "parse error", errors.New("exit status 1"))
		}
	}

	if err := g.GrantSudo(context.Background(), alice); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("invalid fragment installed")
	}
	if entries, _ := os.ReadDir(g.SudoersDir); len(entries) != 0 {
		t.Fatalf("staged fragment left behind: %v", entries)
	}
}

func TestGrantSudoRejectedChangeKeepsLiveFragment(t *testing.T) {
	g, r := newGranter(t)
	path := g.SudoersPath("alice")
	if err := os.MkdirAll(g.SudoersDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("alice ALL=(ALL) ALL\n"), 0o440); err != nil {
		t.Fatal(err)
	}
	r.Hook = func(line string) {
		if strings.HasPrefix(line, "visudo ") {
			r.On(line, "parse error", errors.New("exit status 1"))
		}
	}

	if err := g.GrantSudo(context.Background(), alice); err == nil {
		t.Fatal("expected validation error")
	}
	if data, _ := os.ReadFile(path); string(data) != "alice ALL=(ALL) ALL\n" {
		t.Fatalf("live fragment replaced: %q", data)
	}
}

func TestGrantGroup(t *testing.T) {
	g, r := newGranter(t)
	r.On("getent group docker", "", errors.New("exit status 2"))
	r.On("id -nG alice", "alice cdrom sudo\n", nil)

	if err := g.GrantGroup(context.Background(), alice, "docker"); err != nil {
		t.Fatalf("GrantGroup: %v", err)
	}
	if !r.Called("groupadd docker") || !r.Called("usermod -aG docker alice") {
		t.Fatalf("calls = %v", r.Calls)
	}
}

func TestGrantGroupAlreadyMember(t *testing.T) {
	g, r := newGranter(t)
	r.On("getent group docker", "docker:x:999:alice\n", nil)
	r.On("id -nG alice", "alice docker\n", nil)

	if err := g.GrantGroup(context.Background(), alice, "docker"); err != nil {
		t.Fatalf("GrantGroup: %v", err)
	}
	if r.Called("groupadd") || r.Called("usermod") {
		t.Fatalf("unexpected mutation: %v", r.Calls)
	}
}

func TestRootIsRefusedWithoutMutation(t *testing.T) {
	g, r := newGranter(t)
	root := account.Account{Name: "root", HomeDir: "/root"}

	if err := g.GrantSudo(context.Background(), root); !errors.Is(err, ErrRootAccount) {
		t.Fatalf("GrantSudo(root) = %v", err)
	}
	if err := g.GrantGroup(context.Background(), root, "docker"); !errors.Is(err, ErrRootAccount) {
		t.Fatalf("GrantGroup(root) = %v", err)
	}
	if len(r.Calls) != 0 {
		t.Fatalf("root grant ran commands: %v", r.Calls)
	}
	if _, err := os.Stat(g.SudoersDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("root grant touched the sudoers dir")
	}
}
