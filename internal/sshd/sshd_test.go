package sshd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"debian-bootstrap/internal/config"
	"debian-bootstrap/internal/installer"
	"debian-bootstrap/internal/system"
	"debian-bootstrap/internal/textfile"
)

const debianDefault = `Include /etc/ssh/sshd_config.d/*.conf

#PermitRootLogin prohibit-password
#StrictModes yes

#PasswordAuthentication yes
#PermitEmptyPasswords no

KbdInteractiveAuthentication no
UsePAM yes
AllowUsers bob carol

Subsystem	sftp	/usr/lib/openssh/sftp-server
`

func newHardener(t *testing.T) (Hardener, *system.FakeRunner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sshd_config")
	if err := os.WriteFile(path, []byte(debianDefault), 0o644); err != nil {
		t.Fatal(err)
	}
	r := system.NewFakeRunner()
	r.On("dpkg-query -W -f=${Status} openssh-server", "install ok installed", nil)

	cfg := config.Default().SSH
	cfg.ConfigPath = path
	tick := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	h := Hardener{
		Apt:    installer.Apt{Runner: r},
		Runner: r,
		Config: cfg,
		Now: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
	}
	return h, r, path
}

func TestHardenIdempotent(t *testing.T) {
	h, _, path := newHardener(t)

	for i := 0; i < 3; i++ {
		if _, err := h.Harden(context.Background(), "alice"); err != nil {
			t.Fatalf("Harden run %d: %v", i, err)
		}
	}

	data, _ := os.ReadFile(path)
	f := textfile.Parse(string(data), textfile.WithBoundary(textfile.IsMatchBlock))
	want := map[string]string{
		"PermitRootLogin":        "no",
		"PasswordAuthentication": "yes",
		"PermitEmptyPasswords":   "no",
		"AllowUsers":             "alice",
	}
	for key, value := range want {
		if n := f.Count(key); n != 1 {
			t.Fatalf("%s appears %d times:\n%s", key, n, data)
		}
		if got, _ := f.Directive(key); got != value {
			t.Fatalf("%s = %q, want %q", key, got, value)
		}
	}
	if !strings.Contains(string(data), "Subsystem\tsftp\t/usr/lib/openssh/sftp-server\n") {
		t.Fatalf("unrelated line changed:\n%s", data)
	}
}

func TestHardenBacksUpFirst(t *testing.T) {
	h, _, path := newHardener(t)
	backup, err := h.Harden(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Harden: %v", err)
	}
	if !strings.HasPrefix(backup, path+".bak.") {
		t.Fatalf("backup = %q", backup)
	}
	if data, _ := os.ReadFile(backup); string(data) != debianDefault {
		t.Fatalf("backup content changed:\n%s", data)
	}
}

func TestHardenRestoresOnValidationFailure(t *testing.T) {
	h, r, path := newHardener(t)
	r.Paths["sshd"] = "/usr/sbin/sshd"
	r.On("/usr/sbin/sshd -t -f "+path, "bad configuration", errors.New("exit status 255"))

	if _, err := h.Harden(context.Background(), "alice"); err == nil {
		t.Fatal("expected validation failure")
	}
	if data, _ := os.ReadFile(path); string(data) != debianDefault {
		t.Fatalf("config not restored:\n%s", data)
	}
	if r.Called("systemctl") {
		t.Fatal("restarted after failed validation")
	}
}

func TestHardenRestart(t *testing.T) {
	prev := system.SystemdRuntimeDir
	defer func() { system.SystemdRuntimeDir = prev }()
	system.SystemdRuntimeDir = t.TempDir()

	h, r, _ := newHardener(t)
	r.Paths["systemctl"] = "/usr/bin/systemctl"
	if _, err := h.Harden(context.Background(), "alice"); err != nil {
		t.Fatalf("Harden: %v", err)
	}
	if !r.Called("systemctl restart ssh") {
		t.Fatalf("calls = %v", r.Calls)
	}

	r.On("systemctl restart ssh", "", errors.New("exit status 1"))
	if _, err := h.Harden(context.Background(), "alice"); err == nil {
		t.Fatal("restart failure must be fatal")
	}
}

func TestHardenWithoutServiceManager(t *testing.T) {
	h, r, _ := newHardener(t)
	if _, err := h.Harden(context.Background(), "alice"); err != nil {
		t.Fatalf("missing service manager must only warn: %v", err)
	}
	if r.Called("systemctl") {
		t.Fatal("systemctl called without a service manager")
	}
}

func TestApplyOverwritesAllowList(t *testing.T) {
	got := Apply("AllowUsers bob carol\n", nil, "alice")
	if got != "AllowUsers alice\n" {
		t.Fatalf("got %q", got)
	}
}
