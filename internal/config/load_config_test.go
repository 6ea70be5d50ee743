package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Shell.Theme != "powerlevel10k/powerlevel10k" {
		t.Fatalf("theme = %q", cfg.Shell.Theme)
	}
	if len(cfg.Shell.RequiredPlugins) != 4 {
		t.Fatalf("required plugins = %v", cfg.Shell.RequiredPlugins)
	}
	if cfg.Docker.Packages[0] != "docker-ce" {
		t.Fatalf("first docker package = %q", cfg.Docker.Packages[0])
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := writeConfig(t, `
packages: [curl, git]
shell:
  theme: robbyrussell
paths:
  hosts: /tmp/hosts
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if strings.Join(cfg.Packages, ",") != "curl,git" {
		t.Fatalf("packages = %v", cfg.Packages)
	}
	if cfg.Shell.Theme != "robbyrussell" {
		t.Fatalf("theme = %q", cfg.Shell.Theme)
	}
	// Untouched keys keep their defaults.
	if cfg.Shell.Framework.Path != ".oh-my-zsh" {
		t.Fatalf("framework path = %q", cfg.Shell.Framework.Path)
	}
	if cfg.Paths.Hosts != "/tmp/hosts" || cfg.Paths.SudoersDir != "/etc/sudoers.d" {
		t.Fatalf("paths = %+v", cfg.Paths)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Packages) == 0 {
		t.Fatal("expected default packages")
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "colour: blue\n",
		"empty packages":   "packages: []\n",
		"allow users":      "ssh:\n  directives:\n    - {key: AllowUsers, value: bob}\n",
		"directive spaces": "ssh:\n  directives:\n    - {key: 'Permit Root', value: no}\n",
		"empty plugin":     "shell:\n  required_plugins: [git, '']\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error for %q", body)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
