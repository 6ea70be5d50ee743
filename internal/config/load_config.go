package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default returns the built-in desired state.
func Default() Config {
	return Config{
		Packages: []string{
			"ca-certificates", "curl", "gnupg", "git", "zsh", "sudo",
			"vim", "htop", "tmux", "unzip", "wget", "lsb-release",
		},
		Docker: Docker{
			BaseURL:    "https://download.docker.com/linux",
			KeyURLPath: "gpg",
			Channel:    "stable",
			KeyringDir: "/etc/apt/keyrings",
			Keyring:    "/etc/apt/keyrings/docker.gpg",
			SourceFile: "/etc/apt/sources.list.d/docker.list",
			Packages: []string{
				"docker-ce", "docker-ce-cli", "containerd.io",
				"docker-buildx-plugin", "docker-compose-plugin",
			},
			Service: "docker",
			Group:   "docker",
		},
		SSH: SSH{
			ConfigPath: "/etc/ssh/sshd_config",
			Package:    "openssh-server",
			Service:    "ssh",
			Directives: []Directive{
				{Key: "PermitRootLogin", Value: "no"},
				{Key: "PasswordAuthentication", Value: "yes"},
				{Key: "PermitEmptyPasswords", Value: "no"},
			},
		},
		Shell: Shell{
			Package: "zsh",
			Binary:  "zsh",
			Framework: Repo{
				Name: "oh-my-zsh",
				URL:  "https://github.com/ohmyzsh/ohmyzsh.git",
				Path: ".oh-my-zsh",
			},
			ProfileName:     ".zshrc",
			ProfileTemplate: "templates/zshrc.zsh-template",
			Theme:           "powerlevel10k/powerlevel10k",
			Extras: []Repo{
				{Name: "zsh-autosuggestions", URL: "https://github.com/zsh-users/zsh-autosuggestions.git", Path: "custom/plugins/zsh-autosuggestions"},
				{Name: "zsh-syntax-highlighting", URL: "https://github.com/zsh-users/zsh-syntax-highlighting.git", Path: "custom/plugins/zsh-syntax-highlighting"},
				{Name: "powerlevel10k", URL: "https://github.com/romkatv/powerlevel10k.git", Path: "custom/themes/powerlevel10k"},
			},
			DefaultPlugins:  []string{"git"},
			RequiredPlugins: []string{"git", "sudo", "zsh-autosuggestions", "zsh-syntax-highlighting"},
		},
		Paths: Paths{
			OSRelease:  "/etc/os-release",
			Hosts:      "/etc/hosts",
			Hostname:   "/etc/hostname",
			Passwd:     "/etc/passwd",
			SudoersDir: "/etc/sudoers.d",
			State:      "/var/lib/debian-bootstrap/state.json",
		},
	}
}

// LoadConfig returns the defaults, overlaid with the YAML file at path when path is non-empty.
// Keys present in the file replace the defaults field by field; lists are replaced wholesale.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the merged config can drive a run.
func (c Config) Validate() error {
	var problems []string
	if len(c.Packages) == 0 {
		problems = append(problems, "packages must not be empty")
	}
	if c.Docker.BaseURL == "" || c.Docker.Keyring == "" || c.Docker.SourceFile == "" {
		problems = append(problems, "docker.base_url, docker.keyring and docker.source_file are required")
	}
	if len(c.Docker.Packages) == 0 {
		problems = append(problems, "docker.packages must not be empty")
	}
	if c.Docker.Group == "" {
		problems = append(problems, "docker.group is required")
	}
	if c.SSH.ConfigPath == "" {
		problems = append(problems, "ssh.config_path is required")
	}
	for _, d := range c.SSH.Directives {
		if d.Key == "" || d.Value == "" || strings.ContainsAny(d.Key, " \t") {
			problems = append(problems, fmt.Sprintf("invalid ssh directive %q=%q", d.Key, d.Value))
		}
		if strings.EqualFold(d.Key, "AllowUsers") {
			problems = append(problems, "ssh.directives must not set AllowUsers")
		}
	}
	if c.Shell.Framework.URL == "" || c.Shell.Framework.Path == "" {
		problems = append(problems, "shell.framework.url and shell.framework.path are required")
	}
	for _, r := range c.Shell.Extras {
		if r.URL == "" || r.Path == "" {
			problems = append(problems, fmt.Sprintf("shell extra %q needs url and path", r.Name))
		}
	}
	for _, p := range c.Shell.RequiredPlugins {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, "shell.required_plugins contains an empty name")
		}
	}
	if c.Paths.SudoersDir == "" || c.Paths.Hosts == "" || c.Paths.OSRelease == "" {
		problems = append(problems, "paths.sudoers_dir, paths.hosts and paths.os_release are required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
