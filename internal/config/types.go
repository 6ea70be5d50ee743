package config

// Repo is a git repository checked out into a path relative to the
// framework root of an account (e.g. custom/plugins/zsh-autosuggestions).
type Repo struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// Docker describes the container runtime's package repository.
// - BaseURL: vendor URL without the distribution suffix; the OS id is appended.
// - KeyURLPath: path of the armored signing key below BaseURL/<os id>.
// - Packages: runtime package set; the first entry decides whether the step short-circuits.
type Docker struct {
	BaseURL    string   `yaml:"base_url"`
	KeyURLPath string   `yaml:"key_url_path"`
	Channel    string   `yaml:"channel"`
	KeyringDir string   `yaml:"keyring_dir"`
	Keyring    string   `yaml:"keyring"`
	SourceFile string   `yaml:"source_file"`
	Packages   []string `yaml:"packages"`
	Service    string   `yaml:"service"`
	Group      string   `yaml:"group"`
}

// Directive is a single sshd_config key/value pair.
type Directive struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// SSH holds the daemon hardening settings.
// AllowUsers is always overwritten with the operator account; it is not configurable.
type SSH struct {
	ConfigPath string      `yaml:"config_path"`
	Package    string      `yaml:"package"`
	Service    string      `yaml:"service"`
	Directives []Directive `yaml:"directives"`
}

// Shell describes the interactive shell environment installed for every account.
type Shell struct {
	Package         string   `yaml:"package"`
	Binary          string   `yaml:"binary"`
	Framework       Repo     `yaml:"framework"`
	ProfileName     string   `yaml:"profile_name"`
	ProfileTemplate string   `yaml:"profile_template"`
	Theme           string   `yaml:"theme"`
	Extras          []Repo   `yaml:"extras"`
	DefaultPlugins  []string `yaml:"default_plugins"`
	RequiredPlugins []string `yaml:"required_plugins"`
}

// Paths collects every host file the tool reads or writes.
type Paths struct {
	OSRelease  string `yaml:"os_release"`
	Hosts      string `yaml:"hosts"`
	Hostname   string `yaml:"hostname"`
	Passwd     string `yaml:"passwd"`
	SudoersDir string `yaml:"sudoers_dir"`
	State      string `yaml:"state"`
}

// Config is the complete desired state of the host.
type Config struct {
	Packages []string `yaml:"packages"`
	Docker   Docker   `yaml:"docker"`
	SSH      SSH      `yaml:"ssh"`
	Shell    Shell    `yaml:"shell"`
	Paths    Paths    `yaml:"paths"`
}
