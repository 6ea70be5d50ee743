// Package preflight holds the checks that run before anything on the host is touched.
package preflight

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrNotRoot    = errors.New("must be run with root privileges (use sudo)")
	ErrNotDebian  = errors.New("unsupported operating system: a Debian-family distribution is required")
	ErrNoOperator = errors.New("cannot determine the invoking user: run through sudo from a normal account, not directly as root")
	ErrAborted    = errors.New("aborted by user")
)

// RequireRoot fails unless the effective uid is 0.
func RequireRoot(euid int) error {
	if euid != 0 {
		return ErrNotRoot
	}
	return nil
}

// OSRelease is the subset of os-release(5) the bootstrap needs.
type OSRelease struct {
	ID              string
	IDLike          []string
	VersionCodename string
	UbuntuCodename  string
	PrettyName      string
}

// ParseOSRelease reads KEY=value lines, unquoting values.
func ParseOSRelease(r io.Reader) (OSRelease, error) {
	var rel OSRelease
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "ID":
			rel.ID = strings.ToLower(value)
		case "ID_LIKE":
			rel.IDLike = strings.Fields(strings.ToLower(value))
		case "VERSION_CODENAME":
			rel.VersionCodename = value
		case "UBUNTU_CODENAME":
			rel.UbuntuCodename = value
		case "PRETTY_NAME":
			rel.PrettyName = value
		}
	}
	if err := scanner.Err(); err != nil {
		return OSRelease{}, fmt.Errorf("failed to read os-release: %w", err)
	}
	return rel, nil
}

// ReadOSRelease parses the os-release file at path.
func ReadOSRelease(path string) (OSRelease, error) {
	f, err := os.Open(path)
	if err != nil {
		return OSRelease{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseOSRelease(f)
}

// IsDebianFamily matches ID or any ID_LIKE entry against debian.
func (r OSRelease) IsDebianFamily() bool {
	if r.ID == "debian" {
		return true
	}
	for _, like := range r.IDLike {
		if like == "debian" {
			return true
		}
	}
	return false
}

// Codename returns the release codename, preferring VERSION_CODENAME.
func (r OSRelease) Codename() string {
	if r.VersionCodename != "" {
		return r.VersionCodename
	}
	return r.UbuntuCodename
}

// Distribution is the vendor path segment for package repositories: ubuntu for
// Ubuntu and its derivatives, debian for everything else in the family.
func (r OSRelease) Distribution() string {
	if r.ID == "ubuntu" || r.UbuntuCodename != "" {
		return "ubuntu"
	}
	return "debian"
}

// RequireDebian fails unless rel describes a Debian-family system.
func RequireDebian(rel OSRelease) error {
	if !rel.IsDebianFamily() {
		return fmt.Errorf("%w (found %q)", ErrNotDebian, rel.ID)
	}
	return nil
}

// OperatorFromEnv returns the account that invoked sudo.
// Running directly as root (no SUDO_USER, or SUDO_USER=root) is refused.
func OperatorFromEnv(getenv func(string) string) (string, error) {
	name := strings.TrimSpace(getenv("SUDO_USER"))
	if name == "" || name == "root" {
		return "", ErrNoOperator
	}
	return name, nil
}

// Confirm prints the summary and waits for an explicit y/yes.
// Any other answer, including end of input, returns ErrAborted.
func Confirm(in io.Reader, out io.Writer, summary []string) error {
	fmt.Fprintln(out, "This will make the following changes to this machine:")
	for _, line := range summary {
		fmt.Fprintf(out, "  - %s\n", line)
	}
	fmt.Fprint(out, "Proceed? [y/N] ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return ErrAborted
	}
}
