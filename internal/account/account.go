// Package account models the login accounts the bootstrap configures and
// provides a single way to act on files as one of them.
package account

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
)

// Account represents a login account on the host.
type Account struct {
	Name    string // login name
	UID     int    // user ID
	GID     int    // primary group ID
	HomeDir string // home directory
	Shell   string // login shell as recorded in the passwd database
}

// IsRoot reports whether the account is the superuser.
func (a Account) IsRoot() bool {
	return a.Name == "root" || a.UID == 0
}

// Lookup resolves name through the user database and reads its login shell from passwdPath.
func Lookup(name, passwdPath string) (Account, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return Account{}, fmt.Errorf("failed to look up account %s: %w", name, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Account{}, fmt.Errorf("account %s has non-numeric uid %q", name, u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Account{}, fmt.Errorf("account %s has non-numeric gid %q", name, u.Gid)
	}

	shell, err := LoginShell(passwdPath, name)
	if err != nil {
		return Account{}, err
	}

	return Account{Name: u.Username, UID: uid, GID: gid, HomeDir: u.HomeDir, Shell: shell}, nil
}

// LoginShell returns the seventh passwd field for name, or "" if the entry is missing.
func LoginShell(passwdPath, name string) (string, error) {
	f, err := os.Open(passwdPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", passwdPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) == 7 && fields[0] == name {
			return fields[6], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", passwdPath, err)
	}
	return "", nil
}
