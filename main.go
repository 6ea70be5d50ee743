package main

import (
	"debian-bootstrap/cmd" // CLI definition and execution
)

// main is the program entry point. It delegates to cmd.Execute, which parses flags,
// runs the bootstrap and exits non-zero on the first fatal error.
//
// debian-bootstrap turns a freshly installed Debian-family machine into a usable host
// for the account that invoked it through sudo (the operator):
//   - optionally renames the host, keeping /etc/hosts and /etc/hostname in step
//   - installs a base package set and the Docker engine from Docker's own apt repository
//   - grants the operator passwordless sudo and membership of the docker group
//   - hardens sshd: no root login, and only the operator may log in
//   - installs oh-my-zsh with autosuggestions, syntax highlighting and powerlevel10k
//     for both root and the operator, and makes zsh their login shell
//
// Every step inspects the host before changing it, so running the tool again is safe.
// Files it rewrites (/etc/hosts, sshd_config) are backed up with a timestamp first.
func main() {
	cmd.Execute()
}
