package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
)

func isSopsFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".sops.yaml") ||
		strings.HasSuffix(strings.ToLower(path), ".sops.yml")
}

// loadStack returns the embedded defaults when path is empty, otherwise the
// file overlaid onto them (decrypted first for *.sops.yaml).
func loadStack(path string) (*stack.Stack, error) {
	if path == "" {
		return stack.Default()
	}
	if !isSopsFile(path) {
		return stack.Load(path)
	}
	data, err := sopsDecrypt(path)
	if err != nil {
		return nil, err
	}
	s, err := stack.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// readSSHKey reads a public key file (e.g. ~/.ssh/id_ed25519.pub).
func readSSHKey(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SSH key %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
