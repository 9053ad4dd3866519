package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// sopsDecrypt decrypts a SOPS-encrypted file and returns the plaintext content.
func sopsDecrypt(path string) ([]byte, error) {
	if _, err := exec.LookPath("sops"); err != nil {
		return nil, &userError{
			msg:  fmt.Sprintf("%s is SOPS-encrypted but 'sops' is not in PATH", filepath.Base(path)),
			hint: "Install sops (https://github.com/getsops/sops) or pass a plaintext stack file",
		}
	}
	out, err := exec.Command("sops", "-d", path).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("sops -d %s: %s", filepath.Base(path), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("sops -d %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
