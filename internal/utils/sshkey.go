package utils

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ValidateSSHPublicKey checks that key is a single authorized_keys line.
func ValidateSSHPublicKey(key string) error {
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(key))); err != nil {
		return fmt.Errorf("invalid SSH public key: %w", err)
	}
	return nil
}

// SSHKeysMetadata renders keys in the "user:key" format expected by the
// ssh-keys instance metadata entry, one key per line.
func SSHKeysMetadata(user string, keys []string) (string, error) {
	if user == "" {
		return "", fmt.Errorf("SSH user is required")
	}
	lines := make([]string, 0, len(keys))
	for i, k := range keys {
		k = strings.TrimSpace(k)
		if err := ValidateSSHPublicKey(k); err != nil {
			return "", fmt.Errorf("key %d: %w", i+1, err)
		}
		lines = append(lines, user+":"+k)
	}
	return strings.Join(lines, "\n"), nil
}

// SSHFingerprint returns the SHA256 fingerprint of an authorized_keys line.
func SSHFingerprint(key string) (string, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(key)))
	if err != nil {
		return "", fmt.Errorf("invalid SSH public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}
