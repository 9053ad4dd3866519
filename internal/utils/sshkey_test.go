package utils

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// testPublicKey returns a valid authorized_keys line derived from a fixed seed.
func testPublicKey(t *testing.T) string {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)
	pub, err := ssh.NewPublicKey(priv.Public())
	if err != nil {
		t.Fatalf("ssh.NewPublicKey: %v", err)
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))) + " test@example.com"
}

func TestValidateSSHPublicKey(t *testing.T) {
	if err := ValidateSSHPublicKey(testPublicKey(t)); err != nil {
		t.Errorf("ValidateSSHPublicKey(valid) error = %v", err)
	}
	if err := ValidateSSHPublicKey("ssh-ed25519 not-base64"); err == nil {
		t.Error("ValidateSSHPublicKey(garbage) returned nil error")
	}
}

func TestSSHKeysMetadata(t *testing.T) {
	key := testPublicKey(t)

	got, err := SSHKeysMetadata("deploy", []string{key, "  " + key + "\n"})
	if err != nil {
		t.Fatalf("SSHKeysMetadata() error = %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("SSHKeysMetadata() produced %d lines, want 2", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "deploy:ssh-ed25519 ") {
			t.Errorf("line %q missing user prefix", l)
		}
	}

	if _, err := SSHKeysMetadata("", []string{key}); err == nil {
		t.Error("SSHKeysMetadata() with empty user returned nil error")
	}
	if _, err := SSHKeysMetadata("deploy", []string{"bogus"}); err == nil {
		t.Error("SSHKeysMetadata() with invalid key returned nil error")
	}
}

func TestSSHFingerprint(t *testing.T) {
	fp, err := SSHFingerprint(testPublicKey(t))
	if err != nil {
		t.Fatalf("SSHFingerprint() error = %v", err)
	}
	if !strings.HasPrefix(fp, "SHA256:") {
		t.Errorf("SSHFingerprint() = %q, want SHA256: prefix", fp)
	}
}
