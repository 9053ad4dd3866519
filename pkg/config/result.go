// Package config reads and writes the provision result file written by
// `gcebootstrap up` and read back by `gcebootstrap down`.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bibi40k/gce-web-bootstrap/internal/utils"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"gopkg.in/yaml.v3"
)

// ProvisionResult is the normalized output contract of a completed run.
type ProvisionResult struct {
	Project    string       `json:"project" yaml:"project"`
	RunID      string       `json:"run_id" yaml:"run_id"`
	Region     string       `json:"region" yaml:"region"`
	Zone       string       `json:"zone" yaml:"zone"`
	Resources  []gcp.Handle `json:"resources" yaml:"resources"`
	ExternalIP string       `json:"external_ip" yaml:"external_ip"`
	InternalIP string       `json:"internal_ip,omitempty" yaml:"internal_ip,omitempty"`
	HTTPReady  bool         `json:"http_ready,omitempty" yaml:"http_ready,omitempty"`
	StackFile  string       `json:"stack_file,omitempty" yaml:"stack_file,omitempty"`
	CreatedAt  time.Time    `json:"created_at" yaml:"created_at"`
}

// Validate checks the minimum contract required to tear the stack down.
func (r ProvisionResult) Validate() error {
	if strings.TrimSpace(r.Project) == "" {
		return fmt.Errorf("result project is required")
	}
	if len(r.Resources) == 0 {
		return fmt.Errorf("result resources are required")
	}
	for _, h := range r.Resources {
		if err := utils.ValidateResourceName(h.Name); err != nil {
			return fmt.Errorf("result resource %s: %w", h.Kind, err)
		}
	}
	if ip := strings.TrimSpace(r.ExternalIP); ip != "" && net.ParseIP(ip) == nil {
		return fmt.Errorf("result external_ip %q is not an IP address", ip)
	}
	return nil
}

// Instance returns the instance handle, if any.
func (r ProvisionResult) Instance() (gcp.Handle, bool) {
	for _, h := range r.Resources {
		if h.Kind == "instance" {
			return h, true
		}
	}
	return gcp.Handle{}, false
}

// LoadProvisionResult reads ProvisionResult from YAML or JSON.
func LoadProvisionResult(path string) (ProvisionResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("read provision result %s: %w", path, err)
	}

	var out ProvisionResult
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(content, &out); err != nil {
			return ProvisionResult{}, fmt.Errorf("parse provision result %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(content, &out); err != nil {
			return ProvisionResult{}, fmt.Errorf("parse provision result %s: %w", path, err)
		}
	}

	if err := out.Validate(); err != nil {
		return ProvisionResult{}, err
	}
	return out, nil
}

// SaveProvisionResult writes ProvisionResult to YAML or JSON based on file extension.
func SaveProvisionResult(path string, result ProvisionResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var content []byte
	var err error
	if ext == ".json" {
		content, err = json.MarshalIndent(result, "", "  ")
	} else {
		content, err = yaml.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("marshal provision result %s: %w", path, err)
	}

	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write provision result %s: %w", path, err)
	}
	return nil
}
