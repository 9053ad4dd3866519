// Package provision is the public API: it creates the network, subnet,
// firewall rules and instance described by a stack, in that order.
package provision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bibi40k/gce-web-bootstrap/internal/utils"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/startup"
)

// Config defines a complete provisioning run.
type Config struct {
	// === Provider ===
	Project         string // GCP project ID (required)
	CredentialsFile string // Service account JSON; empty = application default credentials
	Endpoint        string // Compute API endpoint override (tests, private endpoints)

	// === Resources ===
	Stack *stack.Stack // Descriptor set; nil = embedded defaults

	// === Guest payload ===
	Payload       startup.Input // Ignored when Stack.Instance.StartupScript is set
	SSHUser       string        // Guest user for ssh-keys metadata (e.g., "ops")
	SSHPublicKeys []string      // Optional; requires SSHUser

	// VerifyHTTP polls TCP port 80 on the external address after creation.
	VerifyHTTP bool
}

// Result describes a provisioned stack.
type Result struct {
	Project    string
	RunID      string // value of the run label applied to the instance
	Network    gcp.Handle
	Subnet     gcp.Handle
	Firewalls  []gcp.Handle
	Instance   gcp.Handle
	ExternalIP string
	InternalIP string
	HTTPReady  bool // TCP port 80 answered (only set when VerifyHTTP)
}

// Handles returns every created resource in creation order.
func (r *Result) Handles() []gcp.Handle {
	out := []gcp.Handle{r.Network, r.Subnet}
	out = append(out, r.Firewalls...)
	return append(out, r.Instance)
}

// StepError reports the step that halted a run and the resources that were
// created before it. Those resources are left in place.
type StepError struct {
	Step    stack.Step
	Err     error
	Created []gcp.Handle
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Step.Kind, e.Step.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// CreatedNames lists created resources as kind/name.
func (e *StepError) CreatedNames() []string {
	names := make([]string, 0, len(e.Created))
	for _, h := range e.Created {
		names = append(names, h.Kind+"/"+h.Name)
	}
	return names
}

// SetDefaults fills the stack and payload defaults.
func (cfg *Config) SetDefaults() error {
	if cfg.Stack == nil {
		s, err := stack.Default()
		if err != nil {
			return err
		}
		cfg.Stack = s
	}
	cfg.Project = strings.TrimSpace(cfg.Project)
	if cfg.Stack.Project == "" {
		cfg.Stack.Project = cfg.Project
	}
	cfg.Stack.SetDefaults()
	if cfg.Payload.MarkerName == "" {
		cfg.Payload.MarkerName = cfg.Stack.Instance.Name
	}
	cfg.Payload.SetDefaults()
	return nil
}

// Validate checks the configuration. Call SetDefaults first.
func (cfg *Config) Validate() error {
	if cfg.Project == "" {
		return errors.New("Project is required")
	}
	if cfg.Stack == nil {
		return errors.New("Stack is required")
	}
	if cfg.Stack.Project != cfg.Project {
		return fmt.Errorf("stack project %q does not match %q", cfg.Stack.Project, cfg.Project)
	}
	if err := cfg.Stack.Validate(); err != nil {
		return err
	}
	if cfg.Stack.Instance.StartupScript == "" {
		if err := cfg.Payload.Validate(); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}
	if len(cfg.SSHPublicKeys) > 0 && cfg.SSHUser == "" {
		return errors.New("SSHUser is required when SSHPublicKeys are set")
	}
	for _, k := range cfg.SSHPublicKeys {
		if err := utils.ValidateSSHPublicKey(k); err != nil {
			return err
		}
	}
	return nil
}
