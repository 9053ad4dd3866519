package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bibi40k/gce-web-bootstrap/configs"
	"github.com/Bibi40k/gce-web-bootstrap/internal/utils"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/startup"
	"github.com/google/uuid"
)

// defaultLogger is used if no logger is provided.
var defaultLogger = slog.Default()

// provisioner holds injectable service factories.
// Production code uses defaultProvisioner(); tests inject mocks.
type provisioner struct {
	connect   func(ctx context.Context, cfg *Config) (gcp.ClientInterface, error)
	checkHTTP func(ctx context.Context, ipAddr string) error
	newRunID  func() string
}

// defaultProvisioner returns a provisioner with real production implementations.
func defaultProvisioner() *provisioner {
	return &provisioner{
		connect: func(ctx context.Context, cfg *Config) (gcp.ClientInterface, error) {
			return gcp.NewClient(ctx, &gcp.Config{
				Project:         cfg.Project,
				CredentialsFile: cfg.CredentialsFile,
				Endpoint:        cfg.Endpoint,
			})
		},
		checkHTTP: verifyHTTPAccess,
		newRunID:  func() string { return uuid.New().String() },
	}
}

// Provision creates the network, subnet, firewall rules and instance.
// Returns only after every create operation has finished.
// Nothing is checked or deleted beforehand: an existing resource with the
// same name fails the run with gcp.IsAlreadyExists.
func Provision(ctx context.Context, cfg *Config) (*Result, error) {
	return ProvisionWithLogger(ctx, cfg, defaultLogger)
}

// ProvisionWithLogger creates the stack with a custom logger.
func ProvisionWithLogger(ctx context.Context, cfg *Config, logger *slog.Logger) (*Result, error) {
	return defaultProvisioner().run(ctx, cfg, logger)
}

// Plan validates cfg and returns the ordered creation steps without calling
// the provider.
func Plan(cfg *Config) ([]stack.Step, error) {
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Stack.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stack: %w", err)
	}
	return cfg.Stack.Steps(), nil
}

// run is the internal implementation, testable via injected dependencies.
func (p *provisioner) run(ctx context.Context, cfg *Config, logger *slog.Logger) (*Result, error) {
	// STEP 1: Validate and set defaults
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := cfg.Stack

	for _, w := range s.Warnings() {
		logger.Warn(w)
	}

	// STEP 2: Build instance metadata (payload is opaque from here on)
	metadata, err := buildMetadata(cfg)
	if err != nil {
		return nil, err
	}

	runID := p.newRunID()
	labels := map[string]string{
		configs.Defaults.Provider.RunLabelKey: runID,
		"managed-by":                          configs.Defaults.Provider.ManagedLabel,
	}

	logger.Info("Starting provisioning",
		"project", cfg.Project,
		"region", s.Region,
		"network", s.Network.Name,
		"instance", s.Instance.Name,
		"run", runID,
	)

	// STEP 3: Connect to Compute Engine
	client, err := p.connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("compute client: %w", err)
	}

	// STEP 4: Create resources in dependency order, halting on the first failure
	res := &Result{Project: cfg.Project, RunID: runID}
	var created []gcp.Handle
	firewalls := make(map[string]stack.FirewallRule, len(s.Firewalls))
	for _, fw := range s.Firewalls {
		firewalls[fw.Name] = fw
	}

	steps := s.Steps()
	for i, step := range steps {
		logger.Info(fmt.Sprintf("[%d/%d] Creating %s", i+1, len(steps), step.Kind), "name", step.Name)
		start := time.Now()

		var h *gcp.Handle
		switch step.Kind {
		case stack.KindNetwork:
			h, err = client.CreateNetwork(ctx, gcp.NetworkSpec(s.Network))
		case stack.KindSubnet:
			h, err = client.CreateSubnetwork(ctx, s.Subnet.Region, gcp.SubnetworkSpec(cfg.Project, s.Subnet))
		case stack.KindFirewall:
			h, err = client.CreateFirewall(ctx, gcp.FirewallSpec(cfg.Project, firewalls[step.Name]))
		case stack.KindInstance:
			h, err = client.CreateInstance(ctx, s.Instance.Zone,
				gcp.InstanceSpec(cfg.Project, s.Subnet.Region, s.Instance, metadata, labels))
		default:
			err = fmt.Errorf("unknown resource kind %q", step.Kind)
		}
		if err != nil {
			stepErr := &StepError{Step: step, Err: err, Created: created}
			if len(created) > 0 {
				logger.Warn("Provisioning halted, created resources are left in place",
					"failed", step.Name,
					"created", stepErr.CreatedNames(),
				)
			}
			return nil, stepErr
		}

		created = append(created, *h)
		switch step.Kind {
		case stack.KindNetwork:
			res.Network = *h
		case stack.KindSubnet:
			res.Subnet = *h
		case stack.KindFirewall:
			res.Firewalls = append(res.Firewalls, *h)
		case stack.KindInstance:
			res.Instance = *h
		}
		logger.Info(fmt.Sprintf("%s created", step.Kind), "name", h.Name, "duration", time.Since(start).Round(time.Second))
	}

	// STEP 5: Read back instance addresses
	inst, err := client.GetInstance(ctx, s.Instance.Zone, s.Instance.Name)
	if err != nil {
		return res, fmt.Errorf("read instance %s: %w", s.Instance.Name, err)
	}
	res.ExternalIP, res.InternalIP = gcp.InstanceAddresses(inst)
	logger.Info("Instance addresses", "external", res.ExternalIP, "internal", res.InternalIP)

	// STEP 6: Optional HTTP reachability check
	if cfg.VerifyHTTP {
		if res.ExternalIP == "" {
			return res, errors.New("HTTP verification requested but instance has no external IP")
		}
		logger.Info("Waiting for HTTP on port 80 (startup script is still running)...", "ip", res.ExternalIP)
		if err := p.checkHTTP(ctx, res.ExternalIP); err != nil {
			return res, fmt.Errorf("HTTP verification failed: %w", err)
		}
		res.HTTPReady = true
		logger.Info("HTTP port 80 reachable")
	}

	return res, nil
}

// buildMetadata returns the instance metadata: the guest payload under its
// key plus ssh-keys when keys are configured.
func buildMetadata(cfg *Config) (map[string]string, error) {
	d := configs.Defaults.Provider
	metadata := make(map[string]string, 2)

	if script := cfg.Stack.Instance.StartupScript; script != "" {
		metadata[d.ScriptKey] = script
	} else {
		gen, err := startup.NewGenerator()
		if err != nil {
			return nil, err
		}
		key, value, err := gen.Generate(&cfg.Payload)
		if err != nil {
			return nil, fmt.Errorf("payload generation failed: %w", err)
		}
		metadata[key] = value
	}

	if len(cfg.SSHPublicKeys) > 0 {
		keys, err := utils.SSHKeysMetadata(cfg.SSHUser, cfg.SSHPublicKeys)
		if err != nil {
			return nil, err
		}
		metadata[d.SSHKeysKey] = keys
	}
	return metadata, nil
}

// verifyHTTPAccess waits until TCP port 80 accepts connections.
func verifyHTTPAccess(ctx context.Context, ipAddr string) error {
	t := configs.Defaults.Timeouts
	for i := 0; i < t.HTTPRetries; i++ {
		if utils.IsPortOpen(ipAddr, 80, t.HTTPConnect()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.HTTPRetryDelay()):
		}
	}
	return fmt.Errorf("HTTP port 80 not accessible at %s", ipAddr)
}
