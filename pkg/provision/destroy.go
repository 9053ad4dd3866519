package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
)

// Destroy deletes the stack in reverse creation order: instance, firewall
// rules, subnet, network. Resources that do not exist are skipped.
// It is an explicit teardown, never called by Provision.
func Destroy(ctx context.Context, cfg *Config) ([]gcp.Handle, error) {
	return DestroyWithLogger(ctx, cfg, defaultLogger)
}

// DestroyWithLogger deletes the stack with a custom logger.
func DestroyWithLogger(ctx context.Context, cfg *Config, logger *slog.Logger) ([]gcp.Handle, error) {
	return defaultProvisioner().destroy(ctx, cfg, logger)
}

// destroy returns the resources actually deleted.
func (p *provisioner) destroy(ctx context.Context, cfg *Config, logger *slog.Logger) ([]gcp.Handle, error) {
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("invalid config: Project is required")
	}
	s := cfg.Stack
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stack: %w", err)
	}

	client, err := p.connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("compute client: %w", err)
	}

	steps := s.Steps()
	var deleted []gcp.Handle
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		logger.Info(fmt.Sprintf("Deleting %s", step.Kind), "name", step.Name)

		switch step.Kind {
		case stack.KindInstance:
			err = client.DeleteInstance(ctx, s.Instance.Zone, step.Name)
		case stack.KindFirewall:
			err = client.DeleteFirewall(ctx, step.Name)
		case stack.KindSubnet:
			err = client.DeleteSubnetwork(ctx, s.Subnet.Region, step.Name)
		case stack.KindNetwork:
			err = client.DeleteNetwork(ctx, step.Name)
		default:
			err = fmt.Errorf("unknown resource kind %q", step.Kind)
		}
		if gcp.IsNotFound(err) {
			logger.Info(fmt.Sprintf("%s not found, skipping", step.Kind), "name", step.Name)
			continue
		}
		if err != nil {
			return deleted, &StepError{Step: step, Err: err}
		}
		deleted = append(deleted, gcp.Handle{Kind: string(step.Kind), Name: step.Name})
		logger.Info(fmt.Sprintf("%s deleted", step.Kind), "name", step.Name)
	}
	return deleted, nil
}
