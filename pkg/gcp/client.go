// Package gcp wraps the Compute Engine API calls the provisioner needs.
package gcp

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/Bibi40k/gce-web-bootstrap/configs"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// Config holds Compute Engine connection parameters.
type Config struct {
	Project         string // GCP project ID
	CredentialsFile string // Optional service account JSON; empty = application default credentials
	Endpoint        string // Optional API endpoint override
}

// Client is the real ClientInterface implementation.
type Client struct {
	svc          *compute.Service
	project      string
	timeout      time.Duration
	pollInterval time.Duration
}

// NewClient authenticates and creates a Compute Engine client.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("project is required")
	}

	var creds *google.Credentials
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials %s: %w", cfg.CredentialsFile, err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, compute.ComputeScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials %s: %w", cfg.CredentialsFile, err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, compute.ComputeScope)
		if err != nil {
			homeDir, _ := os.UserHomeDir()
			adcPath := filepath.Join(homeDir, ".config", "gcloud", "application_default_credentials.json")
			return nil, &CredentialsError{Err: err, ADCPath: adcPath}
		}
	}

	opts := []option.ClientOption{option.WithCredentials(creds)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return NewClientWithOptions(ctx, cfg.Project, opts...)
}

// NewClientWithOptions creates a client from raw API options.
func NewClientWithOptions(ctx context.Context, project string, opts ...option.ClientOption) (*Client, error) {
	opts = append(opts, option.WithUserAgent(configs.Defaults.Provider.UserAgent))
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Compute service: %w", err)
	}
	return &Client{
		svc:          svc,
		project:      project,
		timeout:      configs.Defaults.Timeouts.Operation(),
		pollInterval: configs.Defaults.Timeouts.Polling(),
	}, nil
}

// CredentialsError is returned when no usable credentials are found.
type CredentialsError struct {
	Err     error
	ADCPath string
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("failed to obtain credentials: %v", e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// CreateNetwork inserts a network and waits for the operation.
func (c *Client) CreateNetwork(ctx context.Context, spec *compute.Network) (*Handle, error) {
	op, err := c.svc.Networks.Insert(c.project, spec).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert network %s: %w", spec.Name, err)
	}
	return c.finish(ctx, "network", spec.Name, op)
}

// CreateSubnetwork inserts a subnetwork and waits for the operation.
func (c *Client) CreateSubnetwork(ctx context.Context, region string, spec *compute.Subnetwork) (*Handle, error) {
	op, err := c.svc.Subnetworks.Insert(c.project, region, spec).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert subnetwork %s: %w", spec.Name, err)
	}
	return c.finish(ctx, "subnet", spec.Name, op)
}

// CreateFirewall inserts a firewall rule and waits for the operation.
func (c *Client) CreateFirewall(ctx context.Context, spec *compute.Firewall) (*Handle, error) {
	op, err := c.svc.Firewalls.Insert(c.project, spec).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert firewall %s: %w", spec.Name, err)
	}
	return c.finish(ctx, "firewall", spec.Name, op)
}

// CreateInstance inserts an instance and waits for the operation.
func (c *Client) CreateInstance(ctx context.Context, zone string, spec *compute.Instance) (*Handle, error) {
	op, err := c.svc.Instances.Insert(c.project, zone, spec).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert instance %s: %w", spec.Name, err)
	}
	return c.finish(ctx, "instance", spec.Name, op)
}

// GetInstance fetches an instance.
func (c *Client) GetInstance(ctx context.Context, zone, name string) (*compute.Instance, error) {
	inst, err := c.svc.Instances.Get(c.project, zone, name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get instance %s: %w", name, err)
	}
	return inst, nil
}

// DeleteInstance deletes an instance and waits for the operation.
func (c *Client) DeleteInstance(ctx context.Context, zone, name string) error {
	op, err := c.svc.Instances.Delete(c.project, zone, name).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete instance %s: %w", name, err)
	}
	_, err = c.finish(ctx, "instance", name, op)
	return err
}

// DeleteFirewall deletes a firewall rule and waits for the operation.
func (c *Client) DeleteFirewall(ctx context.Context, name string) error {
	op, err := c.svc.Firewalls.Delete(c.project, name).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete firewall %s: %w", name, err)
	}
	_, err = c.finish(ctx, "firewall", name, op)
	return err
}

// DeleteSubnetwork deletes a subnetwork and waits for the operation.
func (c *Client) DeleteSubnetwork(ctx context.Context, region, name string) error {
	op, err := c.svc.Subnetworks.Delete(c.project, region, name).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete subnetwork %s: %w", name, err)
	}
	_, err = c.finish(ctx, "subnet", name, op)
	return err
}

// DeleteNetwork deletes a network and waits for the operation.
func (c *Client) DeleteNetwork(ctx context.Context, name string) error {
	op, err := c.svc.Networks.Delete(c.project, name).RequestId(uuid.New().String()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete network %s: %w", name, err)
	}
	_, err = c.finish(ctx, "network", name, op)
	return err
}

func (c *Client) finish(ctx context.Context, kind, name string, op *compute.Operation) (*Handle, error) {
	done, err := c.waitOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, name, err)
	}
	return &Handle{
		Kind:     kind,
		Name:     name,
		SelfLink: done.TargetLink,
		ID:       done.TargetId,
	}, nil
}

// waitOperation blocks until op is DONE, using the scope-specific Wait call
// (zonal, regional or global). Wait may return before completion, so it is
// called in a loop bounded by the operation timeout.
func (c *Client) waitOperation(ctx context.Context, op *compute.Operation) (*compute.Operation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := op.Name
	for op.Status != "DONE" {
		var err error
		switch {
		case op.Zone != "":
			op, err = c.svc.ZoneOperations.Wait(c.project, path.Base(op.Zone), name).Context(ctx).Do()
		case op.Region != "":
			op, err = c.svc.RegionOperations.Wait(c.project, path.Base(op.Region), name).Context(ctx).Do()
		default:
			op, err = c.svc.GlobalOperations.Wait(c.project, name).Context(ctx).Do()
		}
		if err != nil {
			return nil, fmt.Errorf("wait for operation %s: %w", name, err)
		}
		if op.Status == "DONE" {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %s timeout: %w", name, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}

	if op.Error != nil && len(op.Error.Errors) > 0 {
		return op, &OperationError{Operation: name, Target: op.TargetLink, Errors: op.Error.Errors}
	}
	return op, nil
}
