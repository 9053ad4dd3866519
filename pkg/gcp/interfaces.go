package gcp

import (
	"context"

	"google.golang.org/api/compute/v1"
)

// compile-time interface compliance check
var _ ClientInterface = (*Client)(nil)

// ClientInterface abstracts the Compute Engine calls used by the provisioner.
// The real implementation uses google.golang.org/api/compute/v1; tests inject a mock.
// Every Create/Delete call blocks until the long-running operation is DONE.
type ClientInterface interface {
	CreateNetwork(ctx context.Context, spec *compute.Network) (*Handle, error)
	CreateSubnetwork(ctx context.Context, region string, spec *compute.Subnetwork) (*Handle, error)
	CreateFirewall(ctx context.Context, spec *compute.Firewall) (*Handle, error)
	CreateInstance(ctx context.Context, zone string, spec *compute.Instance) (*Handle, error)
	GetInstance(ctx context.Context, zone, name string) (*compute.Instance, error)
	DeleteInstance(ctx context.Context, zone, name string) error
	DeleteFirewall(ctx context.Context, name string) error
	DeleteSubnetwork(ctx context.Context, region, name string) error
	DeleteNetwork(ctx context.Context, name string) error
}

// Handle identifies a resource created by the provider.
type Handle struct {
	Kind     string `json:"kind" yaml:"kind"`
	Name     string `json:"name" yaml:"name"`
	SelfLink string `json:"self_link,omitempty" yaml:"self_link,omitempty"`
	ID       uint64 `json:"id,omitempty" yaml:"id,omitempty"`
}
