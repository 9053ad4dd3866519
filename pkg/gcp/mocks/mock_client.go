// Package mocks provides testify-based mock implementations for testing
// without a real Compute Engine project.
package mocks

import (
	"context"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"github.com/stretchr/testify/mock"
	"google.golang.org/api/compute/v1"
)

// ClientInterface is a mock for gcp.ClientInterface.
type ClientInterface struct {
	mock.Mock
}

func (m *ClientInterface) CreateNetwork(ctx context.Context, spec *compute.Network) (*gcp.Handle, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcp.Handle), args.Error(1)
}

func (m *ClientInterface) CreateSubnetwork(ctx context.Context, region string, spec *compute.Subnetwork) (*gcp.Handle, error) {
	args := m.Called(ctx, region, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcp.Handle), args.Error(1)
}

func (m *ClientInterface) CreateFirewall(ctx context.Context, spec *compute.Firewall) (*gcp.Handle, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcp.Handle), args.Error(1)
}

func (m *ClientInterface) CreateInstance(ctx context.Context, zone string, spec *compute.Instance) (*gcp.Handle, error) {
	args := m.Called(ctx, zone, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcp.Handle), args.Error(1)
}

func (m *ClientInterface) GetInstance(ctx context.Context, zone, name string) (*compute.Instance, error) {
	args := m.Called(ctx, zone, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compute.Instance), args.Error(1)
}

func (m *ClientInterface) DeleteInstance(ctx context.Context, zone, name string) error {
	args := m.Called(ctx, zone, name)
	return args.Error(0)
}

func (m *ClientInterface) DeleteFirewall(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *ClientInterface) DeleteSubnetwork(ctx context.Context, region, name string) error {
	args := m.Called(ctx, region, name)
	return args.Error(0)
}

func (m *ClientInterface) DeleteNetwork(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
