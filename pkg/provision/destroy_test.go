package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	gcpmocks "github.com/Bibi40k/gce-web-bootstrap/pkg/gcp/mocks"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
)

func TestDestroy_ReverseOrder(t *testing.T) {
	client := &gcpmocks.ClientInterface{}
	var order []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { order = append(order, name) }
	}
	client.On("DeleteInstance", mock.Anything, "us-central1-a", "web-server").Run(record("instance")).Return(nil)
	client.On("DeleteFirewall", mock.Anything, "web-allow-http").Run(record("firewall/web-allow-http")).Return(nil)
	client.On("DeleteFirewall", mock.Anything, "web-allow-ssh").Run(record("firewall/web-allow-ssh")).Return(nil)
	client.On("DeleteSubnetwork", mock.Anything, "us-central1", "web-subnet").Run(record("subnet")).Return(nil)
	client.On("DeleteNetwork", mock.Anything, "web-vpc").Run(record("network")).Return(nil)

	deleted, err := testProvisioner(client).destroy(context.Background(), minimalConfig(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"instance", "firewall/web-allow-http", "firewall/web-allow-ssh", "subnet", "network"}, order)
	assert.Len(t, deleted, 5)
	client.AssertExpectations(t)
}

func TestDestroy_SkipsMissing(t *testing.T) {
	client := &gcpmocks.ClientInterface{}
	notFound := &googleapi.Error{Code: 404}
	client.On("DeleteInstance", mock.Anything, mock.Anything, mock.Anything).Return(notFound)
	client.On("DeleteFirewall", mock.Anything, mock.Anything).Return(notFound)
	client.On("DeleteSubnetwork", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	client.On("DeleteNetwork", mock.Anything, mock.Anything).Return(nil)

	deleted, err := testProvisioner(client).destroy(context.Background(), minimalConfig(), testLogger())
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, "web-subnet", deleted[0].Name)
	assert.Equal(t, "web-vpc", deleted[1].Name)
}

func TestDestroy_StopsOnError(t *testing.T) {
	client := &gcpmocks.ClientInterface{}
	client.On("DeleteInstance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	client.On("DeleteFirewall", mock.Anything, mock.Anything).Return(errors.New("permission denied"))

	deleted, err := testProvisioner(client).destroy(context.Background(), minimalConfig(), testLogger())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, stack.KindFirewall, stepErr.Step.Kind)
	assert.Len(t, deleted, 1)
	client.AssertNotCalled(t, "DeleteNetwork", mock.Anything, mock.Anything)
}

func TestDestroy_RequiresProject(t *testing.T) {
	client := &gcpmocks.ClientInterface{}
	_, err := testProvisioner(client).destroy(context.Background(), &Config{}, testLogger())
	require.Error(t, err)
}
