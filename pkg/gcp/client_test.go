package gcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

type recordedRequest struct {
	Method    string
	Path      string
	RequestID string
	Body      map[string]any
}

type fakeCompute struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeCompute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		RequestID: r.URL.Query().Get("requestId"),
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeCompute) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *fakeCompute) {
	t.Helper()
	fake := &fakeCompute{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(context.Background(), "demo-project",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	c.pollInterval = time.Millisecond
	c.timeout = 5 * time.Second
	return c, fake
}

func TestCreateNetwork_DoneImmediately(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, compute.Operation{
			Name:       "op-1",
			Status:     "DONE",
			TargetLink: "https://compute/projects/demo-project/global/networks/web-vpc",
			TargetId:   42,
		})
	})

	h, err := c.CreateNetwork(context.Background(), &compute.Network{Name: "web-vpc", ForceSendFields: []string{"AutoCreateSubnetworks"}})
	require.NoError(t, err)
	assert.Equal(t, "network", h.Kind)
	assert.Equal(t, "web-vpc", h.Name)
	assert.Equal(t, uint64(42), h.ID)
	assert.Contains(t, h.SelfLink, "networks/web-vpc")

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/projects/demo-project/global/networks", req.Path)
	assert.NotEmpty(t, req.RequestID)
	assert.Equal(t, false, req.Body["autoCreateSubnetworks"])
}

func TestCreateSubnetwork_WaitsForRegionalOperation(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/operations/op-2/wait"):
			writeJSON(w, http.StatusOK, compute.Operation{
				Name:       "op-2",
				Status:     "DONE",
				Region:     "https://compute/projects/demo-project/regions/us-central1",
				TargetLink: "https://compute/projects/demo-project/regions/us-central1/subnetworks/web-subnet",
			})
		default:
			writeJSON(w, http.StatusOK, compute.Operation{
				Name:   "op-2",
				Status: "RUNNING",
				Region: "https://compute/projects/demo-project/regions/us-central1",
			})
		}
	})

	h, err := c.CreateSubnetwork(context.Background(), "us-central1", &compute.Subnetwork{Name: "web-subnet", IpCidrRange: "10.10.0.0/24"})
	require.NoError(t, err)
	assert.Equal(t, "subnet", h.Kind)

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/projects/demo-project/regions/us-central1/subnetworks", reqs[0].Path)
	assert.Equal(t, "/projects/demo-project/regions/us-central1/operations/op-2/wait", reqs[1].Path)
}

func TestCreateInstance_WaitsForZonalOperation(t *testing.T) {
	var calls atomic.Int32
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/wait") {
			status := "RUNNING"
			if calls.Add(1) >= 2 {
				status = "DONE"
			}
			writeJSON(w, http.StatusOK, compute.Operation{Name: "op-3", Status: status, Zone: "zones/us-central1-a"})
			return
		}
		writeJSON(w, http.StatusOK, compute.Operation{Name: "op-3", Status: "PENDING", Zone: "zones/us-central1-a"})
	})

	_, err := c.CreateInstance(context.Background(), "us-central1-a", &compute.Instance{Name: "web-server"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	reqs := fake.recorded()
	assert.Equal(t, "/projects/demo-project/zones/us-central1-a/instances", reqs[0].Path)
	assert.Equal(t, "/projects/demo-project/zones/us-central1-a/operations/op-3/wait", reqs[1].Path)
}

func TestCreateFirewall_ConflictIsAlreadyExists(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"code":    409,
				"message": "The resource 'projects/demo-project/global/firewalls/web-allow-ssh' already exists",
				"errors": []map[string]any{{
					"reason":  "alreadyExists",
					"message": "already exists",
				}},
			},
		})
	})

	_, err := c.CreateFirewall(context.Background(), &compute.Firewall{Name: "web-allow-ssh"})
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateNetwork_OperationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, compute.Operation{
			Name:       "op-4",
			Status:     "DONE",
			TargetLink: "networks/web-vpc",
			Error: &compute.OperationError{Errors: []*compute.OperationErrorErrors{{
				Code:    "RESOURCE_ALREADY_EXISTS",
				Message: "The resource already exists",
			}}},
		})
	})

	_, err := c.CreateNetwork(context.Background(), &compute.Network{Name: "web-vpc"})
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "op-4", opErr.Operation)
}

func TestDeleteNetwork_NotFound(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"code": 404, "message": "not found"},
		})
	})

	err := c.DeleteNetwork(context.Background(), "web-vpc")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
	assert.Equal(t, "/projects/demo-project/global/networks/web-vpc", reqs[0].Path)
}

func TestGetInstance(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, compute.Instance{
			Name: "web-server",
			NetworkInterfaces: []*compute.NetworkInterface{{
				NetworkIP:     "10.10.0.2",
				AccessConfigs: []*compute.AccessConfig{{NatIP: "34.1.2.3"}},
			}},
		})
	})

	inst, err := c.GetInstance(context.Background(), "us-central1-a", "web-server")
	require.NoError(t, err)
	ext, in := InstanceAddresses(inst)
	assert.Equal(t, "34.1.2.3", ext)
	assert.Equal(t, "10.10.0.2", in)
}

func TestWaitOperation_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, compute.Operation{Name: "op-5", Status: "RUNNING"})
	})
	c.pollInterval = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.CreateNetwork(ctx, &compute.Network{Name: "web-vpc"})
	require.Error(t, err)
}
