package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
)

func sampleResult() ProvisionResult {
	return ProvisionResult{
		Project: "demo-project",
		RunID:   "run-1",
		Region:  "us-central1",
		Zone:    "us-central1-a",
		Resources: []gcp.Handle{
			{Kind: "network", Name: "web-vpc", ID: 1},
			{Kind: "subnet", Name: "web-subnet", ID: 2},
			{Kind: "instance", Name: "web-server", ID: 3},
		},
		ExternalIP: "34.10.20.30",
	}
}

func TestLoadProvisionResultYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.yaml")
	content := []byte(`project: demo-project
run_id: run-1
resources:
  - kind: network
    name: web-vpc
  - kind: instance
    name: web-server
external_ip: 34.10.20.30
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	got, err := LoadProvisionResult(path)
	if err != nil {
		t.Fatalf("load provision result: %v", err)
	}
	if got.Project != "demo-project" || len(got.Resources) != 2 {
		t.Fatalf("unexpected parsed result: %+v", got)
	}
	inst, ok := got.Instance()
	if !ok || inst.Name != "web-server" {
		t.Fatalf("unexpected instance: %+v", inst)
	}
}

func TestSaveAndLoadProvisionResultJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "result.json")
	in := sampleResult()
	if err := SaveProvisionResult(path, in); err != nil {
		t.Fatalf("save provision result: %v", err)
	}
	out, err := LoadProvisionResult(path)
	if err != nil {
		t.Fatalf("load provision result: %v", err)
	}
	if out.ExternalIP != in.ExternalIP || out.Resources[2].ID != 3 {
		t.Fatalf("unexpected loaded result: %+v", out)
	}
	if out.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set on save")
	}
}

func TestSaveProvisionResult_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		mutate func(r *ProvisionResult)
	}{
		{"missing project", func(r *ProvisionResult) { r.Project = "" }},
		{"no resources", func(r *ProvisionResult) { r.Resources = nil }},
		{"bad resource name", func(r *ProvisionResult) { r.Resources[0].Name = "Bad_Name" }},
		{"bad ip", func(r *ProvisionResult) { r.ExternalIP = "not-an-ip" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleResult()
			tt.mutate(&r)
			if err := SaveProvisionResult(filepath.Join(dir, "r.yaml"), r); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadProvisionResult_Missing(t *testing.T) {
	if _, err := LoadProvisionResult(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
