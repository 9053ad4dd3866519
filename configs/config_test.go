package configs

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultsLoaded(t *testing.T) {
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Provider.Region", Defaults.Provider.Region, "us-central1"},
		{"Provider.Zone", Defaults.Provider.Zone, "us-central1-a"},
		{"Provider.AccessConfig", Defaults.Provider.AccessConfig, "External NAT"},
		{"Provider.ScriptKey", Defaults.Provider.ScriptKey, "startup-script"},
		{"Provider.UserDataKey", Defaults.Provider.UserDataKey, "user-data"},
		{"Startup.Format", Defaults.Startup.Format, "script"},
		{"Startup.WebPackage", Defaults.Startup.WebPackage, "nginx"},
		{"Output.ResultPath", Defaults.Output.ResultPath, "tmp/provision-result.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestDockerPackagesLoaded(t *testing.T) {
	want := map[string]bool{"docker-ce": false, "docker-ce-cli": false, "containerd.io": false}
	for _, p := range Defaults.Startup.DockerPackages {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("docker_packages missing %q", p)
		}
	}
}

func TestTimeoutDurationsPositive(t *testing.T) {
	d := Defaults.Timeouts

	durations := []struct {
		name string
		got  time.Duration
	}{
		{"Operation", d.Operation()},
		{"Polling", d.Polling()},
		{"HTTPConnect", d.HTTPConnect()},
		{"HTTPRetryDelay", d.HTTPRetryDelay()},
	}

	for _, tt := range durations {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got <= 0 {
				t.Errorf("%s() = %v, want > 0", tt.name, tt.got)
			}
		})
	}
	if d.HTTPRetries <= 0 {
		t.Errorf("HTTPRetries = %d, want > 0", d.HTTPRetries)
	}
}

func TestTimeoutDurationsConversion(t *testing.T) {
	d := Defaults.Timeouts

	if d.Operation() != time.Duration(d.OperationMinutes)*time.Minute {
		t.Error("Operation() conversion mismatch")
	}
	if d.Polling() != time.Duration(d.PollingSeconds)*time.Second {
		t.Error("Polling() conversion mismatch")
	}
	if d.HTTPRetryDelay() != time.Duration(d.HTTPRetryDelaySeconds)*time.Second {
		t.Error("HTTPRetryDelay() conversion mismatch")
	}
}

func TestStackYAMLParses(t *testing.T) {
	var doc map[string]any
	if err := yaml.Unmarshal(StackYAML, &doc); err != nil {
		t.Fatalf("stack.yaml is invalid YAML: %v", err)
	}
	for _, key := range []string{"network", "subnet", "firewalls", "instance"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("stack.yaml missing %q section", key)
		}
	}
}
