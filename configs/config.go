// Package configs provides library defaults loaded from embedded YAML files.
// All hardcoded values live in defaults.yaml and stack.yaml.
package configs

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// StackYAML is the default resource descriptor set. It is decoded by
// pkg/stack so that user overrides can be layered on top of it.
//
//go:embed stack.yaml
var StackYAML []byte

// Defaults holds all library default values (loaded from defaults.yaml at startup).
var Defaults LibDefaults

func init() {
	if err := yaml.Unmarshal(defaultsYAML, &Defaults); err != nil {
		panic("gce-web-bootstrap: invalid defaults.yaml: " + err.Error())
	}
}

// LibDefaults holds all configurable library defaults.
type LibDefaults struct {
	Provider ProviderDefaults `yaml:"provider"`
	Startup  StartupDefaults  `yaml:"startup"`
	Timeouts TimeoutDefaults  `yaml:"timeouts"`
	Output   OutputDefaults   `yaml:"output"`
}

// ProviderDefaults holds Compute Engine API defaults.
type ProviderDefaults struct {
	Region       string `yaml:"region"`
	Zone         string `yaml:"zone"`
	UserAgent    string `yaml:"user_agent"`
	RunLabelKey  string `yaml:"run_label_key"`
	ManagedLabel string `yaml:"managed_label"`
	AccessConfig string `yaml:"access_config"`
	SSHKeysKey   string `yaml:"ssh_keys_metadata_key"`
	ScriptKey    string `yaml:"startup_script_metadata_key"`
	UserDataKey  string `yaml:"user_data_metadata_key"`

	FirewallPriority int64 `yaml:"firewall_priority"`
}

// StartupDefaults holds guest payload defaults.
type StartupDefaults struct {
	Format         string   `yaml:"format"`
	Packages       []string `yaml:"packages"`
	DockerPackages []string `yaml:"docker_packages"`
	DockerRepo     string   `yaml:"docker_repo"`
	DockerUsers    []string `yaml:"docker_users"`
	WebPackage     string   `yaml:"web_package"`
}

// TimeoutDefaults holds all timeout and polling values.
type TimeoutDefaults struct {
	OperationMinutes      int `yaml:"operation_minutes"`
	PollingSeconds        int `yaml:"polling_seconds"`
	HTTPRetries           int `yaml:"http_retries"`
	HTTPConnectSeconds    int `yaml:"http_connect_seconds"`
	HTTPRetryDelaySeconds int `yaml:"http_retry_delay_seconds"`
}

// As time.Duration convenience methods.

func (t TimeoutDefaults) Operation() time.Duration {
	return time.Duration(t.OperationMinutes) * time.Minute
}
func (t TimeoutDefaults) Polling() time.Duration {
	return time.Duration(t.PollingSeconds) * time.Second
}
func (t TimeoutDefaults) HTTPConnect() time.Duration {
	return time.Duration(t.HTTPConnectSeconds) * time.Second
}
func (t TimeoutDefaults) HTTPRetryDelay() time.Duration {
	return time.Duration(t.HTTPRetryDelaySeconds) * time.Second
}

// OutputDefaults holds CLI output defaults.
type OutputDefaults struct {
	ResultPath   string `yaml:"result_path"`
	DebugLogPath string `yaml:"debug_log_path"`
}
