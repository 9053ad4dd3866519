// Package stack describes the fixed set of resources the provisioner creates:
// one custom-mode network, one subnet, its firewall rules and one instance.
package stack

// Kind identifies a resource type in the creation plan.
type Kind string

const (
	KindNetwork  Kind = "network"
	KindSubnet   Kind = "subnet"
	KindFirewall Kind = "firewall"
	KindInstance Kind = "instance"
)

// Stack is the complete resource descriptor set.
type Stack struct {
	Project   string         `yaml:"project,omitempty"`
	Region    string         `yaml:"region"`
	Network   Network        `yaml:"network"`
	Subnet    Subnet         `yaml:"subnet"`
	Firewalls []FirewallRule `yaml:"firewalls"`
	Instance  Instance       `yaml:"instance"`
}

// Network is a VPC network. Only custom subnet mode is supported.
type Network struct {
	Name        string `yaml:"name"`
	SubnetMode  string `yaml:"subnet_mode"`
	Description string `yaml:"description,omitempty"`
}

// Subnet is a regional IP range carved from Network.
type Subnet struct {
	Name    string `yaml:"name"`
	Network string `yaml:"network"`
	CIDR    string `yaml:"ip_cidr_range"`
	Region  string `yaml:"region"`
}

// FirewallRule is an allow rule scoped to Network.
type FirewallRule struct {
	Name         string    `yaml:"name"`
	Network      string    `yaml:"network"`
	Direction    string    `yaml:"direction"`
	Priority     *int64    `yaml:"priority,omitempty"` // nil = 1000; 0 is the highest priority
	SourceRanges []string  `yaml:"source_ranges"`
	TargetTags   []string  `yaml:"target_tags"`
	Allowed      []Allowed `yaml:"allowed"`
}

// Allowed is one protocol and its ports (empty Ports = all ports).
type Allowed struct {
	Protocol string   `yaml:"protocol"`
	Ports    []string `yaml:"ports,omitempty"`
}

// Instance is the VM. StartupScript is opaque guest payload; when empty the
// provisioner fills it from pkg/startup.
type Instance struct {
	Name          string            `yaml:"name"`
	Zone          string            `yaml:"zone"`
	MachineType   string            `yaml:"machine_type"`
	Image         string            `yaml:"image"`
	DiskSizeGB    int64             `yaml:"disk_size_gb"`
	Network       string            `yaml:"network"`
	Subnet        string            `yaml:"subnet"`
	Tags          []string          `yaml:"tags"`
	Labels        map[string]string `yaml:"labels,omitempty"`
	StartupScript string            `yaml:"startup_script,omitempty"`
}

// Step is one entry of the ordered creation plan.
type Step struct {
	Kind      Kind
	Name      string
	DependsOn []string
}
