package stack

import (
	"fmt"
	"os"
	"strings"

	"github.com/Bibi40k/gce-web-bootstrap/configs"
	"github.com/Bibi40k/gce-web-bootstrap/internal/utils"
	"gopkg.in/yaml.v3"
)

// Default returns the embedded default descriptor set with derived fields filled.
func Default() (*Stack, error) {
	s, err := embedded()
	if err != nil {
		return nil, err
	}
	s.SetDefaults()
	return s, nil
}

// Parse overlays YAML data onto the default descriptor set.
// Keys absent from data keep their default values; lists are replaced.
// Derived references are filled after the overlay, so renaming the network
// also renames every reference to it.
func Parse(data []byte) (*Stack, error) {
	s, err := embedded()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse stack: %w", err)
	}
	s.SetDefaults()
	return s, nil
}

func embedded() (*Stack, error) {
	var s Stack
	if err := yaml.Unmarshal(configs.StackYAML, &s); err != nil {
		return nil, fmt.Errorf("invalid embedded stack.yaml: %w", err)
	}
	return &s, nil
}

// Load reads a stack file and overlays it onto the defaults.
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SetDefaults fills fields that can be derived from other descriptors.
func (s *Stack) SetDefaults() {
	d := configs.Defaults.Provider

	if s.Network.SubnetMode == "" {
		s.Network.SubnetMode = "custom"
	}
	if s.Instance.Zone == "" {
		s.Instance.Zone = d.Zone
	}
	if s.Region == "" {
		s.Region = s.Subnet.Region
	}
	if s.Region == "" {
		s.Region = utils.ZoneRegion(s.Instance.Zone)
	}
	if s.Region == "" {
		s.Region = d.Region
	}
	if s.Subnet.Region == "" {
		s.Subnet.Region = s.Region
	}
	if s.Subnet.Network == "" {
		s.Subnet.Network = s.Network.Name
	}
	for i := range s.Firewalls {
		fw := &s.Firewalls[i]
		if fw.Network == "" {
			fw.Network = s.Network.Name
		}
		if fw.Direction == "" {
			fw.Direction = "INGRESS"
		}
		fw.Direction = strings.ToUpper(fw.Direction)
		if fw.Priority == nil {
			p := configs.Defaults.Provider.FirewallPriority
			fw.Priority = &p
		}
	}
	if s.Instance.Network == "" {
		s.Instance.Network = s.Network.Name
	}
	if s.Instance.Subnet == "" {
		s.Instance.Subnet = s.Subnet.Name
	}
}

var validProtocols = map[string]bool{
	"tcp": true, "udp": true, "icmp": true, "esp": true, "ah": true, "sctp": true, "ipip": true, "all": true,
}

// Validate checks names, address ranges and that every reference resolves to
// a resource created earlier in the plan.
func (s *Stack) Validate() error {
	if err := utils.ValidateResourceName(s.Network.Name); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	if s.Network.SubnetMode != "custom" {
		return fmt.Errorf("network %s: unsupported subnet_mode %q (supported: custom)", s.Network.Name, s.Network.SubnetMode)
	}

	if err := utils.ValidateResourceName(s.Subnet.Name); err != nil {
		return fmt.Errorf("subnet: %w", err)
	}
	if s.Subnet.Network != s.Network.Name {
		return fmt.Errorf("subnet %s references unknown network %q", s.Subnet.Name, s.Subnet.Network)
	}
	if err := utils.ValidateCIDR(s.Subnet.CIDR); err != nil {
		return fmt.Errorf("subnet %s: %w", s.Subnet.Name, err)
	}
	if s.Subnet.Region == "" {
		return fmt.Errorf("subnet %s: region is required", s.Subnet.Name)
	}

	if len(s.Firewalls) == 0 {
		return fmt.Errorf("at least one firewall rule is required")
	}
	seen := make(map[string]bool, len(s.Firewalls))
	for _, fw := range s.Firewalls {
		if err := fw.validate(s.Network.Name); err != nil {
			return err
		}
		if seen[fw.Name] {
			return fmt.Errorf("duplicate firewall rule name %q", fw.Name)
		}
		seen[fw.Name] = true
	}

	inst := s.Instance
	if err := utils.ValidateResourceName(inst.Name); err != nil {
		return fmt.Errorf("instance: %w", err)
	}
	if inst.Network != s.Network.Name {
		return fmt.Errorf("instance %s references unknown network %q", inst.Name, inst.Network)
	}
	if inst.Subnet != s.Subnet.Name {
		return fmt.Errorf("instance %s references unknown subnet %q", inst.Name, inst.Subnet)
	}
	if utils.ZoneRegion(inst.Zone) != s.Subnet.Region {
		return fmt.Errorf("instance %s: zone %q is not in subnet region %q", inst.Name, inst.Zone, s.Subnet.Region)
	}
	if inst.MachineType == "" {
		return fmt.Errorf("instance %s: machine_type is required", inst.Name)
	}
	if inst.Image == "" {
		return fmt.Errorf("instance %s: image is required", inst.Name)
	}
	if inst.DiskSizeGB != 0 && inst.DiskSizeGB < 10 {
		return fmt.Errorf("instance %s: disk_size_gb must be at least 10 (got %d)", inst.Name, inst.DiskSizeGB)
	}
	for _, tag := range inst.Tags {
		if err := utils.ValidateResourceName(tag); err != nil {
			return fmt.Errorf("instance %s tag: %w", inst.Name, err)
		}
	}
	return nil
}

func (fw FirewallRule) validate(network string) error {
	if err := utils.ValidateResourceName(fw.Name); err != nil {
		return fmt.Errorf("firewall: %w", err)
	}
	if fw.Network != network {
		return fmt.Errorf("firewall %s references unknown network %q", fw.Name, fw.Network)
	}
	if fw.Direction != "INGRESS" && fw.Direction != "EGRESS" {
		return fmt.Errorf("firewall %s: direction must be INGRESS or EGRESS (got %q)", fw.Name, fw.Direction)
	}
	if fw.Priority != nil && (*fw.Priority < 0 || *fw.Priority > 65535) {
		return fmt.Errorf("firewall %s: priority must be in range 0..65535", fw.Name)
	}
	if len(fw.Allowed) == 0 {
		return fmt.Errorf("firewall %s: at least one allowed protocol is required", fw.Name)
	}
	for _, a := range fw.Allowed {
		proto := strings.ToLower(a.Protocol)
		if !validProtocols[proto] {
			return fmt.Errorf("firewall %s: unsupported protocol %q", fw.Name, a.Protocol)
		}
		if len(a.Ports) > 0 && proto != "tcp" && proto != "udp" && proto != "sctp" {
			return fmt.Errorf("firewall %s: ports are only valid for tcp, udp and sctp", fw.Name)
		}
		for _, p := range a.Ports {
			if _, _, err := utils.ParsePortRange(p); err != nil {
				return fmt.Errorf("firewall %s: %w", fw.Name, err)
			}
		}
	}
	for _, r := range fw.SourceRanges {
		if err := utils.ValidateSourceRange(r); err != nil {
			return fmt.Errorf("firewall %s source range: %w", fw.Name, err)
		}
	}
	return nil
}

// Warnings returns non-fatal configuration hints.
func (s *Stack) Warnings() []string {
	var out []string
	tags := make(map[string]bool, len(s.Instance.Tags))
	for _, t := range s.Instance.Tags {
		tags[t] = true
	}
	for _, fw := range s.Firewalls {
		if len(fw.TargetTags) > 0 {
			matched := false
			for _, t := range fw.TargetTags {
				if tags[t] {
					matched = true
					break
				}
			}
			if !matched {
				out = append(out, fmt.Sprintf("firewall %s targets tags %v that instance %s does not carry",
					fw.Name, fw.TargetTags, s.Instance.Name))
			}
		}
		if fw.opensPortToWorld("22") {
			out = append(out, fmt.Sprintf("firewall %s allows SSH from 0.0.0.0/0", fw.Name))
		}
	}
	return out
}

func (fw FirewallRule) opensPortToWorld(port string) bool {
	if fw.Direction != "INGRESS" {
		return false
	}
	world := false
	for _, r := range fw.SourceRanges {
		if r == "0.0.0.0/0" {
			world = true
		}
	}
	if !world {
		return false
	}
	for _, a := range fw.Allowed {
		if strings.ToLower(a.Protocol) != "tcp" {
			continue
		}
		for _, p := range a.Ports {
			if p == port {
				return true
			}
		}
	}
	return false
}

// Steps returns the creation plan: network, subnet, firewall rules, instance.
func (s *Stack) Steps() []Step {
	steps := []Step{
		{Kind: KindNetwork, Name: s.Network.Name},
		{Kind: KindSubnet, Name: s.Subnet.Name, DependsOn: []string{s.Network.Name}},
	}
	fwNames := make([]string, 0, len(s.Firewalls))
	for _, fw := range s.Firewalls {
		steps = append(steps, Step{Kind: KindFirewall, Name: fw.Name, DependsOn: []string{fw.Network}})
		fwNames = append(fwNames, fw.Name)
	}
	instDeps := append([]string{s.Instance.Network, s.Instance.Subnet}, fwNames...)
	steps = append(steps, Step{Kind: KindInstance, Name: s.Instance.Name, DependsOn: instDeps})
	return steps
}

// String renders a step for plan output.
func (st Step) String() string {
	if len(st.DependsOn) == 0 {
		return fmt.Sprintf("%s/%s", st.Kind, st.Name)
	}
	return fmt.Sprintf("%s/%s (after %s)", st.Kind, st.Name, strings.Join(st.DependsOn, ", "))
}
