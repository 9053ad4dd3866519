package gcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Bibi40k/gce-web-bootstrap/configs"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
	"google.golang.org/api/compute/v1"
)

// NetworkURL returns the project-relative URL of a global network.
func NetworkURL(project, name string) string {
	return fmt.Sprintf("projects/%s/global/networks/%s", project, name)
}

// SubnetworkURL returns the project-relative URL of a regional subnetwork.
func SubnetworkURL(project, region, name string) string {
	return fmt.Sprintf("projects/%s/regions/%s/subnetworks/%s", project, region, name)
}

// MachineTypeURL returns the zonal machine type URL.
func MachineTypeURL(zone, machineType string) string {
	if strings.Contains(machineType, "/") {
		return machineType
	}
	return fmt.Sprintf("zones/%s/machineTypes/%s", zone, machineType)
}

// NetworkSpec builds the insert request for a custom-mode network.
func NetworkSpec(n stack.Network) *compute.Network {
	return &compute.Network{
		Name:                  n.Name,
		Description:           n.Description,
		AutoCreateSubnetworks: false,
		RoutingConfig:         &compute.NetworkRoutingConfig{RoutingMode: "REGIONAL"},
		// false is the zero value and would otherwise be omitted, which the API
		// reads as auto mode.
		ForceSendFields: []string{"AutoCreateSubnetworks"},
	}
}

// SubnetworkSpec builds the insert request for a subnet of an existing network.
func SubnetworkSpec(project string, s stack.Subnet) *compute.Subnetwork {
	return &compute.Subnetwork{
		Name:        s.Name,
		Network:     NetworkURL(project, s.Network),
		IpCidrRange: s.CIDR,
		Region:      s.Region,
	}
}

// FirewallSpec builds the insert request for a firewall rule.
func FirewallSpec(project string, fw stack.FirewallRule) *compute.Firewall {
	allowed := make([]*compute.FirewallAllowed, 0, len(fw.Allowed))
	for _, a := range fw.Allowed {
		allowed = append(allowed, &compute.FirewallAllowed{
			IPProtocol: strings.ToLower(a.Protocol),
			Ports:      a.Ports,
		})
	}
	out := &compute.Firewall{
		Name:         fw.Name,
		Network:      NetworkURL(project, fw.Network),
		Direction:    fw.Direction,
		SourceRanges: fw.SourceRanges,
		TargetTags:   fw.TargetTags,
		Allowed:      allowed,
	}
	if fw.Priority != nil {
		out.Priority = *fw.Priority
		// The API treats an omitted priority as 1000.
		out.ForceSendFields = append(out.ForceSendFields, "Priority")
	}
	return out
}

// InstanceSpec builds the insert request for the VM. Metadata values are
// passed through untouched; keys are sorted for stable requests.
func InstanceSpec(project, region string, inst stack.Instance, metadata, labels map[string]string) *compute.Instance {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]*compute.MetadataItems, 0, len(keys))
	for _, k := range keys {
		v := metadata[k]
		items = append(items, &compute.MetadataItems{Key: k, Value: &v})
	}

	mergedLabels := make(map[string]string, len(inst.Labels)+len(labels))
	for k, v := range inst.Labels {
		mergedLabels[k] = v
	}
	for k, v := range labels {
		mergedLabels[k] = v
	}

	return &compute.Instance{
		Name:        inst.Name,
		MachineType: MachineTypeURL(inst.Zone, inst.MachineType),
		Disks: []*compute.AttachedDisk{{
			Boot:       true,
			AutoDelete: true,
			Type:       "PERSISTENT",
			InitializeParams: &compute.AttachedDiskInitializeParams{
				SourceImage: inst.Image,
				DiskSizeGb:  inst.DiskSizeGB,
			},
		}},
		NetworkInterfaces: []*compute.NetworkInterface{{
			Network:    NetworkURL(project, inst.Network),
			Subnetwork: SubnetworkURL(project, region, inst.Subnet),
			AccessConfigs: []*compute.AccessConfig{{
				Name: configs.Defaults.Provider.AccessConfig,
				Type: "ONE_TO_ONE_NAT",
			}},
		}},
		Metadata: &compute.Metadata{Items: items},
		Tags:     &compute.Tags{Items: inst.Tags},
		Labels:   mergedLabels,
	}
}

// InstanceAddresses extracts the external (NAT) and internal IPv4 addresses
// of the first network interface.
func InstanceAddresses(inst *compute.Instance) (external, internal string) {
	if inst == nil || len(inst.NetworkInterfaces) == 0 {
		return "", ""
	}
	nic := inst.NetworkInterfaces[0]
	internal = nic.NetworkIP
	for _, ac := range nic.AccessConfigs {
		if ac.NatIP != "" {
			external = ac.NatIP
			break
		}
	}
	return external, internal
}
