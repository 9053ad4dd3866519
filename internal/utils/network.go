// Package utils provides internal utility functions.
package utils

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// resourceNameRE is the Compute Engine naming rule (RFC1035 label, max 63 chars).
var resourceNameRE = regexp.MustCompile(`^[a-z]([-a-z0-9]{0,61}[a-z0-9])?$`)

// ValidateResourceName checks a Compute Engine resource name.
func ValidateResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("resource name is empty")
	}
	if !resourceNameRE.MatchString(name) {
		return fmt.Errorf("invalid resource name %q (lowercase letters, digits and '-', must start with a letter, max 63 chars)", name)
	}
	return nil
}

// ValidateIPv4 validates an IPv4 address.
func ValidateIPv4(ip string) error {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}

	if parsed.To4() == nil {
		return fmt.Errorf("not an IPv4 address: %s", ip)
	}

	return nil
}

// ValidateCIDR validates an IPv4 prefix such as "10.10.0.0/24".
// The address must be the network address of the prefix.
func ValidateCIDR(cidr string) error {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR: %s", cidr)
	}
	if ip.To4() == nil {
		return fmt.Errorf("not an IPv4 CIDR: %s", cidr)
	}
	if !ip.Equal(ipNet.IP) {
		return fmt.Errorf("CIDR %s is not a network address (did you mean %s?)", cidr, ipNet.String())
	}
	return nil
}

// ValidateSourceRange accepts a firewall source range: an IPv4 prefix or a
// single IPv4 address.
func ValidateSourceRange(r string) error {
	if strings.Contains(r, "/") {
		return ValidateCIDR(r)
	}
	return ValidateIPv4(r)
}

// ZoneRegion returns the region part of a zone name.
// Example: "us-central1-a" -> "us-central1"
func ZoneRegion(zone string) string {
	i := strings.LastIndex(zone, "-")
	if i <= 0 {
		return ""
	}
	return zone[:i]
}

// ParsePortRange parses a port range string (e.g., "80", "8000-9000").
func ParsePortRange(portRange string) (start, end int, err error) {
	parts := strings.Split(portRange, "-")
	switch len(parts) {
	case 1:
		// Single port
		port, err := parsePort(parts[0])
		if err != nil {
			return 0, 0, err
		}
		return port, port, nil
	case 2:
		// Port range
		start, err := parsePort(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start port: %s", parts[0])
		}
		end, err := parsePort(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end port: %s", parts[1])
		}
		if start > end {
			return 0, 0, fmt.Errorf("start port > end port: %d > %d", start, end)
		}
		return start, end, nil
	default:
		return 0, 0, fmt.Errorf("invalid port range format: %s", portRange)
	}
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port: %s", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// IsPortOpen checks if a TCP port is accessible within the given timeout.
func IsPortOpen(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
