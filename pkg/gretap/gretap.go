// Package gretap synthesizes the shell fragments that stitch a GRETAP
// tunnel into a node's local bridge. It holds no state and does no I/O; the
// lines it returns are appended to a node's PostUp/PreDown sequences and
// executed remotely by pkg/wgremote.
package gretap

import (
	"fmt"
	"net"
	"regexp"
)

var nameRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidName reports whether s is safe to interpolate unquoted into a shell
// command as an interface or bridge name.
func ValidName(s string) bool {
	return s != "" && len(s) < 16 && nameRe.MatchString(s)
}

// Up returns the shell command sequence that creates the GRETAP device
// between local and remote, creates the bridge on first use, and attaches
// the device to it. The bridge is created idempotently: if it already
// exists (detected via sysfs) it is left alone.
func Up(gretapName, bridgeName string, priority int, local, remote net.IP, bridgeAddr *net.IPNet) ([]string, error) {
	if !ValidName(gretapName) {
		return nil, fmt.Errorf("gretap: invalid device name %q", gretapName)
	}
	if !ValidName(bridgeName) {
		return nil, fmt.Errorf("gretap: invalid bridge name %q", bridgeName)
	}

	kind := "gretap"
	if local.To4() == nil && remote.To4() == nil {
		kind = "ip6gretap"
	}

	return []string{
		fmt.Sprintf("ip link add dev %s type %s local %s remote %s", gretapName, kind, local, remote),
		fmt.Sprintf("ip link set dev %s up", gretapName),
		fmt.Sprintf(
			"if [ ! -f /sys/class/net/%s/bridge/bridge_id ]; then "+
				"ip link add name %s type bridge stp 1 prio %d; "+
				"ip link set dev %s up; "+
				"ip addr add %s dev %s; fi",
			bridgeName, bridgeName, priority, bridgeName, bridgeAddr, bridgeName,
		),
		fmt.Sprintf("ip link set dev %s master %s", gretapName, bridgeName),
	}, nil
}

// Down returns the shell command sequence that detaches and deletes the
// GRETAP device, and deletes the bridge only if this was its last member.
// Every step is best-effort (`|| true`): teardown must not fail the caller
// just because a device was already gone.
func Down(gretapName, bridgeName string) ([]string, error) {
	if !ValidName(gretapName) {
		return nil, fmt.Errorf("gretap: invalid device name %q", gretapName)
	}
	if !ValidName(bridgeName) {
		return nil, fmt.Errorf("gretap: invalid bridge name %q", bridgeName)
	}

	return []string{
		fmt.Sprintf("ip link set dev %s nomaster || true", gretapName),
		fmt.Sprintf("ip link del dev %s || true", gretapName),
		fmt.Sprintf("if ! ip a | grep -q 'master %s'; then ip link del dev %s || true; fi", bridgeName, bridgeName),
	}, nil
}
