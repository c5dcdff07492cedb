package wgremote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sitbon/wgmesh/pkg/sshrun"
)

// Remote is the WireGuard-specific view of one node's SSH connection: a
// fixed interface name plus the config/lifecycle operations that name.
type Remote struct {
	client    sshrun.Runner
	Interface string
}

// New wraps client for operations against the given WireGuard interface.
func New(client sshrun.Runner, iface string) *Remote {
	return &Remote{client: client, Interface: iface}
}

// Client exposes the underlying transport, for the UDP reachability probe.
func (r *Remote) Client() sshrun.Runner { return r.client }

// Host returns the remote host this connection targets.
func (r *Remote) Host() string { return r.client.Host() }

func (r *Remote) configPath() string {
	return fmt.Sprintf("/etc/wireguard/%s.conf", r.Interface)
}

// ConfigExists reports whether a config file is present for this interface.
func (r *Remote) ConfigExists() bool {
	return r.client.Run(fmt.Sprintf("test -f %s", r.configPath())).OK
}

// ConfigText returns the raw config file contents, or ok=false if absent.
func (r *Remote) ConfigText() (text string, ok bool) {
	res := r.client.Run(fmt.Sprintf("cat %s", r.configPath()))
	if !res.OK {
		return "", false
	}
	return strings.TrimSpace(res.Stdout), true
}

// Config reads and parses the remote config, returning nil if no config
// file exists yet.
func (r *Remote) Config() (*Config, error) {
	text, ok := r.ConfigText()
	if !ok {
		return nil, nil
	}
	cfg, err := ParseConfig(text)
	if err != nil {
		return nil, fmt.Errorf("%s: parse remote config: %w", r.Interface, err)
	}
	return cfg, nil
}

// ConfigWrite overwrites the remote config file with cfg's rendering.
func (r *Remote) ConfigWrite(cfg *Config) error {
	path := r.configPath()
	body := strings.TrimRight(cfg.Render(), "\n")

	var cmd string
	if r.client.IsRoot() {
		cmd = fmt.Sprintf("cat > %s <<'WGMESHEOF'\n%s\nWGMESHEOF", path, body)
	} else {
		cmd = fmt.Sprintf("cat <<'WGMESHEOF' | sudo tee %s >/dev/null\n%s\nWGMESHEOF", path, body)
	}

	res := r.client.Run(cmd, sshrun.WithRoot(false))
	if !res.OK {
		return fmt.Errorf("%s: config_write: %s", r.Interface, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ConfigRemove deletes the remote config file. It refuses while the
// interface is up, mirroring wg-quick's own refusal to leave a dangling
// active interface with no config to tear it down with.
func (r *Remote) ConfigRemove() error {
	if r.IsUp() {
		return fmt.Errorf("%s: refusing to remove config while interface is up", r.Interface)
	}
	res := r.client.Run(fmt.Sprintf("rm -f %s", r.configPath()))
	if !res.OK {
		return fmt.Errorf("%s: config_remove: %s", r.Interface, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// IsUp reports whether the interface currently exists in the kernel.
func (r *Remote) IsUp() bool {
	return r.client.Run(fmt.Sprintf("wg show %s", r.Interface)).OK
}

// Up runs wg-quick up. On failure the returned error carries the command's
// combined output, mirroring the Result<string, ShellError> shape of every
// remote lifecycle operation.
func (r *Remote) Up() (string, error) {
	res := r.client.Run(fmt.Sprintf("wg-quick up %s 2>&1", r.Interface))
	out := strings.TrimSpace(res.Stdout)
	if !res.OK {
		return "", errors.New(out)
	}
	return out, nil
}

// Down runs wg-quick down.
func (r *Remote) Down() (string, error) {
	res := r.client.Run(fmt.Sprintf("wg-quick down %s 2>&1", r.Interface))
	out := strings.TrimSpace(res.Stdout)
	if !res.OK {
		return "", errors.New(out)
	}
	return out, nil
}

// Show runs wg show for this interface.
func (r *Remote) Show() (string, error) {
	res := r.client.Run(fmt.Sprintf("wg show %s 2>&1", r.Interface))
	out := strings.TrimSpace(res.Stdout)
	if !res.OK {
		return "", errors.New(out)
	}
	return out, nil
}
