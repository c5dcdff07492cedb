package node

import (
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/sitbon/wgmesh/pkg/sshrun"
	"github.com/sitbon/wgmesh/pkg/wgaddr"
	"github.com/sitbon/wgmesh/pkg/wgremote"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// callLog records tagged events across one or more fakeRunners in call
// order, for asserting rollback/ordering properties across multiple nodes.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, s)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// fakeRunner is an sshrun.Runner that never touches the network: commands
// are classified by substring and answered from a caller-supplied table, so
// node convergence logic (Up/Down/Sync/PeerWith/rollback) can be exercised
// without a live SSH connection.
type fakeRunner struct {
	tag    string
	host   string
	isRoot bool
	log    *callLog

	mu       sync.Mutex
	commands []string

	respond func(cmd string) sshrun.Result
}

func newFakeRunner(tag string, log *callLog, respond func(cmd string) sshrun.Result) *fakeRunner {
	return &fakeRunner{tag: tag, host: tag, isRoot: true, log: log, respond: respond}
}

func (f *fakeRunner) Host() string { return f.host }
func (f *fakeRunner) IsRoot() bool { return f.isRoot }

func (f *fakeRunner) Run(cmd string, opts ...sshrun.Option) sshrun.Result {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	if f.log != nil {
		switch {
		case strings.Contains(cmd, "wg-quick up"):
			f.log.add(f.tag + ":up")
		case strings.Contains(cmd, "wg-quick down"):
			f.log.add(f.tag + ":down")
		}
	}

	if f.respond != nil {
		return f.respond(cmd)
	}
	return sshrun.Result{OK: true}
}

func (f *fakeRunner) RunAsync(cmd string, opts ...sshrun.Option) *sshrun.Handle {
	return sshrun.NewHandle(f.Run(cmd, opts...))
}

func (f *fakeRunner) issued(sub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

func mustSSHSpec(t *testing.T, s string) sshrun.Spec {
	t.Helper()
	spec, err := sshrun.ParseSpecString(s)
	if err != nil {
		t.Fatalf("ParseSpecString(%q): %v", s, err)
	}
	return spec
}

var stubKeyStr string

// stubConfig returns a minimal realized config with one peer, for tests
// that exercise peer-record logic without going through Attach (which
// requires a live SSH connection).
func stubConfig(t *testing.T) *wgremote.Config {
	t.Helper()
	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := wgremote.NewConfig(priv, net.ParseIP("fd00::1"), 51820)

	peerKey, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	stubKeyStr = peerKey.PublicKey().String()
	cfg.AddPeer(&wgremote.Peer{
		PublicKey:  peerKey.PublicKey(),
		AllowedIPs: []string{"fd00::2/128"},
	})
	return cfg
}

// buildStubNode assembles a Node without going through Attach, wiring in a
// fakeRunner so lifecycle/peering logic can run against scripted remote
// state instead of a live SSH connection.
func buildStubNode(t *testing.T, name string, index int, endpointHost string, r *fakeRunner) *Node {
	t.Helper()
	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ula := net.ParseIP("fd00::" + string(rune('0'+index)))
	cfg := wgremote.NewConfig(priv, ula, 51820)

	_, addr, err := net.ParseCIDR("10.0.0." + string(rune('0'+index)) + "/24")
	if err != nil {
		t.Fatalf("parse cidr: %v", err)
	}

	ep, err := wgaddr.ParseEndpoint(endpointHost)
	if err != nil {
		t.Fatalf("parse endpoint %q: %v", endpointHost, err)
	}

	return &Node{
		Name:     name,
		Addr:     addr,
		Endpoint: ep,
		index:    index,
		meshName: "m",
		meshFull: true,
		client:   r,
		remote:   wgremote.New(r, "wg-m"+string(rune('0'+index))),
		config:   cfg,
	}
}
