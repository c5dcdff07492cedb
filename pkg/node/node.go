// Package node models one mesh member: its declared identity, its realized
// WireGuard config, and the peering/convergence algorithms that bring it in
// and out of sync with a neighbor or the mesh as a whole.
package node

import (
	"fmt"
	"net"

	"github.com/sitbon/wgmesh/pkg/config"
	"github.com/sitbon/wgmesh/pkg/sshrun"
	"github.com/sitbon/wgmesh/pkg/wgaddr"
	"github.com/sitbon/wgmesh/pkg/wgremote"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// MeshContext is the narrow view of the owning mesh a node needs: its name
// (for deterministic interface/GRETAP naming) and whether it requires full
// reachability before peering. A node holds this instead of a pointer back
// to *mesh.Mesh so the two packages don't form an import cycle.
type MeshContext interface {
	Name() string
	Full() bool
}

// Node is one mesh member.
type Node struct {
	Name       string
	Addr       *net.IPNet
	SSH        sshrun.Spec
	Endpoint   wgaddr.Endpoint
	ListenPort int
	Prio       *int
	JSON       map[string]any

	index    int
	meshName string
	meshFull bool

	client sshrun.Runner
	remote *wgremote.Remote
	config *wgremote.Config
}

// FromDoc builds a declared Node from its mesh-document entry, validating
// the fields that don't depend on the rest of the mesh.
func FromDoc(name string, doc config.NodeDoc) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node name must not be empty")
	}

	ip, addr, err := net.ParseCIDR(doc.Addr)
	if err != nil {
		return nil, fmt.Errorf("node %q: invalid addr %q: %w", name, doc.Addr, err)
	}
	addr.IP = ip

	ep, err := wgaddr.ParseEndpoint(doc.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}

	return &Node{
		Name:       name,
		Addr:       addr,
		SSH:        doc.SSH,
		Endpoint:   ep,
		ListenPort: doc.ListenPort,
		Prio:       doc.Prio,
		JSON:       doc.JSON,
	}, nil
}

// Attach connects to the node's remote host, derives its position in the
// mesh network, and either adopts its existing WireGuard identity or
// synthesizes a fresh one. It must run before any other Node method.
func (n *Node) Attach(mesh MeshContext, network *net.IPNet) error {
	idx, err := wgaddr.NodeIndex(n.Addr, network)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Name, err)
	}
	n.index = idx
	n.meshName = mesh.Name()
	n.meshFull = mesh.Full()

	client, err := sshrun.NewClient(n.SSH)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Name, err)
	}
	n.client = client
	n.remote = wgremote.New(client, fmt.Sprintf("wg-%s%d", n.meshName, n.index))

	existing, err := n.remote.Config()
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Name, err)
	}
	if existing != nil {
		if n.ListenPort == 0 && existing.ListenPort != wgaddr.DefaultPort {
			n.ListenPort = existing.ListenPort
		}
		n.config = existing
		return nil
	}

	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("node %q: generate key: %w", n.Name, err)
	}
	ula, err := wgaddr.RandomULA()
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Name, err)
	}
	if n.ListenPort == 0 {
		n.ListenPort = wgaddr.DefaultPort
	}
	n.config = wgremote.NewConfig(priv, ula, n.ListenPort)
	return nil
}

// Index is this node's position within the mesh network.
func (n *Node) Index() int { return n.index }

// BridgePriority is this node's STP priority, derived from Index unless
// Prio overrides it.
func (n *Node) BridgePriority() int {
	return wgaddr.BridgePriority(n.index, n.Prio)
}

// TunnelAddr is the node's realized WireGuard tunnel address.
func (n *Node) TunnelAddr() net.IP {
	return n.config.Address
}

// PublicKey is the node's realized WireGuard public key.
func (n *Node) PublicKey() wgtypes.Key {
	return n.config.PrivateKey.PublicKey()
}

// ConfigExists reports whether a config file is present on the remote host.
func (n *Node) ConfigExists() bool { return n.remote.ConfigExists() }

// IsUp reports whether the node's WireGuard interface is currently up.
func (n *Node) IsUp() bool { return n.remote.IsUp() }

// Remote exposes the underlying WireGuard remote, for Mesh.Show.
func (n *Node) Remote() *wgremote.Remote { return n.remote }

// RenderConfig returns the node's computed wg-quick config text without
// touching the remote host, for the `conf` CLI verb.
func (n *Node) RenderConfig() string { return n.config.Render() }

// Peers lists the friendly names of this node's current peers, in peering
// order.
func (n *Node) Peers() []string {
	names := make([]string, 0, len(n.config.PeerOrder))
	for _, key := range n.config.PeerOrder {
		names = append(names, n.config.Peers[key].FriendlyName)
	}
	return names
}

// ConfigWrite writes the node's current computed config to the remote host.
func (n *Node) ConfigWrite() error { return n.remote.ConfigWrite(n.config) }

// ConfigRemove deletes the node's remote config file.
func (n *Node) ConfigRemove() error { return n.remote.ConfigRemove() }

func (n *Node) endpointPort() int {
	if n.Endpoint.Port != 0 {
		return int(n.Endpoint.Port)
	}
	return wgaddr.DefaultPort
}

func tunnelCIDR(ip net.IP) string {
	return ip.String() + "/128"
}
