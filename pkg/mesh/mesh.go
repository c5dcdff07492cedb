// Package mesh models the full set of nodes in an overlay: pair
// enumeration, orchestrated peering, and the up/down/sync/show/info
// operations that drive convergence across every node.
package mesh

import (
	"fmt"
	"net"
	"sort"

	"github.com/sitbon/wgmesh/pkg/config"
	"github.com/sitbon/wgmesh/pkg/node"
)

// Mesh is a named overlay network: a set of nodes sharing a common network
// CIDR, peered (fully or partially) according to Full.
type Mesh struct {
	name    string
	network *net.IPNet
	full    bool

	nodes map[string]*node.Node
	order []string // node names, sorted: deterministic pair enumeration
}

// Name implements node.MeshContext.
func (m *Mesh) Name() string { return m.name }

// Full implements node.MeshContext.
func (m *Mesh) Full() bool { return m.full }

// Network is the mesh's declared CIDR.
func (m *Mesh) Network() *net.IPNet { return m.network }

// Node looks up a member node by name.
func (m *Mesh) Node(name string) (*node.Node, bool) {
	n, ok := m.nodes[name]
	return n, ok
}

// Names lists every node name in deterministic, lexicographic order.
func (m *Mesh) Names() []string {
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// Len is the number of nodes in the mesh.
func (m *Mesh) Len() int { return len(m.nodes) }

// New builds a Mesh from a decoded document, attaching every node over SSH
// in lexicographic name order. A failure attaching any node aborts
// construction entirely: the caller is left with no partially-built mesh to
// accidentally operate on.
func New(doc *config.Document) (*Mesh, error) {
	ip, network, err := net.ParseCIDR(doc.Network)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: invalid network %q: %w", doc.Name, doc.Network, err)
	}
	network.IP = ip

	full := true
	if doc.Full != nil {
		full = *doc.Full
	}

	m := &Mesh{name: doc.Name, network: network, full: full, nodes: map[string]*node.Node{}}

	names := make([]string, 0, len(doc.Nodes))
	for name := range doc.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	m.order = names

	for _, name := range names {
		n, err := node.FromDoc(name, doc.Nodes[name])
		if err != nil {
			return nil, err
		}
		if err := n.Attach(m, m.network); err != nil {
			return nil, err
		}
		m.nodes[name] = n
	}

	return m, nil
}

// pairs enumerates every unordered pair of nodes in deterministic,
// lexicographic-by-name order.
func (m *Mesh) pairs() [][2]*node.Node {
	var out [][2]*node.Node
	for i := 0; i < len(m.order); i++ {
		for j := i + 1; j < len(m.order); j++ {
			out = append(out, [2]*node.Node{m.nodes[m.order[i]], m.nodes[m.order[j]]})
		}
	}
	return out
}

// PeerAll runs PeerWith across every pair of nodes.
func (m *Mesh) PeerAll() error {
	for _, pair := range m.pairs() {
		if err := pair[0].PeerWith(pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// ConfigWrite writes every node's current computed config to its remote
// host.
func (m *Mesh) ConfigWrite() {
	for _, name := range m.order {
		m.nodes[name].ConfigWrite()
	}
}

// ConfigRemove removes every node's remote config file.
func (m *Mesh) ConfigRemove() {
	for _, name := range m.order {
		m.nodes[name].ConfigRemove()
	}
}
