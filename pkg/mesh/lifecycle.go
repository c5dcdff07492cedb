package mesh

import (
	"fmt"
	"os"

	"github.com/sitbon/wgmesh/pkg/node"
)

// Up brings every node up, peering first if write doesn't forbid it and any
// node still lacks a config or peers. If any node fails to come up, already-
// started nodes are torn back down in reverse order and Up reports failure.
// It returns nil if the mesh has no nodes: a tri-valued "nothing attempted /
// failed / succeeded" result rather than a plain bool.
func (m *Mesh) Up(write node.TriState) *bool {
	if write != node.Skip {
		needsPeering := false
		for _, name := range m.order {
			n := m.nodes[name]
			if !n.ConfigExists() || len(n.Peers()) == 0 {
				needsPeering = true
				break
			}
		}
		if needsPeering {
			if err := m.PeerAll(); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] [up] !! peer_all: %v\n", m.name, err)
				f := false
				return &f
			}
		}
	}

	var upNodes []*node.Node
	for _, name := range m.order {
		n := m.nodes[name]
		if n.Up(write) {
			upNodes = append(upNodes, n)
			continue
		}
		for i := len(upNodes) - 1; i >= 0; i-- {
			upNodes[i].Down(write)
		}
		f := false
		return &f
	}

	if len(upNodes) == 0 {
		return nil
	}
	t := true
	return &t
}

// Down brings every node down, best-effort: every node is attempted
// regardless of earlier failures, and Down reports whether all of them
// succeeded.
func (m *Mesh) Down(remove node.TriState) bool {
	ok := true
	for _, name := range m.order {
		if !m.nodes[name].Down(remove) {
			ok = false
		}
	}
	return ok
}

// Sync reconciles every node's remote config with its computed one,
// reporting true only if every node reported a change.
func (m *Mesh) Sync(up node.TriState) bool {
	ok := true
	for _, name := range m.order {
		if !m.nodes[name].Sync(up) {
			ok = false
		}
	}
	return ok
}
