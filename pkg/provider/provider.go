// Package provider adapts the mesh model to the check/create/diff/delete
// CRUD contract used by declarative infra-as-code tooling, as a thin
// adapter kept external to the core mesh model. It holds no state of its
// own: each call builds a fresh Mesh from the document it's given.
package provider

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sitbon/wgmesh/pkg/config"
	"github.com/sitbon/wgmesh/pkg/mesh"
	"github.com/sitbon/wgmesh/pkg/node"
)

// Result is what Create returns: a resource ID and the mesh's reported
// state, mirroring the original adapter's CreateResult outputs.
type Result struct {
	ID   string
	Info mesh.Info
}

// Diff describes what changed between two mesh documents. Any non-empty
// Replaces list means the resource must be deleted and recreated: topology
// changes have no update path, only replace.
type Diff struct {
	Changes             bool
	Replaces            []string
	DeleteBeforeReplace bool
}

// Check validates a mesh document's structural requirements and returns a
// human-readable failure per violation, mirroring the original adapter's
// check() contract.
func Check(doc *config.Document) []string {
	var failures []string

	if doc.Name == "" {
		failures = append(failures, "name: required")
	}
	if doc.Network == "" {
		failures = append(failures, "network: required")
	}
	if len(doc.Nodes) == 0 {
		failures = append(failures, "nodes: required")
	}
	for name, n := range doc.Nodes {
		if n.Addr == "" {
			failures = append(failures, fmt.Sprintf("nodes.%s.addr: required", name))
		}
		if n.SSH.Host == "" {
			failures = append(failures, fmt.Sprintf("nodes.%s.ssh: required", name))
		}
		if n.Endpoint == "" {
			failures = append(failures, fmt.Sprintf("nodes.%s.endpoint: required", name))
		}
	}

	return failures
}

// Create builds the mesh, peers every node, writes every config, and brings
// the mesh up. Any failure tears the whole mesh back down (config removed)
// before returning an error, so a failed create never leaves orphaned
// remote state behind.
func Create(doc *config.Document) (*Result, error) {
	m, err := mesh.New(doc)
	if err != nil {
		return nil, err
	}

	if err := m.PeerAll(); err != nil {
		m.Down(node.Force)
		return nil, fmt.Errorf("create mesh %q: peer_all: %w", doc.Name, err)
	}
	m.ConfigWrite()

	if up := m.Up(node.Skip); up == nil || !*up {
		m.Down(node.Force)
		return nil, fmt.Errorf("create mesh %q: failed to bring up mesh", doc.Name)
	}

	return &Result{ID: fmt.Sprintf("mesh-%s", uuid.NewString()), Info: m.Info()}, nil
}

// diffAttrs reports which top-level or per-node attributes changed between
// old and new. Any change forces a replace: the mesh is re-created
// wholesale, never patched in place.
func diffAttrs(old, new *config.Document) []string {
	var replaces []string

	if old.Name != new.Name {
		replaces = append(replaces, "name")
	}
	if old.Network != new.Network {
		replaces = append(replaces, "network")
	}
	if boolVal(old.Full) != boolVal(new.Full) {
		replaces = append(replaces, "full")
	}

	seen := make(map[string]bool, len(new.Nodes))
	for name, newNode := range new.Nodes {
		seen[name] = true
		oldNode, existed := old.Nodes[name]
		if !existed {
			replaces = append(replaces, fmt.Sprintf("nodes.%s", name))
			continue
		}
		if oldNode.Addr != newNode.Addr {
			replaces = append(replaces, fmt.Sprintf("nodes.%s.addr", name))
		}
		if oldNode.SSH != newNode.SSH {
			replaces = append(replaces, fmt.Sprintf("nodes.%s.ssh", name))
		}
		if oldNode.Endpoint != newNode.Endpoint {
			replaces = append(replaces, fmt.Sprintf("nodes.%s.endpoint", name))
		}
		if oldNode.ListenPort != newNode.ListenPort {
			replaces = append(replaces, fmt.Sprintf("nodes.%s.listen_port", name))
		}
		if !intPtrEqual(oldNode.Prio, newNode.Prio) {
			replaces = append(replaces, fmt.Sprintf("nodes.%s.prio", name))
		}
	}
	for name := range old.Nodes {
		if !seen[name] {
			replaces = append(replaces, fmt.Sprintf("nodes.%s", name))
		}
	}

	return replaces
}

// MakeDiff compares two mesh documents.
func MakeDiff(old, new *config.Document) Diff {
	replaces := diffAttrs(old, new)
	return Diff{Changes: len(replaces) > 0, Replaces: replaces, DeleteBeforeReplace: true}
}

// Delete tears the mesh all the way down, removing every node's config.
func Delete(doc *config.Document) error {
	m, err := mesh.New(doc)
	if err != nil {
		return err
	}
	if !m.Down(node.Force) {
		return fmt.Errorf("delete mesh %q: partial failure tearing down", doc.Name)
	}
	return nil
}

func boolVal(b *bool) bool { return b == nil || *b }

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
