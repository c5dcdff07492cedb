package node

import (
	"fmt"

	"github.com/sitbon/wgmesh/pkg/sshrun"
	"github.com/sitbon/wgmesh/pkg/wgremote"
)

// NewForTest builds an already-attached Node from a Runner and a realized
// config, for packages that need a working Node in tests but can't go
// through Attach, which requires a live SSH connection. Exported for
// pkg/mesh's own rollback/orchestration tests.
func NewForTest(name string, index int, meshName string, meshFull bool, client sshrun.Runner, cfg *wgremote.Config) *Node {
	return &Node{
		Name:     name,
		index:    index,
		meshName: meshName,
		meshFull: meshFull,
		client:   client,
		remote:   wgremote.New(client, fmt.Sprintf("wg-%s%d", meshName, index)),
		config:   cfg,
	}
}
