package node

import (
	"testing"

	"github.com/sitbon/wgmesh/pkg/config"
)

func TestFromDoc(t *testing.T) {
	tests := []struct {
		name    string
		doc     config.NodeDoc
		nodeKey string
		wantErr bool
	}{
		{
			name:    "valid node",
			nodeKey: "gw",
			doc:     config.NodeDoc{Addr: "10.0.0.1/24", SSH: mustSSHSpec(t, "root@198.51.100.1"), Endpoint: "198.51.100.1:51820"},
		},
		{
			name:    "bad cidr",
			nodeKey: "gw",
			doc:     config.NodeDoc{Addr: "not-a-cidr", SSH: mustSSHSpec(t, "root@198.51.100.1"), Endpoint: "198.51.100.1:51820"},
			wantErr: true,
		},
		{
			name:    "empty name",
			nodeKey: "",
			doc:     config.NodeDoc{Addr: "10.0.0.1/24", SSH: mustSSHSpec(t, "root@198.51.100.1"), Endpoint: "198.51.100.1:51820"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := FromDoc(tt.nodeKey, tt.doc)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("FromDoc(%q) = %+v, want error", tt.nodeKey, n)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromDoc(%q): unexpected error: %v", tt.nodeKey, err)
			}
			if n.Name != tt.nodeKey {
				t.Fatalf("n.Name = %q, want %q", n.Name, tt.nodeKey)
			}
		})
	}
}

func TestPeerWithRejectsSelf(t *testing.T) {
	a, err := FromDoc("a", config.NodeDoc{Addr: "10.0.0.1/24", SSH: mustSSHSpec(t, "root@198.51.100.1"), Endpoint: "198.51.100.1:51820"})
	if err != nil {
		t.Fatalf("FromDoc: %v", err)
	}
	a.config = stubConfig(t)

	if err := a.PeerWith(a); err == nil {
		t.Fatalf("PeerWith(self) = nil, want error")
	}
}

func TestReconcileJSON(t *testing.T) {
	tests := []struct {
		name       string
		nodeJSON   map[string]any
		peerJSON   map[string]any
		wantNode   map[string]any
		wantPeer   map[string]any
		wantAdopts bool
	}{
		{
			name:     "empty node adopts peer json",
			nodeJSON: map[string]any{},
			peerJSON: map[string]any{"role": "edge"},
			wantNode: map[string]any{"role": "edge"},
			wantPeer: map[string]any{"role": "edge"},
		},
		{
			name:     "node json overwrites stale peer json",
			nodeJSON: map[string]any{"role": "core"},
			peerJSON: map[string]any{"role": "edge"},
			wantNode: map[string]any{"role": "core"},
			wantPeer: map[string]any{"role": "core"},
		},
		{
			name:     "matching json left alone",
			nodeJSON: map[string]any{"role": "core"},
			peerJSON: map[string]any{"role": "core"},
			wantNode: map[string]any{"role": "core"},
			wantPeer: map[string]any{"role": "core"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peer := stubConfig(t).Peers[stubKeyStr]
			peer.FriendlyJSON = tt.peerJSON
			nodeJSON := tt.nodeJSON

			reconcileJSON(&nodeJSON, peer)

			if !mapsEqual(nodeJSON, tt.wantNode) {
				t.Fatalf("nodeJSON = %+v, want %+v", nodeJSON, tt.wantNode)
			}
			if !mapsEqual(peer.FriendlyJSON, tt.wantPeer) {
				t.Fatalf("peer.FriendlyJSON = %+v, want %+v", peer.FriendlyJSON, tt.wantPeer)
			}
		})
	}
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
